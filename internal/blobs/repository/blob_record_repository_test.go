package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/memblob"

	blobsDomain "github.com/allisson/textdrop/internal/blobs/domain"
)

func TestBlobRecordRepository_MemBucket(t *testing.T) {
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	repo := NewBlobRecordRepository(bucket, nil)
	defer func() {
		assert.NoError(t, repo.Close())
	}()

	key := testKey("7e")

	_, err := repo.Get(ctx, key)
	assert.ErrorIs(t, err, blobsDomain.ErrRecordNotFound)

	require.NoError(t, repo.Put(ctx, key, []byte("v2:first")))
	require.NoError(t, repo.Put(ctx, key, []byte("v2:second")))

	got, err := repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2:second"), got)

	exists, err := bucket.Exists(ctx, "7e/"+key+".dat")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestBlobRecordRepository_FileBucket(t *testing.T) {
	ctx := context.Background()
	bucket, err := fileblob.OpenBucket(t.TempDir(), nil)
	require.NoError(t, err)
	repo := NewBlobRecordRepository(bucket, nil)
	defer func() {
		assert.NoError(t, repo.Close())
	}()

	key := testKey("01")
	require.NoError(t, repo.Put(ctx, key, []byte("x2:record")))

	got, err := repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("x2:record"), got)
}

func TestBlobRecordRepository_RejectsMalformedKeys(t *testing.T) {
	repo := NewBlobRecordRepository(memblob.OpenBucket(nil), nil)
	defer func() {
		assert.NoError(t, repo.Close())
	}()

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, blobsDomain.ErrStorageUnavailable)
}

func TestOpenBlobRecordRepository(t *testing.T) {
	ctx := context.Background()

	repo, err := OpenBlobRecordRepository(ctx, "mem://", nil)
	require.NoError(t, err)
	assert.NoError(t, repo.Close())

	_, err = OpenBlobRecordRepository(ctx, "nosuchscheme://bucket", nil)
	assert.ErrorIs(t, err, blobsDomain.ErrStorageUnavailable)
}

func TestBlobRecordRepository_Ping(t *testing.T) {
	ctx := context.Background()

	repo := NewBlobRecordRepository(memblob.OpenBucket(nil), nil)
	defer func() {
		assert.NoError(t, repo.Close())
	}()

	assert.NoError(t, repo.Ping(ctx))
}
