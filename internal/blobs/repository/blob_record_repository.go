package repository

import (
	"context"
	"fmt"
	"log/slog"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	blobsDomain "github.com/allisson/textdrop/internal/blobs/domain"

	// Register bucket drivers
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
)

// BlobRecordRepository stores records as objects in a gocloud.dev bucket,
// named <key[0:2]>/<key>.dat. Object writes become visible only when the
// writer is closed successfully, so partial records are never observed.
type BlobRecordRepository struct {
	bucket *blob.Bucket
	logger *slog.Logger
}

// Get reads the object stored under key.
func (b *BlobRecordRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	data, err := b.bucket.ReadAll(ctx, objectName(key))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, blobsDomain.ErrRecordNotFound
		}
		return nil, unavailable(b.logger, "read record object", err)
	}
	return data, nil
}

// Put replaces the object stored under key.
func (b *BlobRecordRepository) Put(ctx context.Context, key string, record []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}

	opts := &blob.WriterOptions{ContentType: "application/octet-stream"}
	if err := b.bucket.WriteAll(ctx, objectName(key), record, opts); err != nil {
		return unavailable(b.logger, "write record object", err)
	}
	return nil
}

// Ping checks that the bucket can be reached.
func (b *BlobRecordRepository) Ping(ctx context.Context) error {
	ok, err := b.bucket.IsAccessible(ctx)
	if err != nil {
		return unavailable(b.logger, "check bucket", err)
	}
	if !ok {
		return fmt.Errorf("%w: bucket not accessible", blobsDomain.ErrStorageUnavailable)
	}
	return nil
}

// Close releases the bucket.
func (b *BlobRecordRepository) Close() error {
	return b.bucket.Close()
}

// NewBlobRecordRepository wraps an open bucket.
func NewBlobRecordRepository(bucket *blob.Bucket, logger *slog.Logger) *BlobRecordRepository {
	return &BlobRecordRepository{bucket: bucket, logger: discardIfNil(logger)}
}

// OpenBlobRecordRepository opens the bucket at url (file://, mem://).
func OpenBlobRecordRepository(ctx context.Context, url string, logger *slog.Logger) (*BlobRecordRepository, error) {
	logger = discardIfNil(logger)
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, unavailable(logger, "open bucket", err)
	}
	return NewBlobRecordRepository(bucket, logger), nil
}
