package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blobsDomain "github.com/allisson/textdrop/internal/blobs/domain"
)

func TestFilesystemLegacyRepository(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo := NewFilesystemLegacyRepository(dir, nil)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc123.txt"), []byte("old text"), 0o600))

	t.Run("Get", func(t *testing.T) {
		text, err := repo.Get(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, "old text", text)
	})

	t.Run("Get_NotFound", func(t *testing.T) {
		_, err := repo.Get(ctx, "missing")
		assert.ErrorIs(t, err, blobsDomain.ErrRecordNotFound)
	})

	t.Run("Get_RejectsTraversal", func(t *testing.T) {
		_, err := repo.Get(ctx, "../abc123")
		assert.ErrorIs(t, err, blobsDomain.ErrInvalidFetchCode)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "abc123"))
		assert.NoFileExists(t, filepath.Join(dir, "abc123.txt"))

		// Deleting again is not an error.
		assert.NoError(t, repo.Delete(ctx, "abc123"))
	})
}
