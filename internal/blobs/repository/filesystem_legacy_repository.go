package repository

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	blobsDomain "github.com/allisson/textdrop/internal/blobs/domain"
	"github.com/allisson/textdrop/internal/validation"
)

// legacySuffix is the suffix of first generation plaintext drops.
const legacySuffix = ".txt"

// FilesystemLegacyRepository reads the plaintext drops the first version of
// the tool wrote as <dir>/<code>.txt.
type FilesystemLegacyRepository struct {
	dir    string
	logger *slog.Logger
}

// Get returns the legacy text stored for code.
func (f *FilesystemLegacyRepository) Get(ctx context.Context, code string) (string, error) {
	path, err := f.path(code)
	if err != nil {
		return "", err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", blobsDomain.ErrRecordNotFound
		}
		return "", unavailable(f.logger, "read legacy text", err)
	}
	return string(b), nil
}

// Delete removes the legacy text stored for code.
func (f *FilesystemLegacyRepository) Delete(ctx context.Context, code string) error {
	path, err := f.path(code)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return unavailable(f.logger, "remove legacy text", err)
	}
	return nil
}

// path maps a validated fetch code to its legacy file. Fetch codes cannot
// contain separators, so the result always stays inside dir.
func (f *FilesystemLegacyRepository) path(code string) (string, error) {
	if err := validation.ValidateFetchCode(code); err != nil {
		return "", err
	}
	return filepath.Join(f.dir, code+legacySuffix), nil
}

// NewFilesystemLegacyRepository returns a legacy reader rooted at dir.
func NewFilesystemLegacyRepository(dir string, logger *slog.Logger) *FilesystemLegacyRepository {
	return &FilesystemLegacyRepository{dir: dir, logger: discardIfNil(logger)}
}
