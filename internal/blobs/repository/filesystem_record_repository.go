package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	atomicfile "github.com/natefinch/atomic"

	blobsDomain "github.com/allisson/textdrop/internal/blobs/domain"
)

const (
	dirMode  = 0o700
	fileMode = 0o600
)

// FilesystemRecordRepository stores records as files below a base directory.
//
// Layout:
//
//	<dir>/index.html
//	<dir>/.htaccess          "Deny from all"
//	<dir>/ab/ab12...ef.dat   one file per record
//
// Directories are created 0700 and files 0600. Put writes a temporary file in
// the target directory, syncs it and renames it over the record, so readers
// see either the old or the new record, never a partial one.
type FilesystemRecordRepository struct {
	dir    string
	logger *slog.Logger
}

// Get reads the record stored under key.
func (f *FilesystemRecordRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	b, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, blobsDomain.ErrRecordNotFound
		}
		return nil, unavailable(f.logger, "read record", err)
	}
	return b, nil
}

// Put atomically replaces the record stored under key.
func (f *FilesystemRecordRepository) Put(ctx context.Context, key string, record []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}

	path := f.path(key)
	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return unavailable(f.logger, "create record directory", err)
	}
	if err := atomicfile.WriteFile(path, bytes.NewReader(record)); err != nil {
		return unavailable(f.logger, "write record", err)
	}
	if err := os.Chmod(path, fileMode); err != nil {
		f.logger.Warn("failed to restrict record permissions", slog.Any("error", err))
	}
	return nil
}

// Ping checks that the base directory is still a directory.
func (f *FilesystemRecordRepository) Ping(ctx context.Context) error {
	info, err := os.Stat(f.dir)
	if err != nil {
		return unavailable(f.logger, "stat storage directory", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: storage path is not a directory", blobsDomain.ErrStorageUnavailable)
	}
	return nil
}

func (f *FilesystemRecordRepository) path(key string) string {
	return filepath.Join(f.dir, filepath.FromSlash(objectName(key)))
}

// protectDir drops files that keep common web servers from listing or
// serving the storage directory. Failures are ignored.
func protectDir(dir string, logger *slog.Logger) {
	files := map[string]string{
		"index.html": "",
		".htaccess":  "Deny from all\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte(content), fileMode); err != nil {
			logger.Debug("failed to write protection file", slog.String("file", name), slog.Any("error", err))
		}
	}
}

// NewFilesystemRecordRepository creates the base directory when needed and
// returns a repository rooted at it.
func NewFilesystemRecordRepository(dir string, logger *slog.Logger) (*FilesystemRecordRepository, error) {
	logger = discardIfNil(logger)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, unavailable(logger, "create storage directory", err)
	}
	protectDir(dir, logger)

	return &FilesystemRecordRepository{dir: dir, logger: logger}, nil
}
