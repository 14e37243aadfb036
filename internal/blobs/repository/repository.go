// Package repository implements record persistence for the blob store.
//
// Every backend stores records verbatim under their storage key, the hex
// HMAC of the fetch code. Backends never see fetch codes, except the legacy
// plaintext reader which exists to migrate drops written before storage keys.
//
// # Backends
//
//   - Filesystem: <dir>/<key[0:2]>/<key>.dat with atomic replace
//   - Blob: any gocloud.dev/blob bucket, same object layout
//   - PostgreSQL / MySQL: a records table keyed by storage_key
//
// Missing records yield domain.ErrRecordNotFound. Any other backend failure
// is logged with its details and returned as domain.ErrStorageUnavailable so
// paths and driver messages never reach clients.
package repository

import (
	"fmt"
	"log/slog"
	"regexp"

	blobsDomain "github.com/allisson/textdrop/internal/blobs/domain"
)

// storageKeyRegex matches the hex HMAC-SHA256 storage key.
var storageKeyRegex = regexp.MustCompile(`^[0-9a-f]{64}$`)

// recordSuffix is the file and object suffix of stored records.
const recordSuffix = ".dat"

// checkKey rejects anything that is not a storage key before it reaches a path.
func checkKey(key string) error {
	if !storageKeyRegex.MatchString(key) {
		return fmt.Errorf("%w: malformed storage key", blobsDomain.ErrStorageUnavailable)
	}
	return nil
}

// objectName returns the relative name of a record: <key[0:2]>/<key>.dat.
func objectName(key string) string {
	return key[:2] + "/" + key + recordSuffix
}

// unavailable logs a backend failure and returns the generic storage error.
func unavailable(logger *slog.Logger, op string, err error) error {
	logger.Error("storage operation failed", slog.String("operation", op), slog.Any("error", err))
	return fmt.Errorf("%w: %s failed", blobsDomain.ErrStorageUnavailable, op)
}

func discardIfNil(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
