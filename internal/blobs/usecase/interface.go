// Package usecase defines the interfaces and implementations of the blob store.
// The use case derives a record's location and at-rest key from the fetch code
// and the server key, seals payloads, and opens or upgrades stored records.
package usecase

import (
	"context"
)

// RecordRepository persists opaque records under their storage key.
type RecordRepository interface {
	// Get returns the record stored under key or ErrRecordNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put atomically writes record under key, replacing any previous record.
	Put(ctx context.Context, key string, record []byte) error
}

// LegacyRepository reads plaintext drops left by the first generation of the
// tool, which stored them under their fetch code.
type LegacyRepository interface {
	// Get returns the legacy text for code or ErrRecordNotFound.
	Get(ctx context.Context, code string) (string, error)

	// Delete removes the legacy text for code. Missing files are not an error.
	Delete(ctx context.Context, code string) error
}

// BlobUseCase defines the blob store operations.
type BlobUseCase interface {
	// LocationFor returns the hex storage key of a (normalized) fetch code.
	// The result must never be logged or returned to clients.
	LocationFor(code string) string

	// Save seals payload and stores it under the fetch code, replacing any
	// previous record.
	Save(ctx context.Context, code, payload string) error

	// Fetch returns the payload stored under the fetch code.
	Fetch(ctx context.Context, code string) (string, error)
}
