// Package domain defines the record formats and errors of the blob store.
package domain

import (
	"github.com/allisson/textdrop/internal/errors"
	"github.com/allisson/textdrop/internal/validation"
)

// Blob store error definitions.
var (
	// ErrInvalidFetchCode indicates the fetch code failed validation.
	ErrInvalidFetchCode = validation.ErrInvalidFetchCode

	// ErrRecordNotFound indicates no record exists for the fetch code.
	ErrRecordNotFound = errors.Wrap(errors.ErrNotFound, "record not found")

	// ErrCorruptRecord indicates a stored record could not be opened. A wrong
	// fetch code and a damaged record are reported identically.
	ErrCorruptRecord = errors.Wrap(errors.ErrIntegrity, "wrong fetch code or corrupted data")

	// ErrPayloadTooLarge indicates the payload exceeds the configured character cap.
	ErrPayloadTooLarge = errors.Wrap(errors.ErrPayloadTooLarge, "payload too large")

	// ErrStorageUnavailable indicates the storage backend failed. The message
	// never carries paths or driver details.
	ErrStorageUnavailable = errors.Wrap(errors.ErrUnavailable, "storage unavailable")

	// ErrUnknownAction indicates the request named an action other than save or fetch.
	ErrUnknownAction = errors.Wrap(errors.ErrInvalidInput, "unknown action")
)
