// Package errors defines the error kinds shared by every layer. Domain packages
// declare their errors by wrapping one of the kinds, and the HTTP layer and
// metrics classify any error by the kind it wraps.
package errors

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	// ErrNotFound indicates nothing is stored for the request.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPayloadTooLarge indicates the input exceeds a configured size cap.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrIntegrity indicates authenticated decryption failed. Callers must not
	// distinguish a wrong key from tampered data.
	ErrIntegrity = errors.New("integrity check failed")

	// ErrUnavailable indicates a backing resource (storage, crypto) cannot serve the request.
	ErrUnavailable = errors.New("unavailable")
)

// kinds is the order Kind checks in.
var kinds = []error{
	ErrNotFound,
	ErrPayloadTooLarge,
	ErrInvalidInput,
	ErrIntegrity,
	ErrUnavailable,
}

// Kind returns the error kind err wraps, or nil for nil and unclassified
// errors.
func Kind(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Wrap prefixes err with message, keeping err in the chain. A nil err stays nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
