package domain

import (
	stderrors "errors"

	"github.com/allisson/textdrop/internal/errors"
)

// Cryptographic operation error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors
// to provide context for cryptographic failures.
var (
	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is not supported.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates the cryptographic key size is invalid.
	//
	// All keys (server key, derived keys) must be exactly 32 bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrDecryptionFailed indicates a decryption operation failed.
	//
	// This error can occur due to:
	//   - Wrong decryption key used
	//   - Ciphertext has been tampered with (authentication failure)
	//   - Corrupted encrypted data
	//
	// The specific cause is never disclosed.
	ErrDecryptionFailed = errors.Wrap(errors.ErrIntegrity, "decryption failed")

	// ErrCryptoUnavailable indicates a required primitive (random source, cipher)
	// could not be used. Callers must fail the operation instead of degrading.
	ErrCryptoUnavailable = errors.Wrap(errors.ErrUnavailable, "cryptographic primitives unavailable")

	// ErrServerKeyNotSet indicates neither SERVER_KEY nor SERVER_SECRET is configured.
	ErrServerKeyNotSet = stderrors.New("server key not configured: set SERVER_KEY or SERVER_SECRET")

	// ErrServerKeyAmbiguous indicates both SERVER_KEY and SERVER_SECRET are configured.
	ErrServerKeyAmbiguous = stderrors.New("both SERVER_KEY and SERVER_SECRET are set, configure only one")

	// ErrInvalidServerKeyBase64 indicates SERVER_KEY is not valid standard base64.
	ErrInvalidServerKeyBase64 = stderrors.New("invalid base64 encoding for server key")

	// ErrServerKeyUnwrapFailed indicates the KMS keeper could not decrypt SERVER_KEY.
	ErrServerKeyUnwrapFailed = stderrors.New("failed to decrypt server key with KMS")
)
