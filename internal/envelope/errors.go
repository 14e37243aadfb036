package envelope

import (
	cryptoDomain "github.com/allisson/textdrop/internal/crypto/domain"
	"github.com/allisson/textdrop/internal/errors"
	"github.com/allisson/textdrop/internal/validation"
)

// Envelope error definitions.
var (
	// ErrInvalidFetchCode indicates the fetch code failed validation.
	ErrInvalidFetchCode = validation.ErrInvalidFetchCode

	// ErrPlaintextTooLarge indicates the plaintext exceeds the character limit.
	ErrPlaintextTooLarge = validation.ErrPlaintextTooLarge

	// ErrUnsupportedVersion indicates a versioned envelope this codec cannot read.
	ErrUnsupportedVersion = errors.Wrap(errors.ErrInvalidInput, "unsupported envelope version")

	// ErrMalformedEnvelope indicates the envelope body is not valid base64, is
	// too short or carries an inconsistent length header.
	ErrMalformedEnvelope = errors.Wrap(errors.ErrIntegrity, "malformed envelope")

	// ErrAuthenticationFailed indicates the AEAD tag did not verify: wrong fetch
	// code or modified envelope. The two cases are indistinguishable.
	ErrAuthenticationFailed = errors.Wrap(errors.ErrIntegrity, "envelope authentication failed")

	// ErrCryptoUnavailable indicates randomness or the cipher could not be used.
	ErrCryptoUnavailable = cryptoDomain.ErrCryptoUnavailable
)
