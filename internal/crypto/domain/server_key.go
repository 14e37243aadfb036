package domain

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// KMSKeeper is the subset of a gocloud.dev/secrets Keeper used to unwrap the server key.
type KMSKeeper interface {
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// ServerKey is the process-wide 256-bit key from which storage locations and
// at-rest record keys are derived. It is resolved once at startup and is
// read-only afterwards, so it is safe for concurrent use.
type ServerKey struct {
	key []byte
}

// NewServerKey copies raw into a new ServerKey. raw must be exactly 32 bytes.
func NewServerKey(raw []byte) (*ServerKey, error) {
	if len(raw) != KeySize {
		return nil, fmt.Errorf("%w: server key must be %d bytes, got %d", ErrInvalidKeySize, KeySize, len(raw))
	}
	key := make([]byte, KeySize)
	copy(key, raw)
	return &ServerKey{key: key}, nil
}

// ServerKeyFromSecret folds an arbitrary-length secret string into a key with
// SHA-256. A given secret always yields the same key, which keeps records
// written under a passphrase-configured deployment readable.
func ServerKeyFromSecret(secret string) *ServerKey {
	sum := sha256.Sum256([]byte(secret))
	return &ServerKey{key: sum[:]}
}

// Bytes returns the raw key material. Callers must not modify it.
func (k *ServerKey) Bytes() []byte {
	return k.key
}

// Close zeroes the key material.
func (k *ServerKey) Close() {
	Zero(k.key)
}

// LoadServerKey resolves the server key from its configured sources.
//
// Exactly one of encodedKey and secret must be set:
//   - encodedKey is standard base64; when keeper is non-nil it holds a KMS
//     ciphertext that is decrypted first, otherwise it holds the raw 32 bytes
//   - secret is any string, folded with ServerKeyFromSecret
//
// Returns ErrServerKeyNotSet, ErrServerKeyAmbiguous, ErrInvalidServerKeyBase64,
// ErrServerKeyUnwrapFailed or ErrInvalidKeySize.
func LoadServerKey(ctx context.Context, encodedKey, secret string, keeper KMSKeeper) (*ServerKey, error) {
	switch {
	case encodedKey == "" && secret == "":
		return nil, ErrServerKeyNotSet
	case encodedKey != "" && secret != "":
		return nil, ErrServerKeyAmbiguous
	case secret != "":
		return ServerKeyFromSecret(secret), nil
	}

	raw, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidServerKeyBase64, err)
	}

	if keeper != nil {
		ciphertext := raw
		raw, err = keeper.Decrypt(ctx, ciphertext)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrServerKeyUnwrapFailed, err)
		}
	}
	defer Zero(raw)

	return NewServerKey(raw)
}
