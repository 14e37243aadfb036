package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"

	cryptoDomain "github.com/allisson/textdrop/internal/crypto/domain"
)

// MinPBKDF2Iterations is the lowest iteration count PBKDF2 accepts.
const MinPBKDF2Iterations = 1

// KeyDeriverService implements KeyDeriver with SHA-256 based constructions.
//
// Three derivations are used and never share an output:
//   - PBKDF2-HMAC-SHA256 turns a fetch code into the client envelope key
//   - HMAC-SHA256 of the fetch code under the server key names the storage location
//   - HKDF-SHA256 of the server key, bound to the fetch code via info, keys the at-rest record
type KeyDeriverService struct{}

// NewKeyDeriver creates a new KeyDeriverService.
func NewKeyDeriver() *KeyDeriverService {
	return &KeyDeriverService{}
}

// PBKDF2 derives a 32-byte key from password and salt.
func (k *KeyDeriverService) PBKDF2(password, salt []byte, iterations int) ([]byte, error) {
	if iterations < MinPBKDF2Iterations {
		return nil, fmt.Errorf("invalid PBKDF2 iteration count: %d", iterations)
	}
	return pbkdf2.Key(password, salt, iterations, cryptoDomain.KeySize, sha256.New), nil
}

// HKDF expands secret into a 32-byte subkey bound to info.
func (k *KeyDeriverService) HKDF(secret []byte, info string) ([]byte, error) {
	if len(secret) == 0 {
		return nil, cryptoDomain.ErrInvalidKeySize
	}
	out := make([]byte, cryptoDomain.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(info)), out); err != nil {
		return nil, fmt.Errorf("%w: HKDF derive: %v", cryptoDomain.ErrCryptoUnavailable, err)
	}
	return out, nil
}

// HMAC computes HMAC-SHA256(key, message).
func (k *KeyDeriverService) HMAC(key, message []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return mac.Sum(nil)
}
