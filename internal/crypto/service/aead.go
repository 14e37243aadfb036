package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	cryptoDomain "github.com/allisson/textdrop/internal/crypto/domain"
)

// aeadCipher seals records with a random 12-byte nonce per call. Both
// algorithms share the nonce and tag sizes, so a record body is always
// nonce(12) followed by ciphertext and a 16-byte tag. Safe for concurrent use.
type aeadCipher struct {
	alg  cryptoDomain.Algorithm
	aead cipher.AEAD
}

// NewAESGCM returns an AES-256-GCM cipher for a 32-byte key.
func NewAESGCM(key []byte) (AEAD, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, fmt.Errorf("%w: AES-256-GCM key must be %d bytes", cryptoDomain.ErrInvalidKeySize, cryptoDomain.KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrCryptoUnavailable, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrCryptoUnavailable, err)
	}
	return &aeadCipher{alg: cryptoDomain.AESGCM, aead: aead}, nil
}

// NewChaCha20Poly1305 returns a ChaCha20-Poly1305 cipher for a 32-byte key.
func NewChaCha20Poly1305(key []byte) (AEAD, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, fmt.Errorf("%w: ChaCha20-Poly1305 key must be %d bytes", cryptoDomain.ErrInvalidKeySize, cryptoDomain.KeySize)
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrCryptoUnavailable, err)
	}
	return &aeadCipher{alg: cryptoDomain.ChaCha20, aead: aead}, nil
}

func (c *aeadCipher) Algorithm() cryptoDomain.Algorithm {
	return c.alg
}

func (c *aeadCipher) Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error) {
	nonce = make([]byte, cryptoDomain.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("%w: failed to generate nonce: %v", cryptoDomain.ErrCryptoUnavailable, err)
	}
	return c.aead.Seal(nil, nonce, plaintext, aad), nonce, nil
}

// Decrypt verifies the tag before returning anything. A wrong key, a wrong
// AAD, a bad nonce or modified ciphertext all yield ErrDecryptionFailed.
func (c *aeadCipher) Decrypt(ciphertext, nonce, aad []byte) ([]byte, error) {
	if len(nonce) != cryptoDomain.NonceSize {
		return nil, fmt.Errorf("%w: invalid nonce size", cryptoDomain.ErrDecryptionFailed)
	}
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

// AEADManagerService creates ciphers for the configured record algorithm.
type AEADManagerService struct{}

// NewAEADManager creates a new AEADManagerService.
func NewAEADManager() *AEADManagerService {
	return &AEADManagerService{}
}

// CreateCipher returns ErrInvalidKeySize or ErrUnsupportedAlgorithm when key
// or alg cannot be used.
func (am *AEADManagerService) CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error) {
	switch alg {
	case cryptoDomain.AESGCM:
		return NewAESGCM(key)
	case cryptoDomain.ChaCha20:
		return NewChaCha20Poly1305(key)
	default:
		return nil, fmt.Errorf("%w: %q", cryptoDomain.ErrUnsupportedAlgorithm, alg)
	}
}
