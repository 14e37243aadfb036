// Package service provides cryptographic services for the client envelope and
// the server's at-rest records: AEAD ciphers (AES-256-GCM, ChaCha20-Poly1305),
// key derivation and KMS access.
package service

import (
	cryptoDomain "github.com/allisson/textdrop/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Algorithm names the cipher, used to pick the record format.
	Algorithm() cryptoDomain.Algorithm

	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// KeyDeriver defines the key derivation primitives used across the system.
// All functions are built on SHA-256 and return 32-byte outputs.
type KeyDeriver interface {
	// PBKDF2 stretches a low-entropy password into a key.
	PBKDF2(password, salt []byte, iterations int) ([]byte, error)

	// HKDF expands high-entropy key material into a purpose-bound subkey.
	HKDF(secret []byte, info string) ([]byte, error)

	// HMAC computes HMAC-SHA256(key, message).
	HMAC(key, message []byte) []byte
}
