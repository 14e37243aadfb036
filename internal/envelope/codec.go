// Package envelope implements the client side encryption format.
//
// An envelope is the string
//
//	"e2e1:" + base64std(salt[16] ‖ nonce[12] ‖ AES-256-GCM(padded))
//
// where the key is PBKDF2-HMAC-SHA256(fetch code, salt, 150000 iterations) and
// padded is the UTF-8 plaintext framed by Pad. The server only ever sees
// envelopes. Text without a version tag is treated as a legacy plaintext record
// and passed through Decode unchanged.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/allisson/textdrop/internal/crypto/service"
	"github.com/allisson/textdrop/internal/validation"
)

const (
	// Tag prefixes every envelope produced by this package.
	Tag = "e2e1:"

	// SaltSize is the PBKDF2 salt size in bytes.
	SaltSize = 16

	// NonceSize is the AES-GCM nonce size in bytes.
	NonceSize = 12

	// TagSize is the AES-GCM authentication tag size in bytes.
	TagSize = 16

	// DefaultIterations is the PBKDF2 iteration count of the e2e1 format.
	DefaultIterations = 150000

	// DefaultBlockSize is the padding granularity in bytes.
	DefaultBlockSize = 4096

	minEnvelopeBytes = SaltSize + NonceSize + TagSize
)

// MaxEnvelopeLen is the length of the largest envelope the default codec
// produces: MaxPlaintextChars runes of utf8.UTFMax bytes each.
var MaxEnvelopeLen = EncodedLen(validation.MaxPlaintextChars*utf8.UTFMax, DefaultBlockSize)

// EncodedLen returns the envelope length of an n-byte plaintext padded to
// block bytes.
func EncodedLen(n, block int) int {
	padded := (lengthHeaderSize + n + block - 1) / block * block
	return len(Tag) + base64.StdEncoding.EncodedLen(SaltSize+NonceSize+padded+TagSize)
}

// versionTagRegex matches any envelope version tag, known or not.
var versionTagRegex = regexp.MustCompile(`^e2e[0-9]+:`)

// Codec encodes and decodes envelopes. The zero value uses the e2e1 defaults
// and is safe for concurrent use.
type Codec struct {
	// Iterations overrides DefaultIterations. Both sides must agree, the count
	// is not stored in the envelope.
	Iterations int

	// BlockSize overrides DefaultBlockSize.
	BlockSize int

	// Rand overrides crypto/rand as the source of salts, nonces and filler.
	Rand io.Reader
}

var defaultCodec = &Codec{}

// Encode seals plaintext under code with the default codec.
func Encode(code, plaintext string) (string, error) {
	return defaultCodec.Encode(code, plaintext)
}

// Decode opens an envelope with the default codec.
func Decode(code, envelope string) (string, error) {
	return defaultCodec.Decode(code, envelope)
}

// IsEnvelope reports whether s carries an envelope version tag.
func IsEnvelope(s string) bool {
	return versionTagRegex.MatchString(s)
}

// Encode validates code and plaintext and returns a fresh envelope. Two calls
// with the same input never return the same envelope.
func (c *Codec) Encode(code, plaintext string) (string, error) {
	code = validation.NormalizeFetchCode(code)
	if err := validation.ValidateFetchCode(code); err != nil {
		return "", err
	}
	if err := validation.ValidatePlaintext(plaintext); err != nil {
		return "", err
	}

	header := make([]byte, SaltSize+NonceSize)
	if _, err := io.ReadFull(c.random(), header); err != nil {
		return "", fmt.Errorf("%w: failed to read salt and nonce: %v", ErrCryptoUnavailable, err)
	}
	salt, nonce := header[:SaltSize], header[SaltSize:]

	padded, err := Pad([]byte(plaintext), c.blockSize(), c.random())
	if err != nil {
		return "", err
	}

	aead, err := c.newAEAD(code, salt)
	if err != nil {
		return "", err
	}

	sealed := make([]byte, 0, len(header)+len(padded)+TagSize)
	sealed = append(sealed, header...)
	sealed = aead.Seal(sealed, nonce, padded, nil)

	return Tag + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decode returns the plaintext sealed in envelope. Input without a version tag
// is returned unchanged.
func (c *Codec) Decode(code, envelope string) (string, error) {
	if !strings.HasPrefix(envelope, Tag) {
		if IsEnvelope(envelope) {
			return "", fmt.Errorf("%w: %q", ErrUnsupportedVersion, versionTagRegex.FindString(envelope))
		}
		return envelope, nil
	}

	raw, err := base64.StdEncoding.Strict().DecodeString(envelope[len(Tag):])
	if err != nil {
		return "", fmt.Errorf("%w: invalid base64", ErrMalformedEnvelope)
	}
	if len(raw) < minEnvelopeBytes {
		return "", fmt.Errorf("%w: envelope too short", ErrMalformedEnvelope)
	}

	salt := raw[:SaltSize]
	nonce := raw[SaltSize : SaltSize+NonceSize]
	ciphertext := raw[SaltSize+NonceSize:]

	aead, err := c.newAEAD(validation.NormalizeFetchCode(code), salt)
	if err != nil {
		return "", err
	}

	padded, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrAuthenticationFailed
	}

	plaintext, err := Unpad(padded)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func (c *Codec) newAEAD(code string, salt []byte) (cipher.AEAD, error) {
	key, err := service.NewKeyDeriver().PBKDF2([]byte(code), salt, c.iterations())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoUnavailable, err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoUnavailable, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoUnavailable, err)
	}
	return aead, nil
}

func (c *Codec) iterations() int {
	if c.Iterations > 0 {
		return c.Iterations
	}
	return DefaultIterations
}

func (c *Codec) blockSize() int {
	if c.BlockSize > 0 {
		return c.BlockSize
	}
	return DefaultBlockSize
}

func (c *Codec) random() io.Reader {
	if c.Rand != nil {
		return c.Rand
	}
	return rand.Reader
}
