package domain

import (
	"bytes"
	"encoding/base64"
	"fmt"

	cryptoDomain "github.com/allisson/textdrop/internal/crypto/domain"
)

// Format is the tag that prefixes every stored record.
type Format string

// Record formats. Only FormatAESGCM and FormatChaCha20 are written; the legacy
// formats are read and upgraded on fetch.
const (
	// FormatAESGCM is "v2:" ‖ nonce ‖ AES-256-GCM(payload).
	FormatAESGCM Format = "v2:"

	// FormatChaCha20 is "x2:" ‖ nonce ‖ ChaCha20-Poly1305(payload).
	FormatChaCha20 Format = "x2:"

	// FormatLegacyAESGCM is "v1:" + base64(iv ‖ tag ‖ ciphertext), keyed with
	// HMAC-SHA256(server key, code) and written without AAD.
	FormatLegacyAESGCM Format = "v1:"

	// FormatLegacyPlain is "v0:" + base64(payload), written when the old server
	// had no AES-GCM available.
	FormatLegacyPlain Format = "v0:"
)

const tagLen = 3

// RecordKeyInfo is the HKDF info prefix of the at-rest key. The fetch code is
// appended after a NUL separator.
const RecordKeyInfo = "textdrop/record-key/v2\x00"

// Record is a parsed stored record.
type Record struct {
	Format Format

	// Nonce and Ciphertext (tag appended) for every encrypted format.
	Nonce      []byte
	Ciphertext []byte

	// Payload holds the stored text of a FormatLegacyPlain record.
	Payload []byte
}

// FormatFor returns the record format written for an at-rest algorithm.
func FormatFor(alg cryptoDomain.Algorithm) (Format, error) {
	switch alg {
	case cryptoDomain.AESGCM:
		return FormatAESGCM, nil
	case cryptoDomain.ChaCha20:
		return FormatChaCha20, nil
	default:
		return "", cryptoDomain.ErrUnsupportedAlgorithm
	}
}

// Algorithm returns the AEAD used by an encrypted format.
func (f Format) Algorithm() (cryptoDomain.Algorithm, bool) {
	switch f {
	case FormatAESGCM, FormatLegacyAESGCM:
		return cryptoDomain.AESGCM, true
	case FormatChaCha20:
		return cryptoDomain.ChaCha20, true
	default:
		return "", false
	}
}

// IsLegacy reports whether records of this format are upgraded when read.
func (f Format) IsLegacy() bool {
	return f == FormatLegacyAESGCM || f == FormatLegacyPlain
}

// NewRecord builds a current format record.
func NewRecord(format Format, nonce, ciphertext []byte) *Record {
	return &Record{Format: format, Nonce: nonce, Ciphertext: ciphertext}
}

// Marshal returns the binary form of a current format record.
func (r *Record) Marshal() []byte {
	out := make([]byte, 0, tagLen+len(r.Nonce)+len(r.Ciphertext))
	out = append(out, r.Format...)
	out = append(out, r.Nonce...)
	return append(out, r.Ciphertext...)
}

// ParseRecord splits a stored record into its parts. Unknown tags and
// truncated bodies yield ErrCorruptRecord.
func ParseRecord(b []byte) (*Record, error) {
	if len(b) < tagLen {
		return nil, fmt.Errorf("%w: record too short", ErrCorruptRecord)
	}
	format := Format(b[:tagLen])
	body := b[tagLen:]

	switch format {
	case FormatAESGCM, FormatChaCha20:
		if len(body) < cryptoDomain.NonceSize+cryptoDomain.TagSize {
			return nil, fmt.Errorf("%w: record body too short", ErrCorruptRecord)
		}
		return &Record{
			Format:     format,
			Nonce:      bytes.Clone(body[:cryptoDomain.NonceSize]),
			Ciphertext: bytes.Clone(body[cryptoDomain.NonceSize:]),
		}, nil

	case FormatLegacyAESGCM:
		raw, err := base64.StdEncoding.Strict().DecodeString(string(body))
		if err != nil || len(raw) < cryptoDomain.NonceSize+cryptoDomain.TagSize {
			return nil, fmt.Errorf("%w: invalid legacy record", ErrCorruptRecord)
		}
		iv := raw[:cryptoDomain.NonceSize]
		tag := raw[cryptoDomain.NonceSize : cryptoDomain.NonceSize+cryptoDomain.TagSize]
		ct := raw[cryptoDomain.NonceSize+cryptoDomain.TagSize:]

		// Go's AEAD expects the tag after the ciphertext.
		sealed := make([]byte, 0, len(ct)+len(tag))
		sealed = append(sealed, ct...)
		sealed = append(sealed, tag...)
		return &Record{Format: format, Nonce: bytes.Clone(iv), Ciphertext: sealed}, nil

	case FormatLegacyPlain:
		payload, err := base64.StdEncoding.Strict().DecodeString(string(body))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid legacy record", ErrCorruptRecord)
		}
		return &Record{Format: format, Payload: payload}, nil

	default:
		return nil, fmt.Errorf("%w: unknown record format", ErrCorruptRecord)
	}
}

// MarshalLegacyAESGCM encodes a record in the read-only "v1:" layout. It exists
// so stores written by the previous server can be reproduced in tests and tools.
func MarshalLegacyAESGCM(nonce, sealed []byte) []byte {
	ctLen := len(sealed) - cryptoDomain.TagSize
	raw := make([]byte, 0, len(sealed)+len(nonce))
	raw = append(raw, nonce...)
	raw = append(raw, sealed[ctLen:]...)
	raw = append(raw, sealed[:ctLen]...)
	return []byte(string(FormatLegacyAESGCM) + base64.StdEncoding.EncodeToString(raw))
}

// MarshalLegacyPlain encodes a payload in the read-only "v0:" layout.
func MarshalLegacyPlain(payload []byte) []byte {
	return []byte(string(FormatLegacyPlain) + base64.StdEncoding.EncodeToString(payload))
}
