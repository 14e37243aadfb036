package domain

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/textdrop/internal/crypto/domain"
	apperrors "github.com/allisson/textdrop/internal/errors"
)

func TestFormatFor(t *testing.T) {
	f, err := FormatFor(cryptoDomain.AESGCM)
	require.NoError(t, err)
	assert.Equal(t, FormatAESGCM, f)

	f, err = FormatFor(cryptoDomain.ChaCha20)
	require.NoError(t, err)
	assert.Equal(t, FormatChaCha20, f)

	_, err = FormatFor(cryptoDomain.Algorithm("rot13"))
	assert.ErrorIs(t, err, cryptoDomain.ErrUnsupportedAlgorithm)
}

func TestFormat_Algorithm(t *testing.T) {
	tests := []struct {
		format Format
		alg    cryptoDomain.Algorithm
		ok     bool
	}{
		{FormatAESGCM, cryptoDomain.AESGCM, true},
		{FormatChaCha20, cryptoDomain.ChaCha20, true},
		{FormatLegacyAESGCM, cryptoDomain.AESGCM, true},
		{FormatLegacyPlain, "", false},
	}
	for _, tt := range tests {
		alg, ok := tt.format.Algorithm()
		assert.Equal(t, tt.alg, alg, string(tt.format))
		assert.Equal(t, tt.ok, ok, string(tt.format))
	}
}

func TestFormat_IsLegacy(t *testing.T) {
	assert.False(t, FormatAESGCM.IsLegacy())
	assert.False(t, FormatChaCha20.IsLegacy())
	assert.True(t, FormatLegacyAESGCM.IsLegacy())
	assert.True(t, FormatLegacyPlain.IsLegacy())
}

func TestRecord_MarshalParse(t *testing.T) {
	nonce := bytes.Repeat([]byte{1}, cryptoDomain.NonceSize)
	ct := bytes.Repeat([]byte{2}, 40)

	for _, format := range []Format{FormatAESGCM, FormatChaCha20} {
		t.Run(string(format), func(t *testing.T) {
			b := NewRecord(format, nonce, ct).Marshal()
			assert.Equal(t, []byte(format), b[:3])
			assert.Len(t, b, 3+len(nonce)+len(ct))

			r, err := ParseRecord(b)
			require.NoError(t, err)
			assert.Equal(t, format, r.Format)
			assert.Equal(t, nonce, r.Nonce)
			assert.Equal(t, ct, r.Ciphertext)
		})
	}
}

func TestParseRecord_LegacyAESGCM(t *testing.T) {
	iv := bytes.Repeat([]byte{0xA}, 12)
	tag := bytes.Repeat([]byte{0xB}, 16)
	ct := []byte("cipher")

	// Layout written by the previous server: iv ‖ tag ‖ ciphertext.
	stored := "v1:" + base64.StdEncoding.EncodeToString(append(append(append([]byte{}, iv...), tag...), ct...))

	r, err := ParseRecord([]byte(stored))
	require.NoError(t, err)
	assert.Equal(t, FormatLegacyAESGCM, r.Format)
	assert.Equal(t, iv, r.Nonce)
	assert.Equal(t, append(append([]byte{}, ct...), tag...), r.Ciphertext)

	assert.Equal(t, []byte(stored), MarshalLegacyAESGCM(r.Nonce, r.Ciphertext))
}

func TestParseRecord_LegacyPlain(t *testing.T) {
	r, err := ParseRecord(MarshalLegacyPlain([]byte("hello world")))
	require.NoError(t, err)
	assert.Equal(t, FormatLegacyPlain, r.Format)
	assert.Equal(t, []byte("hello world"), r.Payload)
}

func TestParseRecord_Corrupt(t *testing.T) {
	tests := []struct {
		name   string
		record []byte
	}{
		{name: "empty", record: nil},
		{name: "tag only", record: []byte("v2")},
		{name: "unknown tag", record: []byte("v9:" + string(make([]byte, 40)))},
		{name: "raw plaintext", record: []byte("hello world, this is text")},
		{name: "truncated v2", record: append([]byte("v2:"), make([]byte, 27)...)},
		{name: "truncated x2", record: []byte("x2:abc")},
		{name: "v1 bad base64", record: []byte("v1:***")},
		{name: "v1 too short", record: []byte("v1:" + base64.StdEncoding.EncodeToString(make([]byte, 27)))},
		{name: "v0 bad base64", record: []byte("v0:@@")},
		{name: "v0 non canonical base64", record: []byte("v0:aGl=")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRecord(tt.record)
			assert.Nil(t, r)
			assert.ErrorIs(t, err, ErrCorruptRecord)
			assert.ErrorIs(t, err, apperrors.ErrIntegrity)
		})
	}
}

func TestErrors_Sentinels(t *testing.T) {
	assert.ErrorIs(t, ErrRecordNotFound, apperrors.ErrNotFound)
	assert.ErrorIs(t, ErrPayloadTooLarge, apperrors.ErrPayloadTooLarge)
	assert.ErrorIs(t, ErrStorageUnavailable, apperrors.ErrUnavailable)
	assert.ErrorIs(t, ErrInvalidFetchCode, apperrors.ErrInvalidInput)
	assert.ErrorIs(t, ErrUnknownAction, apperrors.ErrInvalidInput)
	assert.Contains(t, ErrCorruptRecord.Error(), "wrong fetch code or corrupted data")
}
