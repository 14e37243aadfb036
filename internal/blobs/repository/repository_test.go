package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	blobsDomain "github.com/allisson/textdrop/internal/blobs/domain"
)

// testKey returns a valid storage key starting with prefix.
func testKey(prefix string) string {
	return prefix + strings.Repeat("0", 64-len(prefix))
}

func TestCheckKey(t *testing.T) {
	assert.NoError(t, checkKey(testKey("ab")))

	for _, key := range []string{
		"",
		"abc",
		strings.Repeat("A", 64),
		"../" + strings.Repeat("a", 61),
		strings.Repeat("a", 65),
	} {
		assert.ErrorIs(t, checkKey(key), blobsDomain.ErrStorageUnavailable, key)
	}
}

func TestObjectName(t *testing.T) {
	key := testKey("ab")
	assert.Equal(t, "ab/"+key+".dat", objectName(key))
}
