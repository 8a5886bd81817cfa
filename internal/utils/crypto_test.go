// internal/utils/crypto_test.go
package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashBytesKnownVector(t *testing.T) {
	// sha256("abc")
	assert.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		HashBytes([]byte("abc")))
}

func TestHashReaderMatchesHashBytes(t *testing.T) {
	data := []byte("streamed and buffered digests must agree")
	digest, err := HashReader(strings.NewReader(string(data)))
	assert.NoError(t, err)
	assert.Equal(t, HashBytes(data), digest)
}

func TestValidateFileHash(t *testing.T) {
	data := []byte("payload")
	assert.True(t, ValidateFileHash(data, HashBytes(data)))
	assert.False(t, ValidateFileHash(data, "deadbeef"))
}

func TestGenerateRandomStringCharsetAndLength(t *testing.T) {
	s, err := GenerateRandomString(13)
	assert.NoError(t, err)
	assert.Len(t, s, 13)
	for _, r := range s {
		assert.True(t, (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'), "unexpected rune %q", r)
	}

	other, err := GenerateRandomString(13)
	assert.NoError(t, err)
	assert.NotEqual(t, s, other)
}

func TestIsEthAddress(t *testing.T) {
	assert.True(t, IsEthAddress("0x1234567890abcdef1234567890abcdef12345678"))
	assert.True(t, IsEthAddress("0x1234567890ABCDEF1234567890ABCDEF12345678"))
	assert.False(t, IsEthAddress("1234567890abcdef1234567890abcdef12345678"))
	assert.False(t, IsEthAddress("0x1234"))
	assert.False(t, IsEthAddress("0x1234567890abcdef1234567890abcdef123456789"))
	assert.False(t, IsEthAddress("0xZZ34567890abcdef1234567890abcdef12345678"))
}
