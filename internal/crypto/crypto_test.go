package crypto

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCipher(t *testing.T) *FieldCipher {
	t.Helper()
	c, err := NewFieldCipher(bytes.Repeat([]byte{1}, KeySize), bytes.Repeat([]byte{2}, KeySize))
	require.NoError(t, err)
	return c
}

func TestSealOpen(t *testing.T) {
	c := newCipher(t)

	a, err := c.Seal("alice@example.com")
	require.NoError(t, err)
	b, err := c.Seal("alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "nonce is random")

	plain, err := c.Open(a)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", plain)

	empty, err := c.Seal("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestOpen_Tampered(t *testing.T) {
	c := newCipher(t)

	_, err := c.Open("not base64!")
	assert.True(t, errors.Is(err, ErrCiphertext))

	_, err = c.Open("AAAA")
	assert.True(t, errors.Is(err, ErrCiphertext))

	other, err := NewFieldCipher(bytes.Repeat([]byte{9}, KeySize), bytes.Repeat([]byte{2}, KeySize))
	require.NoError(t, err)
	sealed, err := other.Seal("x@example.com")
	require.NoError(t, err)
	_, err = c.Open(sealed)
	assert.True(t, errors.Is(err, ErrCiphertext))
}

func TestBlindIndex_Normalizes(t *testing.T) {
	c := newCipher(t)
	assert.Equal(t, c.BlindIndex("bob@example.com"), c.BlindIndex("  Bob@Example.COM "))
	assert.NotEqual(t, c.BlindIndex("bob@example.com"), c.BlindIndex("rob@example.com"))
	assert.Empty(t, c.BlindIndex("   "))
}

func TestNewFieldCipher_KeyLength(t *testing.T) {
	_, err := NewFieldCipher([]byte("short"), bytes.Repeat([]byte{2}, KeySize))
	assert.Error(t, err)
	_, err = NewFieldCipher(bytes.Repeat([]byte{1}, KeySize), nil)
	assert.Error(t, err)
}
