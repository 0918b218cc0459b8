// Package crypto encrypts personal fields at rest and derives blind indexes
// so encrypted columns can still be looked up by equality.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

const KeySize = 32

var ErrCiphertext = errors.New("crypto: malformed ciphertext")

// FieldCipher seals strings with AES-256-GCM. Output is base64 with the
// nonce prepended.
type FieldCipher struct {
	aead     cipher.AEAD
	indexKey []byte
}

func NewFieldCipher(encryptionKey, blindIndexKey []byte) (*FieldCipher, error) {
	if len(encryptionKey) != KeySize {
		return nil, fmt.Errorf("crypto: encryption key must be %d bytes, got %d", KeySize, len(encryptionKey))
	}
	if len(blindIndexKey) != KeySize {
		return nil, fmt.Errorf("crypto: blind index key must be %d bytes, got %d", KeySize, len(blindIndexKey))
	}
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &FieldCipher{aead: aead, indexKey: append([]byte(nil), blindIndexKey...)}, nil
}

func (c *FieldCipher) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *FieldCipher) Open(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCiphertext, err)
	}
	n := c.aead.NonceSize()
	if len(data) < n {
		return "", ErrCiphertext
	}
	plain, err := c.aead.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCiphertext, err)
	}
	return string(plain), nil
}

// BlindIndex is an HMAC-SHA256 of the trimmed, lower-cased value, so
// "Bob@Example.com " and "bob@example.com" index identically.
func (c *FieldCipher) BlindIndex(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	h := hmac.New(sha256.New, c.indexKey)
	h.Write([]byte(value))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
