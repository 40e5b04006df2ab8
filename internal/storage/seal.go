package storage

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// Sealed format: magic(8) + salt(16) + nonce(12) + ciphertext + tag(16)
var sealMagic = []byte("GCM3NCR0")

const (
	saltLen    = 16
	nonceLen   = 12
	tagLen     = 16
	kdfRounds  = 100000
	sealHeader = 8 + saltLen + nonceLen
)

func deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, kdfRounds, 32, sha256.New)
}

func newGCM(password string, salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(deriveKey(password, salt))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// seal encrypts data with a key derived from password.
func seal(data []byte, password string) ([]byte, error) {
	salt := make([]byte, saltLen)
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, sealHeader+len(data)+tagLen)
	out = append(out, sealMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, data, nil), nil
}

func isSealed(data []byte) bool { return bytes.HasPrefix(data, sealMagic) }

// unseal reverses seal. Data without the magic prefix is returned unchanged.
func unseal(data []byte, password string) ([]byte, error) {
	if !isSealed(data) {
		return data, nil
	}
	if password == "" {
		return nil, fmt.Errorf("object is sealed but no key is configured")
	}
	if len(data) < sealHeader+tagLen {
		return nil, fmt.Errorf("GCM data too short: %d bytes", len(data))
	}
	salt := data[8 : 8+saltLen]
	nonce := data[8+saltLen : sealHeader]
	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}
	plain, err := gcm.Open(nil, nonce, data[sealHeader:], nil)
	if err != nil {
		return nil, fmt.Errorf("GCM decryption failed: %w", err)
	}
	return plain, nil
}
