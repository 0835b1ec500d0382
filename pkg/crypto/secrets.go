// Package crypto encrypts credential secrets at rest and produces the masked
// previews that are the only form in which a secret leaves the service.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

var (
	// ErrInvalidKey is returned when the encryption key is empty.
	ErrInvalidKey = errors.New("invalid encryption key: must not be empty")
	// ErrDecryptionFailed is returned when decryption fails due to invalid
	// ciphertext or a wrong key.
	ErrDecryptionFailed = errors.New("decryption failed: invalid ciphertext or wrong key")
)

// PreviewMask is the fixed prefix replacing everything but the last four
// characters of a secret in client responses.
const PreviewMask = "*****"

// SecretCipher provides AES-256-GCM authenticated encryption for credential
// secrets such as connection API keys.
type SecretCipher struct {
	gcm cipher.AEAD
}

// NewSecretCipher creates a cipher from a key string. A base64-encoded
// 32-byte key is used directly; any other input is hashed with SHA-256 to
// derive the key, so passphrases work too.
func NewSecretCipher(keyInput string) (*SecretCipher, error) {
	if keyInput == "" {
		return nil, ErrInvalidKey
	}

	var key []byte
	decoded, err := base64.StdEncoding.DecodeString(keyInput)
	if err == nil && len(decoded) == 32 {
		key = decoded
	} else {
		hash := sha256.Sum256([]byte(keyInput))
		key = hash[:]
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &SecretCipher{gcm: gcm}, nil
}

// Encrypt encrypts plaintext and returns base64(nonce || ciphertext || tag).
// Empty strings are returned as-is.
func (c *SecretCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Seal appends ciphertext and tag to the nonce.
	sealed := c.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Empty strings are returned as-is.
func (c *SecretCipher) Decrypt(encrypted string) (string, error) {
	if encrypted == "" {
		return "", nil
	}

	data, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("%w: base64 decode failed", ErrDecryptionFailed)
	}

	nonceSize := c.gcm.NonceSize()
	if len(data) < nonceSize+c.gcm.Overhead() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecryptionFailed)
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := c.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrDecryptionFailed)
	}

	return string(plaintext), nil
}

// Preview decrypts a stored secret and returns its masked preview: the fixed
// mask followed by the last four characters of the plaintext. Secrets shorter
// than four characters are masked in full.
func (c *SecretCipher) Preview(encrypted string) (string, error) {
	plaintext, err := c.Decrypt(encrypted)
	if err != nil {
		return "", err
	}
	return MaskSecret(plaintext), nil
}

// MaskSecret masks an already-decrypted secret value.
func MaskSecret(plaintext string) string {
	if len(plaintext) <= 4 {
		return PreviewMask
	}
	return PreviewMask + plaintext[len(plaintext)-4:]
}
