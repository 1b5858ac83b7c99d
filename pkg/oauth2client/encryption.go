package oauth2client

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keySalt       = "oauth2-client-salt"
	keyIterations = 10000
	keyLength     = 32
)

// EncryptionService encrypts client secrets at rest with AES-256-GCM under a
// key derived from a passphrase with PBKDF2.
type EncryptionService struct {
	aead cipher.AEAD
}

// NewEncryptionService derives the key from encryptionKey.
func NewEncryptionService(encryptionKey string) (*EncryptionService, error) {
	if encryptionKey == "" {
		return nil, fmt.Errorf("encryption key cannot be empty")
	}

	key := pbkdf2.Key([]byte(encryptionKey), []byte(keySalt), keyIterations, keyLength, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &EncryptionService{aead: aead}, nil
}

// Encrypt returns base64(nonce || ciphertext).
func (e *EncryptionService) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("plaintext cannot be empty")
	}

	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (e *EncryptionService) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", fmt.Errorf("ciphertext cannot be empty")
	}

	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %w", err)
	}

	nonceSize := e.aead.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	plaintext, err := e.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plaintext), nil
}

// ValidateEncryptionKey validates that an encryption key is suitable for use
func ValidateEncryptionKey(key string) error {
	if len(key) < 16 {
		return fmt.Errorf("encryption key must be at least 16 characters long")
	}
	return nil
}
