package oauth2client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptionService(t *testing.T) {
	encryptor, err := NewEncryptionService("test-encryption-key-32-characters")
	require.NoError(t, err)

	t.Run("EncryptDecrypt", func(t *testing.T) {
		plaintext := "my-secret-client-secret"

		encrypted, err := encryptor.Encrypt(plaintext)
		require.NoError(t, err)
		assert.NotEqual(t, plaintext, encrypted)

		again, err := encryptor.Encrypt(plaintext)
		require.NoError(t, err)
		assert.NotEqual(t, encrypted, again)

		decrypted, err := encryptor.Decrypt(encrypted)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	})

	t.Run("OtherKeyCannotDecrypt", func(t *testing.T) {
		encrypted, err := encryptor.Encrypt("secret")
		require.NoError(t, err)

		other, err := NewEncryptionService("another-encryption-key-value")
		require.NoError(t, err)
		_, err = other.Decrypt(encrypted)
		assert.Error(t, err)
	})

	t.Run("EmptyPlaintext", func(t *testing.T) {
		_, err := encryptor.Encrypt("")
		assert.ErrorContains(t, err, "plaintext cannot be empty")
	})

	t.Run("InvalidCiphertext", func(t *testing.T) {
		_, err := encryptor.Decrypt("")
		assert.ErrorContains(t, err, "ciphertext cannot be empty")

		_, err = encryptor.Decrypt("invalid-base64")
		assert.Error(t, err)

		_, err = encryptor.Decrypt("AAAA")
		assert.ErrorContains(t, err, "ciphertext too short")
	})

	t.Run("EmptyKey", func(t *testing.T) {
		_, err := NewEncryptionService("")
		assert.ErrorContains(t, err, "encryption key cannot be empty")
	})
}

func TestValidateEncryptionKey(t *testing.T) {
	assert.NoError(t, ValidateEncryptionKey("this-is-a-valid-key"))
	assert.ErrorContains(t, ValidateEncryptionKey("short"), "must be at least 16 characters long")
}
