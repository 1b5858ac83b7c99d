package tokengenerator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) *RSASigner {
	t.Helper()
	key, err := GenerateRSAKeyPair(2048)
	require.NoError(t, err)
	return NewRSASigner(key, "key-1")
}

func TestRSASigner_SignAndVerify(t *testing.T) {
	signer := testKey(t)
	exp := time.Now().Add(time.Hour).Unix()

	token, err := signer.Sign(map[string]interface{}{"sub": "alice", "exp": exp})
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	require.NoError(t, err)
	assert.Equal(t, "key-1", parsed.Header["kid"])
	assert.Equal(t, "RS256", parsed.Header["alg"])

	claims, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims["sub"])
	assert.Equal(t, float64(exp), claims["exp"])
}

func TestRSASigner_VerifyRejects(t *testing.T) {
	signer := testKey(t)
	other := testKey(t)

	token, err := other.Sign(map[string]interface{}{"sub": "alice"})
	require.NoError(t, err)
	_, err = signer.Verify(token)
	assert.Error(t, err, "foreign key")

	expired, err := signer.Sign(map[string]interface{}{"exp": time.Now().Add(-time.Hour).Unix()})
	require.NoError(t, err)
	_, err = signer.Verify(expired)
	assert.Error(t, err, "expired")

	hmacToken, err := NewHMACSigner("secret", "").Sign(map[string]interface{}{"sub": "alice"})
	require.NoError(t, err)
	_, err = signer.Verify(hmacToken)
	assert.Error(t, err, "algorithm mismatch")
}

func TestHMACSigner(t *testing.T) {
	signer := NewHMACSigner("a-very-secret-value", "dev")
	token, err := signer.Sign(map[string]interface{}{"sub": "alice"})
	require.NoError(t, err)

	claims, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims["sub"])
	assert.Equal(t, "HS256", signer.Algorithm())

	_, err = NewHMACSigner("other", "").Verify(token)
	assert.Error(t, err)
}

func TestLoadRSAPrivateKeyFromFile(t *testing.T) {
	signer := testKey(t)
	path := filepath.Join(t.TempDir(), "key.pem")
	require.NoError(t, os.WriteFile(path, []byte(EncodePrivateKeyToPEM(signer.privateKey)), 0o600))

	key, err := LoadRSAPrivateKeyFromFile(path)
	require.NoError(t, err)
	assert.True(t, key.Equal(signer.privateKey))

	_, err = LoadRSAPrivateKeyFromFile(filepath.Join(t.TempDir(), "missing.pem"))
	assert.Error(t, err)

	_, err = DecodePrivateKeyFromPEM([]byte("garbage"))
	assert.Error(t, err)
}

func TestRSASigner_PublicJWK(t *testing.T) {
	signer := testKey(t)
	jwk := signer.PublicJWK()
	assert.Equal(t, "RSA", jwk.Kty)
	assert.Equal(t, "RS256", jwk.Alg)
	assert.Equal(t, "key-1", jwk.Kid)
	assert.Equal(t, "AQAB", jwk.E)
	assert.NotEmpty(t, jwk.N)
}

func TestNewRSASigner_DefaultsKeyIDToThumbprint(t *testing.T) {
	key, err := GenerateRSAKeyPair(2048)
	require.NoError(t, err)

	signer := NewRSASigner(key, "")
	assert.Equal(t, Thumbprint(&key.PublicKey), signer.KeyID())
	assert.Len(t, signer.KeyID(), 43)
	assert.Equal(t, signer.KeyID(), signer.PublicJWK().Kid)

	other, err := GenerateRSAKeyPair(2048)
	require.NoError(t, err)
	assert.NotEqual(t, signer.KeyID(), Thumbprint(&other.PublicKey))

	tokenStr, err := signer.Sign(map[string]interface{}{"sub": "alice"})
	require.NoError(t, err)
	parsed, _, err := jwt.NewParser().ParseUnverified(tokenStr, jwt.MapClaims{})
	require.NoError(t, err)
	assert.Equal(t, signer.KeyID(), parsed.Header["kid"])
}
