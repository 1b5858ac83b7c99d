package tokengenerator

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
)

// GenerateRSAKeyPair generates a new RSA key pair with the specified bit size
func GenerateRSAKeyPair(bits int) (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, bits)
}

// EncodePrivateKeyToPEM encodes an RSA private key to PKCS#1 PEM
func EncodePrivateKeyToPEM(privateKey *rsa.PrivateKey) string {
	return string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	}))
}

// DecodePrivateKeyFromPEM decodes an RSA private key from PEM format.
// Supports both PKCS#1 (RSA PRIVATE KEY) and PKCS#8 (PRIVATE KEY) formats
func DecodePrivateKeyFromPEM(pemData []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PKCS#1 private key: %w", err)
		}
		return key, nil
	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PKCS#8 private key: %w", err)
		}
		key, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("parsed key is not an RSA private key")
		}
		return key, nil
	default:
		return nil, fmt.Errorf("invalid PEM block type: %s (expected RSA PRIVATE KEY or PRIVATE KEY)", block.Type)
	}
}

// LoadRSAPrivateKeyFromFile reads a PEM encoded RSA private key
func LoadRSAPrivateKeyFromFile(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key %s: %w", path, err)
	}
	return DecodePrivateKeyFromPEM(data)
}

// JWK is the public half of a signing key as published in a JWK set.
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Kid string `json:"kid,omitempty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// PublicJWK describes the verification key of s.
func (s *RSASigner) PublicJWK() JWK {
	pub := s.PublicKey()
	return JWK{
		Kty: "RSA",
		Use: "sig",
		Alg: s.Algorithm(),
		Kid: s.keyID,
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   encodeExponent(pub.E),
	}
}

func encodeExponent(e int) string {
	return base64.RawURLEncoding.EncodeToString(big.NewInt(int64(e)).Bytes())
}

// Thumbprint is the RFC 7638 SHA-256 thumbprint of pub, base64url encoded.
func Thumbprint(pub *rsa.PublicKey) string {
	// Required members only, in lexicographic order, no whitespace.
	canonical := fmt.Sprintf(`{"e":"%s","kty":"RSA","n":"%s"}`,
		encodeExponent(pub.E), base64.RawURLEncoding.EncodeToString(pub.N.Bytes()))
	sum := sha256.Sum256([]byte(canonical))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
