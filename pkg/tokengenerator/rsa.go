package tokengenerator

import (
	"crypto/rsa"
	"fmt"
	"log/slog"

	"github.com/golang-jwt/jwt/v5"
)

// RSASigner signs tokens with RS256
type RSASigner struct {
	privateKey *rsa.PrivateKey
	keyID      string
}

var _ Signer = (*RSASigner)(nil)

// NewRSASigner creates a new RSA signer. An empty keyID is replaced by the
// JWK thumbprint of the public key.
func NewRSASigner(privateKey *rsa.PrivateKey, keyID string) *RSASigner {
	if keyID == "" {
		keyID = Thumbprint(&privateKey.PublicKey)
	}
	return &RSASigner{
		privateKey: privateKey,
		keyID:      keyID,
	}
}

func (s *RSASigner) Sign(claims map[string]interface{}) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims(claims))
	token.Header["kid"] = s.keyID

	tokenString, err := token.SignedString(s.privateKey)
	if err != nil {
		slog.Error("Failed to sign RSA JWT token", "err", err)
		return "", err
	}
	return tokenString, nil
}

func (s *RSASigner) Verify(tokenStr string) (map[string]interface{}, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &s.privateKey.PublicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return token.Claims.(jwt.MapClaims), nil
}

func (s *RSASigner) KeyID() string {
	return s.keyID
}

func (s *RSASigner) Algorithm() string {
	return jwt.SigningMethodRS256.Alg()
}

// PublicKey returns the verification key
func (s *RSASigner) PublicKey() *rsa.PublicKey {
	return &s.privateKey.PublicKey
}
