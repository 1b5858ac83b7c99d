package tokengenerator

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// HMACSigner signs tokens with HS256 and a shared secret. It is meant for
// development setups without a key pair.
type HMACSigner struct {
	secret []byte
	keyID  string
}

var _ Signer = (*HMACSigner)(nil)

func NewHMACSigner(secret, keyID string) *HMACSigner {
	return &HMACSigner{secret: []byte(secret), keyID: keyID}
}

func (s *HMACSigner) Sign(claims map[string]interface{}) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims(claims))
	if s.keyID != "" {
		token.Header["kid"] = s.keyID
	}
	return token.SignedString(s.secret)
}

func (s *HMACSigner) Verify(tokenStr string) (map[string]interface{}, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return token.Claims.(jwt.MapClaims), nil
}

func (s *HMACSigner) KeyID() string     { return s.keyID }
func (s *HMACSigner) Algorithm() string { return jwt.SigningMethodHS256.Alg() }
