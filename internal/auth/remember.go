package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/isdelr/sample-app/internal/models"
)

// RememberCookieName is the cookie holding the signed remember token.
const RememberCookieName = "remember_token"

// rememberFor approximates a permanent cookie.
const rememberFor = 20 * 365 * 24 * time.Hour

// RememberClaims is the signed payload of a remember token: the user id and
// the user's current salt.
type RememberClaims struct {
	UserID string `json:"uid"`
	Salt   string `json:"salt"`
	jwt.RegisteredClaims
}

// Signer mints and verifies remember tokens.
type Signer struct {
	key []byte
}

// NewSigner creates a Signer keyed by the application secret.
func NewSigner(secret string) *Signer {
	return &Signer{key: []byte(secret)}
}

// Sign creates a token for the given user.
func (s *Signer) Sign(user models.User) (string, error) {
	now := time.Now()
	claims := &RememberClaims{
		UserID: user.ID,
		Salt:   user.Salt,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(rememberFor)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}

// Verify parses and validates a token string.
func (s *Signer) Verify(tokenStr string) (*RememberClaims, error) {
	if tokenStr == "" {
		return nil, errors.New("empty remember token")
	}
	claims := &RememberClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return s.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
