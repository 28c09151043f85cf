// Package auth mints and verifies the bearer tokens used by both the HTTP
// API and the realtime connection handshake.
package auth

import (
	"errors"
	"time"

	"github.com/codecollab-io/codecollab/config"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that fail signature, expiry or
// shape checks. Callers only need to distinguish "invalid" from "missing".
var ErrInvalidToken = errors.New("invalid token")

// Claims is the identity attached to a verified token.
// Immutable for the lifetime of a connection.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// Sign mints an HS256 token for the given user
func Sign(userID, name string) (string, error) {
	cfg := config.Get()
	now := time.Now()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TokenTTL)),
		},
		UserID: userID,
		Name:   name,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// Verify validates a token's signature and expiry and returns its claims.
// Evaluated exactly once per connection attempt; there is no retry path.
func Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Reject anything but HMAC to prevent algorithm confusion
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(config.Get().JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
