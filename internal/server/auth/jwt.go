// Package auth holds the authkit security primitives: the JWT token codec
// and the password hasher.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkit/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

const jtiSize = 16

// Claims is the token payload. Access tokens carry the user id and profile
// name, refresh tokens only the user id. Registered claims hold exp, iat and
// a random jti so two tokens issued in the same second still differ.
type Claims struct {
	UserID      int64  `json:"id"`
	ProfileName string `json:"profile_name,omitempty"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies HS256 tokens.
type TokenCodec struct {
	now func() time.Time
}

// NewTokenCodec returns a codec reading the current time from now.
// A nil now means time.Now.
func NewTokenCodec(now func() time.Time) *TokenCodec {
	if now == nil {
		now = time.Now
	}
	return &TokenCodec{now: now}
}

// Issue signs claims with secret, setting exp to now+ttl.
func (c *TokenCodec) Issue(claims Claims, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("token secret is empty")
	}

	jti, err := common.MakeRandHexString(jtiSize)
	if err != nil {
		return "", fmt.Errorf("jti: %w", err)
	}

	now := c.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify checks signature, algorithm and expiry of tokenString and returns
// its claims. Every failure is reported as common.ErrInvalidToken.
func (c *TokenCodec) Verify(tokenString string, secret string) (*Claims, error) {
	if secret == "" {
		return nil, common.ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID <= 0 {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
