package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the token fields the client displays. The signature is not
// checked: the client cannot verify it and only the backend trusts the token.
type Claims struct {
	UserID    string
	Email     string
	ExpiresAt time.Time // zero when the token has no exp claim
}

// Expired reports whether the token carried an expiry that has passed.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

type tokenClaims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ParseClaims decodes the payload of a JWT bearer token.
func ParseClaims(token string) (Claims, error) {
	if token == "" {
		return Claims{}, errors.New("empty token")
	}

	var tc tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &tc); err != nil {
		return Claims{}, fmt.Errorf("parse token: %w", err)
	}

	c := Claims{UserID: tc.ID, Email: tc.Email}
	if c.UserID == "" {
		c.UserID = tc.Subject
	}
	if tc.ExpiresAt != nil {
		c.ExpiresAt = tc.ExpiresAt.Time
	}
	return c, nil
}
