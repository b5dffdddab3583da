package taskguard

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims is the read surface downstream code gets after a token
// has been validated. Nothing in it comes from the request body.
type AuthClaims interface {
	Subject() string
	Username() string
	UserID() int64
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete wire payload: sub carries the username,
// uid the numeric user id. Both are set at mint time and immutable.
type JWTClaims struct {
	jwt.RegisteredClaims
	UID int64 `json:"userId"`
}

var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// Username is the subject claim; kept as its own accessor so callers
// don't need to know the sub/username mapping.
func (c *JWTClaims) Username() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the numeric user id claim
func (c *JWTClaims) UserID() int64 {
	return c.UID
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
