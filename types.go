package taskguard

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated identity as the
// credential store knows them.
type Identity interface {
	ID() int64
	Username() string
	Email() string
}

// Authenticator mints tokens for verified credentials.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*IssuedToken, error)
	PrincipalFromToken(raw string) (*Principal, error)
}

// IssuedToken is the issuer's output: the signed token plus the
// identity attributes the client needs without decoding it.
type IssuedToken struct {
	Token    string `json:"token"`
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

// TokenService signs and validates tokens with a single key. It is a
// pure function of (token, key, clock) and safe under arbitrary
// concurrency.
type TokenService interface {
	TokenValidator
	Generate(identity Identity) (string, error)
	SignClaims(claims *JWTClaims) (string, error)
}

// Config holds auth options. The signing key is an explicit injected
// value, never a package global; every service builds its own
// TokenService from its own Config.
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetContextKey() string
	GetTokenExpiration() int
	GetTokenLookup() string
	GetAuthScheme() string
	GetIssuer() string
	GetAudience() []string
}

// IdentityProvider ensures we have a store to retrieve and verify auth
// identities against.
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, username, password string) (Identity, error)
	FindIdentityByUsername(ctx context.Context, username string) (Identity, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

const (
	// DefaultTokenExpiration is the issue window in seconds.
	DefaultTokenExpiration = 3600
	// DefaultLeeway absorbs clock skew between independently deployed
	// services when checking exp.
	DefaultLeeway = 5 * time.Second
)

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
