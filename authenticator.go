package taskguard

import (
	"context"
	"reflect"

	"github.com/golang-jwt/jwt/v5"
)

// Auther is the token issuer: it authenticates credentials against an
// IdentityProvider and mints signed tokens. It keeps no state beyond
// configuration; nothing is persisted per login.
type Auther struct {
	provider       IdentityProvider
	signingKey     []byte
	logger         Logger
	tokenService   TokenService
	tokenValidator TokenValidator
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		jwt.ClaimStrings(opts.GetAudience()),
		defLogger{},
	)

	return &Auther{
		provider:     provider,
		signingKey:   []byte(opts.GetSigningKey()),
		logger:       defLogger{},
		tokenService: tokenService,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	if ts, ok := s.tokenService.(*TokenServiceImpl); ok {
		ts.WithLogger(logger)
	}
	return s
}

// WithTokenValidator sets a custom token validator for externally issued tokens.
func (s *Auther) WithTokenValidator(validator TokenValidator) *Auther {
	s.tokenValidator = validator
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the credentials and returns a signed token plus the
// identity attributes. Credential failures come back as
// ErrMismatchedHashAndPassword regardless of cause.
func (s *Auther) Login(ctx context.Context, username, password string) (*IssuedToken, error) {
	identity, err := s.provider.VerifyIdentity(ctx, username, password)
	if err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		return nil, err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return nil, ErrMismatchedHashAndPassword
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.logger.Error("Login token generation failed", "error", err)
		return nil, err
	}

	return &IssuedToken{
		Token:    token,
		UserID:   identity.ID(),
		Username: identity.Username(),
	}, nil
}

// PrincipalFromToken validates a raw token and derives the Principal.
func (s *Auther) PrincipalFromToken(raw string) (*Principal, error) {
	validator := s.tokenValidator
	if validator == nil {
		validator = s.tokenService
	}

	claims, err := validator.Validate(raw)
	if err != nil {
		s.logger.Error("PrincipalFromToken validation failed", "error", err)
		return nil, err
	}

	principal, err := PrincipalFromClaims(claims)
	if err != nil {
		s.logger.Error("PrincipalFromToken failed to map claims", "error", err)
		return nil, err
	}

	return principal, nil
}

var _ Authenticator = (*Auther)(nil)
