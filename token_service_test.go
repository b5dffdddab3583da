package taskguard_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	taskguard "github.com/goliatone/go-taskguard"
	"github.com/stretchr/testify/assert"
)

func TestNewTokenService(t *testing.T) {
	signingKey := []byte("test-signing-key")
	issuer := "test-issuer"
	audience := jwt.ClaimStrings{"test-audience"}

	t.Run("creates token service with logger", func(t *testing.T) {
		service := taskguard.NewTokenService(signingKey, 3600, issuer, audience, NoopLogger{})
		assert.NotNil(t, service)
	})

	t.Run("creates token service with nil logger", func(t *testing.T) {
		service := taskguard.NewTokenService(signingKey, 3600, issuer, audience, nil)
		assert.NotNil(t, service)
	})
}

func TestTokenService_Generate(t *testing.T) {
	signingKey := []byte("test-signing-key")
	issuer := "test-issuer"
	audience := jwt.ClaimStrings{"test-audience"}

	service := taskguard.NewTokenService(signingKey, 3600, issuer, audience, NoopLogger{})

	t.Run("generates valid JWT token", func(t *testing.T) {
		identity := &MockIdentity{}
		identity.On("ID").Return(int64(123))
		identity.On("Username").Return("ada")

		tokenString, err := service.Generate(identity)

		assert.NoError(t, err)
		assert.NotEmpty(t, tokenString)

		// Parse the token to verify structure
		token, err := jwt.ParseWithClaims(tokenString, &taskguard.JWTClaims{}, func(token *jwt.Token) (any, error) {
			return signingKey, nil
		})

		assert.NoError(t, err)
		assert.True(t, token.Valid)

		claims, ok := token.Claims.(*taskguard.JWTClaims)
		assert.True(t, ok)
		assert.Equal(t, "ada", claims.Subject())
		assert.Equal(t, "ada", claims.Username())
		assert.Equal(t, int64(123), claims.UserID())
		assert.Equal(t, issuer, claims.Issuer)
		assert.Equal(t, audience, claims.Audience)
		assert.NotEmpty(t, claims.ID)
		assert.NotNil(t, claims.RegisteredClaims.IssuedAt)
		assert.NotNil(t, claims.RegisteredClaims.ExpiresAt)

		identity.AssertExpectations(t)
	})

	t.Run("exp is iat plus the configured window", func(t *testing.T) {
		identity := &MockIdentity{}
		identity.On("ID").Return(int64(7))
		identity.On("Username").Return("grace")

		tokenString, err := service.Generate(identity)
		assert.NoError(t, err)

		claims, err := service.Validate(tokenString)
		assert.NoError(t, err)

		window := claims.Expires().Sub(claims.IssuedAt())
		assert.Equal(t, time.Duration(3600)*time.Second, window)
	})
}

func TestTokenService_Validate(t *testing.T) {
	signingKey := []byte("test-signing-key")
	service := taskguard.NewTokenService(signingKey, 3600, "", nil, NoopLogger{})

	mint := func(ts taskguard.TokenService, id int64, username string) string {
		identity := &MockIdentity{}
		identity.On("ID").Return(id)
		identity.On("Username").Return(username)

		token, err := ts.Generate(identity)
		assert.NoError(t, err)
		return token
	}

	t.Run("round trips claims", func(t *testing.T) {
		token := mint(service, 42, "ada")

		claims, err := service.Validate(token)

		assert.NoError(t, err)
		assert.Equal(t, int64(42), claims.UserID())
		assert.Equal(t, "ada", claims.Username())
	})

	t.Run("rejects expired token", func(t *testing.T) {
		now := time.Now()
		claims := &taskguard.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "ada",
				IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
				ExpiresAt: jwt.NewNumericDate(now.Add(-1 * time.Hour)),
			},
			UID: 42,
		}

		token, err := service.SignClaims(claims)
		assert.NoError(t, err)

		_, err = service.Validate(token)

		assert.Error(t, err)
		assert.True(t, taskguard.IsTokenExpiredError(err))
	})

	t.Run("accepts exp just inside the leeway window", func(t *testing.T) {
		now := time.Now()
		claims := &taskguard.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "ada",
				IssuedAt:  jwt.NewNumericDate(now.Add(-time.Hour)),
				ExpiresAt: jwt.NewNumericDate(now.Add(-2 * time.Second)),
			},
			UID: 42,
		}

		token, err := service.SignClaims(claims)
		assert.NoError(t, err)

		got, err := service.Validate(token)

		assert.NoError(t, err)
		assert.Equal(t, int64(42), got.UserID())
	})

	t.Run("rejects token signed with a different key", func(t *testing.T) {
		other := taskguard.NewTokenService([]byte("some-other-key"), 3600, "", nil, NoopLogger{})
		token := mint(other, 42, "ada")

		_, err := service.Validate(token)

		assert.Error(t, err)
		assert.True(t, taskguard.IsSignatureError(err))
	})

	t.Run("rejects tampered payload", func(t *testing.T) {
		token := mint(service, 42, "ada")

		parts := strings.Split(token, ".")
		assert.Len(t, parts, 3)

		// Flip a character in the payload segment; the signature no
		// longer matches.
		payload := []byte(parts[1])
		if payload[0] == 'A' {
			payload[0] = 'B'
		} else {
			payload[0] = 'A'
		}
		tampered := parts[0] + "." + string(payload) + "." + parts[2]

		_, err := service.Validate(tampered)
		assert.Error(t, err)
	})

	t.Run("rejects structurally invalid token", func(t *testing.T) {
		_, err := service.Validate("not-a-token")

		assert.Error(t, err)
		assert.True(t, taskguard.IsMalformedError(err))
	})

	t.Run("rejects empty token", func(t *testing.T) {
		_, err := service.Validate("")

		assert.Error(t, err)
		assert.True(t, taskguard.IsMalformedError(err))
	})

	t.Run("rejects unsigned token", func(t *testing.T) {
		claims := &taskguard.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "ada",
				IssuedAt:  jwt.NewNumericDate(time.Now()),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			UID: 42,
		}

		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
		token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		assert.NoError(t, err)

		_, err = service.Validate(token)
		assert.Error(t, err)
	})

	t.Run("rejects token without exp", func(t *testing.T) {
		claims := &taskguard.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:  "ada",
				IssuedAt: jwt.NewNumericDate(time.Now()),
			},
			UID: 42,
		}

		token, err := service.SignClaims(claims)
		assert.NoError(t, err)

		_, err = service.Validate(token)
		assert.Error(t, err)
	})

	t.Run("validates issuer and audience when configured", func(t *testing.T) {
		strict := taskguard.NewTokenService(signingKey, 3600, "issuer-a", jwt.ClaimStrings{"svc-a"}, NoopLogger{})
		loose := taskguard.NewTokenService(signingKey, 3600, "issuer-b", nil, NoopLogger{})

		token := mint(loose, 42, "ada")

		_, err := strict.Validate(token)
		assert.Error(t, err)

		own := mint(strict, 42, "ada")
		_, err = strict.Validate(own)
		assert.NoError(t, err)
	})
}

func TestTokenService_SignClaims(t *testing.T) {
	service := taskguard.NewTokenService([]byte("test-signing-key"), 3600, "", nil, NoopLogger{})

	t.Run("rejects nil claims", func(t *testing.T) {
		_, err := service.SignClaims(nil)
		assert.Error(t, err)
	})
}
