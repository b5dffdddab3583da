package taskguard_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	taskguard "github.com/goliatone/go-taskguard"
	"github.com/stretchr/testify/assert"
)

func TestJWTClaims(t *testing.T) {
	now := time.Now().Truncate(time.Second)

	claims := &taskguard.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ada",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		UID: 42,
	}

	t.Run("username is the subject", func(t *testing.T) {
		assert.Equal(t, "ada", claims.Subject())
		assert.Equal(t, "ada", claims.Username())
	})

	t.Run("exposes user id", func(t *testing.T) {
		assert.Equal(t, int64(42), claims.UserID())
	})

	t.Run("exposes timestamps", func(t *testing.T) {
		assert.Equal(t, now, claims.IssuedAt())
		assert.Equal(t, now.Add(time.Hour), claims.Expires())
	})

	t.Run("zero timestamps when claims are missing", func(t *testing.T) {
		empty := &taskguard.JWTClaims{}
		assert.True(t, empty.Expires().IsZero())
		assert.True(t, empty.IssuedAt().IsZero())
	})
}

func TestPrincipalFromClaims(t *testing.T) {
	t.Run("maps validated claims", func(t *testing.T) {
		claims := &taskguard.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "ada"},
			UID:              42,
		}

		principal, err := taskguard.PrincipalFromClaims(claims)

		assert.NoError(t, err)
		assert.Equal(t, int64(42), principal.UserID)
		assert.Equal(t, "ada", principal.Username)
	})

	t.Run("rejects nil claims", func(t *testing.T) {
		_, err := taskguard.PrincipalFromClaims(nil)
		assert.Error(t, err)
	})

	t.Run("rejects missing user id", func(t *testing.T) {
		claims := &taskguard.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "ada"},
		}

		_, err := taskguard.PrincipalFromClaims(claims)
		assert.Error(t, err)
	})

	t.Run("rejects missing username", func(t *testing.T) {
		claims := &taskguard.JWTClaims{UID: 42}

		_, err := taskguard.PrincipalFromClaims(claims)
		assert.Error(t, err)
	})
}

func TestPrincipalOwns(t *testing.T) {
	principal := taskguard.Principal{UserID: 42, Username: "ada"}

	assert.True(t, principal.Owns(42))
	assert.False(t, principal.Owns(7))
	assert.False(t, principal.Owns(0))

	zero := taskguard.Principal{}
	assert.False(t, zero.Owns(0))
}
