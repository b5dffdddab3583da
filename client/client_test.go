package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	taskguard "github.com/goliatone/go-taskguard"
	"github.com/goliatone/go-taskguard/client"
	"github.com/stretchr/testify/assert"
)

type fixedIdentity struct {
	id       int64
	username string
}

func (f fixedIdentity) ID() int64        { return f.id }
func (f fixedIdentity) Username() string { return f.username }
func (f fixedIdentity) Email() string    { return "" }

type quietLogger struct{}

func (quietLogger) Debug(format string, args ...any) {}
func (quietLogger) Info(format string, args ...any)  {}
func (quietLogger) Warn(format string, args ...any)  {}
func (quietLogger) Error(format string, args ...any) {}

func mintToken(t *testing.T, expiration int) string {
	t.Helper()

	service := taskguard.NewTokenService([]byte("server-side-key"), expiration, "", nil, quietLogger{})
	token, err := service.Generate(fixedIdentity{id: 42, username: "ada"})
	assert.NoError(t, err)
	return token
}

func newLoginServer(t *testing.T, token string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		payload := struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if payload.Username != "ada" || payload.Password != "correct-password" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{
					"message":   "the credentials provided are invalid",
					"text_code": "INVALID_CREDENTIALS",
				},
			})
			return
		}

		json.NewEncoder(w).Encode(taskguard.IssuedToken{
			Token:    token,
			UserID:   42,
			Username: "ada",
		})
	}))
}

func TestManager_Login(t *testing.T) {
	token := mintToken(t, 3600)

	t.Run("stores the token on success", func(t *testing.T) {
		server := newLoginServer(t, token)
		defer server.Close()

		store := client.NewMemoryStore()
		manager := client.New(server.URL, store, client.WithLogger(quietLogger{}))

		issued, err := manager.Login(context.Background(), "ada", "correct-password")

		assert.NoError(t, err)
		assert.Equal(t, int64(42), issued.UserID)
		assert.Equal(t, "ada", issued.Username)

		stored, ok := store.Get()
		assert.True(t, ok)
		assert.Equal(t, token, stored)
		assert.True(t, manager.Authenticated())
	})

	t.Run("surfaces the server error envelope", func(t *testing.T) {
		server := newLoginServer(t, token)
		defer server.Close()

		store := client.NewMemoryStore()
		manager := client.New(server.URL, store, client.WithLogger(quietLogger{}))

		_, err := manager.Login(context.Background(), "ada", "wrong")

		assert.Error(t, err)

		var richErr *goerrors.Error
		assert.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, "INVALID_CREDENTIALS", richErr.TextCode)
		assert.Equal(t, http.StatusUnauthorized, richErr.Code)

		_, ok := store.Get()
		assert.False(t, ok)
		assert.False(t, manager.Authenticated())
	})

	t.Run("subsequent requests carry the token", func(t *testing.T) {
		var gotAuth string
		mux := http.NewServeMux()
		mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(taskguard.IssuedToken{Token: token, UserID: 42, Username: "ada"})
		})
		mux.HandleFunc("/api/tasks", func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.Write([]byte(`{"items":[],"count":0}`))
		})

		server := httptest.NewServer(mux)
		defer server.Close()

		store := client.NewMemoryStore()
		manager := client.New(server.URL, store)

		_, err := manager.Login(context.Background(), "ada", "correct-password")
		assert.NoError(t, err)

		res, err := manager.HTTPClient().Get(server.URL + "/api/tasks")
		assert.NoError(t, err)
		defer res.Body.Close()

		assert.Equal(t, "Bearer "+token, gotAuth)
	})
}

func TestManager_Logout(t *testing.T) {
	token := mintToken(t, 3600)

	store := client.NewMemoryStore()
	store.Set(token)

	manager := client.New("http://localhost:0", store)
	assert.True(t, manager.Authenticated())

	manager.Logout()

	assert.False(t, manager.Authenticated())
	_, ok := store.Get()
	assert.False(t, ok)
}

func TestManager_Authenticated(t *testing.T) {
	t.Run("false with no token", func(t *testing.T) {
		manager := client.New("http://localhost:0", client.NewMemoryStore())
		assert.False(t, manager.Authenticated())
	})

	t.Run("false once the token expires locally", func(t *testing.T) {
		service := taskguard.NewTokenService([]byte("server-side-key"), 3600, "", nil, quietLogger{})

		now := time.Now()
		claims := &taskguard.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "ada",
				IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
				ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
			},
			UID: 42,
		}

		expired, err := service.SignClaims(claims)
		assert.NoError(t, err)

		store := client.NewMemoryStore()
		store.Set(expired)

		manager := client.New("http://localhost:0", store)

		assert.False(t, manager.Authenticated())

		// Expiry also evicts the dead token.
		_, ok := store.Get()
		assert.False(t, ok)
	})

	t.Run("false for an unparseable token", func(t *testing.T) {
		store := client.NewMemoryStore()
		store.Set("garbage")

		manager := client.New("http://localhost:0", store)
		assert.False(t, manager.Authenticated())
	})
}
