package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	taskguard "github.com/goliatone/go-taskguard"
)

// Manager drives the client side token lifecycle: unauthenticated
// until Login succeeds, authenticated while the stored token is live,
// back to unauthenticated on Logout, expiry, or a server 401.
type Manager struct {
	baseURL string
	store   TokenStore
	http    *http.Client
	logger  taskguard.Logger

	loginPath string
}

type Option func(*Manager)

func WithLogger(l taskguard.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) {
		m.http = c
	}
}

func WithLoginPath(path string) Option {
	return func(m *Manager) {
		m.loginPath = path
	}
}

// New builds a Manager whose HTTP client routes every request through
// the bearer Transport.
func New(baseURL string, store TokenStore, opts ...Option) *Manager {
	m := &Manager{
		baseURL:   strings.TrimRight(baseURL, "/"),
		store:     store,
		loginPath: "/api/auth/login",
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.http == nil {
		m.http = &http.Client{
			Timeout:   time.Second * 30,
			Transport: NewTransport(store, nil),
		}
	}

	return m
}

// HTTPClient returns the client that attaches the stored token. Hand
// this to any code that talks to the protected API.
func (m *Manager) HTTPClient() *http.Client {
	return m.http
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type errorEnvelope struct {
	Error struct {
		Message  string `json:"message"`
		TextCode string `json:"text_code"`
	} `json:"error"`
}

// Login exchanges credentials for a token and stores it. Credentials
// are used once and discarded; only the token is retained.
func (m *Manager) Login(ctx context.Context, username, password string) (*taskguard.IssuedToken, error) {
	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to encode login request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+m.loginPath, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to build login request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := m.http.Do(req)
	if err != nil {
		if m.logger != nil {
			m.logger.Error("login request failed", "error", err)
		}
		return nil, errors.Wrap(err, errors.CategoryOperation, "login request failed")
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to read login response")
	}

	if res.StatusCode != http.StatusOK {
		envelope := errorEnvelope{}
		if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
			return nil, errors.New(envelope.Error.Message, categoryForStatus(res.StatusCode)).
				WithTextCode(envelope.Error.TextCode).
				WithCode(res.StatusCode)
		}
		return nil, errors.New(
			fmt.Sprintf("login failed with status %d", res.StatusCode),
			categoryForStatus(res.StatusCode),
		).WithCode(res.StatusCode)
	}

	issued := &taskguard.IssuedToken{}
	if err := json.Unmarshal(raw, issued); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to decode login response")
	}

	if issued.Token == "" {
		return nil, errors.New("login response did not include a token", errors.CategoryOperation)
	}

	m.store.Set(issued.Token)

	return issued, nil
}

// Logout drops the stored token. The token remains valid server side
// until exp; locally the manager is unauthenticated immediately.
func (m *Manager) Logout() {
	m.store.Clear()
}

// Authenticated reports whether a non expired token is held. Expiry is
// read from the token payload without verifying the signature; the
// client has no key, and the server re-validates anyway.
func (m *Manager) Authenticated() bool {
	token, ok := m.store.Get()
	if !ok {
		return false
	}

	expired, err := tokenExpired(token)
	if err != nil {
		m.store.Clear()
		return false
	}

	if expired {
		m.store.Clear()
		return false
	}

	return true
}

func tokenExpired(raw string) (bool, error) {
	parser := jwt.NewParser()
	claims := &taskguard.JWTClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return true, err
	}

	exp := claims.Expires()
	if exp.IsZero() {
		return true, nil
	}

	return time.Now().After(exp), nil
}

func categoryForStatus(status int) errors.Category {
	switch status {
	case http.StatusUnauthorized:
		return errors.CategoryAuth
	case http.StatusForbidden:
		return errors.CategoryAuthz
	case http.StatusBadRequest:
		return errors.CategoryBadInput
	case http.StatusTooManyRequests:
		return errors.CategoryRateLimit
	default:
		return errors.CategoryOperation
	}
}
