package client

import (
	"net/http"
	"strings"
)

// Transport is an http.RoundTripper that attaches the stored bearer
// token to outgoing requests. Requests to public paths go out bare.
// A 401 response clears the store so the next request starts
// unauthenticated instead of replaying a dead token.
type Transport struct {
	Base        http.RoundTripper
	Store       TokenStore
	PublicPaths []string

	// OnUnauthorized fires after the store is cleared on a 401, so the
	// owner can trigger a re-login.
	OnUnauthorized func(req *http.Request)
}

// NewTransport wraps base with bearer token handling.
func NewTransport(store TokenStore, base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}

	return &Transport{
		Base:  base,
		Store: store,
		PublicPaths: []string{
			"/api/auth/login",
			"/api/auth/register",
		},
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.isPublic(req.URL.Path) {
		return t.Base.RoundTrip(req)
	}

	token, ok := t.Store.Get()
	if ok {
		// RoundTrippers must not mutate the original request.
		clone := req.Clone(req.Context())
		clone.Header.Set("Authorization", "Bearer "+token)
		req = clone
	}

	res, err := t.Base.RoundTrip(req)
	if err != nil {
		return res, err
	}

	if res.StatusCode == http.StatusUnauthorized {
		t.Store.Clear()
		if t.OnUnauthorized != nil {
			t.OnUnauthorized(req)
		}
	}

	return res, nil
}

func (t *Transport) isPublic(path string) bool {
	for _, p := range t.PublicPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
