// Package client implements the calling side of the token contract: it
// obtains a token at login, holds it, attaches it to every outgoing
// request, and drops it when the server stops accepting it.
package client

import "sync"

// TokenStore holds the current bearer token. Implementations must be
// safe for concurrent use; the transport reads while logins write.
type TokenStore interface {
	Get() (string, bool)
	Set(token string)
	Clear()
}

type memoryStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryStore returns an in-memory TokenStore. This is the default;
// tokens never touch disk.
func NewMemoryStore() TokenStore {
	return &memoryStore{}
}

func (s *memoryStore) Get() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *memoryStore) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *memoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}
