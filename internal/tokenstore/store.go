// Package tokenstore persists the access/refresh token pair behind a small
// key-value contract. It is a leaf package: no validation, no knowledge of
// token contents, no caching — every Get reads the backing store fresh.
// Implementations: in-memory (tests, default), JSON file (atomic writes),
// and SQLite (shared state across processes).
package tokenstore

import "sync"

// Logical keys stored by every implementation.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

// Store is the persistence contract for the token pair. Get returns ""
// with a nil error for an absent key. Implementations must be safe for
// concurrent use from any call site.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Clear() error
}

// Memory is an in-process Store backed by a map. Used by tests and by
// callers that do not want credentials to outlive the process.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.values[key], nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value

	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values = make(map[string]string)

	return nil
}
