package shopsdk

import (
	"context"
	"sync"
)

// TokenStore persists the current credential across restarts. Only Session
// writes to it.
type TokenStore interface {
	// Get returns the persisted credential, or "" when none is stored.
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, credential string) error
	// Clear removes the credential. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// MemoryTokenStore keeps the credential in process memory. It also counts
// effective writes and removals, which tests use to observe persistence.
type MemoryTokenStore struct {
	mu      sync.Mutex
	value   string
	writes  int
	removes int
}

// NewMemoryTokenStore returns a store preloaded with credential.
func NewMemoryTokenStore(credential string) *MemoryTokenStore {
	return &MemoryTokenStore{value: credential}
}

func (m *MemoryTokenStore) Get(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, nil
}

func (m *MemoryTokenStore) Set(_ context.Context, credential string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = credential
	m.writes++
	return nil
}

func (m *MemoryTokenStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.value != "" {
		m.removes++
	}
	m.value = ""
	return nil
}

// Writes returns how many times a credential was stored.
func (m *MemoryTokenStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Removes returns how many times a stored credential was actually deleted.
func (m *MemoryTokenStore) Removes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removes
}
