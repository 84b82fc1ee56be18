package session

import (
	"context"
	"sync"
)

// Store persists the token pair.
//
// Save writes both keys; an empty token removes its key. Load of an empty
// store returns zero Tokens and no error. Implementations must be safe for
// concurrent use.
type Store interface {
	Load(ctx context.Context) (Tokens, error)
	Save(ctx context.Context, t Tokens) error
	Clear(ctx context.Context) error
	Close() error
}

// MemoryStore keeps the token pair in memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Load(ctx context.Context) (Tokens, error) {
	if err := ctx.Err(); err != nil {
		return Tokens{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Tokens{
		AccessToken:  m.data[KeyAccessToken],
		RefreshToken: m.data[KeyRefreshToken],
	}, nil
}

func (m *MemoryStore) Save(ctx context.Context, t Tokens) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	setOrDelete(m.data, KeyAccessToken, t.AccessToken)
	setOrDelete(m.data, KeyRefreshToken, t.RefreshToken)
	return nil
}

// Clear never fails, even on a cancelled context, so that logout always
// completes.
func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.data)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// Keys returns the stored key names. Used by tests to check that nothing
// besides the two tokens is persisted.
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}

func setOrDelete(m map[string]string, key, value string) {
	if value == "" {
		delete(m, key)
		return
	}
	m[key] = value
}
