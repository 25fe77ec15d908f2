package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// KeyAuthToken holds the bearer token issued by the platform backend.
const KeyAuthToken = "token"

// ErrNotFound is returned when the key has never been set or was cleared.
var ErrNotFound = errors.New("session key not found")

// Store is the explicit session surface injected into auth-dependent
// components: the bearer token plus a handful of UI preference keys.
// It replaces ambient browser-local storage access.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Clear(ctx context.Context, keys ...string) error
}

// MemoryStore keeps session values in process memory. Single-tab semantics:
// all access happens from one consumer, so a plain mutex suffices.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore builds an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(keys) == 0 {
		m.data = make(map[string]string)
		return nil
	}
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

// TTLStore is implemented by stores whose entries expire server-side.
type TTLStore interface {
	Store
	TTL() time.Duration
}
