package session

import (
	"sync"
	"time"
)

// Provider hands out the per-session store for a session id.
type Provider interface {
	For(sessionID string) Store
}

// MemoryProvider keeps one MemoryStore per session id. Suited to a
// single-instance gateway; Redis takes over when horizontal scale needs
// shared session state.
type MemoryProvider struct {
	mu     sync.Mutex
	stores map[string]*MemoryStore
}

// NewMemoryProvider builds an empty provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{stores: make(map[string]*MemoryStore)}
}

func (p *MemoryProvider) For(sessionID string) Store {
	p.mu.Lock()
	defer p.mu.Unlock()
	store, ok := p.stores[sessionID]
	if !ok {
		store = NewMemoryStore()
		p.stores[sessionID] = store
	}
	return store
}

// RedisProvider builds namespaced Redis stores on demand.
type RedisProvider struct {
	client redisBackend
	ttl    time.Duration
}

// NewRedisProvider wraps the shared Redis client.
func NewRedisProvider(client redisBackend, ttl time.Duration) *RedisProvider {
	return &RedisProvider{client: client, ttl: ttl}
}

func (p *RedisProvider) For(sessionID string) Store {
	store, err := NewRedisStore(p.client, sessionID, p.ttl)
	if err != nil {
		// only fails on an empty session id, which callers validate first
		return NewMemoryStore()
	}
	return store
}
