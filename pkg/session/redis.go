package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type redisBackend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	SessionKey(sessionID string) string
}

// RedisStore persists session values in Redis, namespaced per session id.
// Shared kiosk deployments use it so a gateway restart keeps sessions alive.
type RedisStore struct {
	client    redisBackend
	sessionID string
	ttl       time.Duration
}

// NewRedisStore builds a Redis-backed session store for one session id.
func NewRedisStore(client redisBackend, sessionID string, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &RedisStore{client: client, sessionID: sessionID, ttl: ttl}, nil
}

func (r *RedisStore) key(field string) string {
	return r.client.SessionKey(r.sessionID) + ":" + field
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, r.key(key))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.key(key), value, r.ttl)
}

func (r *RedisStore) Clear(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		keys = []string{KeyAuthToken}
	}
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = r.key(key)
	}
	return r.client.Del(ctx, full...)
}

// TTL reports how long entries live without refresh.
func (r *RedisStore) TTL() time.Duration {
	return r.ttl
}
