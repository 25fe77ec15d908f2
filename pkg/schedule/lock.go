package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultLockTTL = 5 * time.Minute

// Lock coordinates exclusive runs across replicated workers. Locking is
// per task: two different tasks never exclude each other, only replicas
// running the same task do.
type Lock interface {
	Acquire(ctx context.Context, task string) (bool, error)
	Release(ctx context.Context, task string) error
}

// NopLock always grants the lock; single-instance deployments use it.
type NopLock struct{}

func (NopLock) Acquire(context.Context, string) (bool, error) { return true, nil }
func (NopLock) Release(context.Context, string) error         { return nil }

// redisStore defines the operations used by RedisLock.
type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock implements Lock using Redis SETNX + TTL, one key per task.
// Safe for the runner's per-task goroutines.
type RedisLock struct {
	client redisStore
	prefix string
	ttl    time.Duration

	mu     sync.Mutex
	owners map[string]string
}

// NewRedisLock constructs a Redis-backed lock.
func NewRedisLock(client redisStore, prefix string, ttl time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if prefix == "" {
		return nil, errors.New("lock key prefix is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{client: client, prefix: prefix, ttl: ttl, owners: make(map[string]string)}, nil
}

func (l *RedisLock) taskKey(task string) string {
	if task == "" {
		return l.prefix
	}
	return fmt.Sprintf("%s:%s", l.prefix, task)
}

// Acquire tries to own the task's lock for the configured TTL.
func (l *RedisLock) Acquire(ctx context.Context, task string) (bool, error) {
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.taskKey(task), owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	if ok {
		l.mu.Lock()
		l.owners[task] = owner
		l.mu.Unlock()
	}
	return ok, nil
}

// Release frees the task's lock only if the owner value still matches.
func (l *RedisLock) Release(ctx context.Context, task string) error {
	l.mu.Lock()
	owner := l.owners[task]
	l.mu.Unlock()
	if owner == "" {
		return nil
	}

	key := l.taskKey(task)
	value, err := l.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("read lock owner: %w", err)
	}
	if value != owner {
		return nil
	}
	if err := l.client.Del(ctx, key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}

	l.mu.Lock()
	delete(l.owners, task)
	l.mu.Unlock()
	return nil
}
