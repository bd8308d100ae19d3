package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

const defaultLockTTL = 55 * time.Minute

// Lock keeps two worker instances from running the same cycle.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock is a SETNX lock whose value names the holder.
type RedisLock struct {
	client   lockStore
	key      string
	ttl      time.Duration
	instance string
	owner    string
}

func NewRedisLock(client lockStore, key, instance string, ttl time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{client: client, key: key, ttl: ttl, instance: instance}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	owner := l.instance + ":" + uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// Release deletes the key only while this instance still owns it.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	value, err := l.client.Get(ctx, l.key)
	if err != nil {
		if pkgredis.IsMiss(err) {
			l.owner = ""
			return nil
		}
		return fmt.Errorf("read lock owner: %w", err)
	}
	if value != l.owner {
		l.owner = ""
		return nil
	}
	if err := l.client.Del(ctx, l.key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	l.owner = ""
	return nil
}

// NoopLock always grants the lock. It is used when redis is not configured
// and a single worker instance is assumed.
type NoopLock struct{}

func (NoopLock) Acquire(context.Context) (bool, error) { return true, nil }
func (NoopLock) Release(context.Context) error         { return nil }
