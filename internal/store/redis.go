package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"cj-bridge/internal/reconcile"
)

// RedisLocker serializes tracking sweeps across instances.
type RedisLocker struct {
	client *redislock.Client
}

var _ reconcile.Locker = (*RedisLocker)(nil)

// NewRedisClient connects to addr and verifies the connection.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		PoolSize: 10,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connecting redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// NewRedisLocker creates a locker on rdb.
func NewRedisLocker(rdb redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb)}
}

// Obtain takes key for ttl without retrying. A held key is reconcile.ErrLocked.
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (reconcile.Lock, error) {
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%s: %w", key, reconcile.ErrLocked)
	}
	if err != nil {
		return nil, fmt.Errorf("obtaining %s: %w", key, err)
	}
	return redisLock{lock: lock}, nil
}

type redisLock struct {
	lock *redislock.Lock
}

// Refresh extends the lock. A lock lost to expiry is redislock.ErrNotObtained.
func (l redisLock) Refresh(ctx context.Context, ttl time.Duration) error {
	return l.lock.Refresh(ctx, ttl, nil)
}

func (l redisLock) Release(ctx context.Context) error {
	return l.lock.Release(ctx)
}
