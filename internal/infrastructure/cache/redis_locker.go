// Package cache provides Redis-backed coordination shared by service instances.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/lock"
	"foodchain/pkg/logger"
)

// RedisConfig holds connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// NewRedisClient connects and pings the server.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 20
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// LockerConfig tunes RedisLocker.
type LockerConfig struct {
	// TTL bounds how long a crashed holder keeps a key.
	TTL time.Duration
	// Wait bounds how long Obtain retries a busy key.
	Wait time.Duration
	// RetryEvery is the backoff between attempts.
	RetryEvery time.Duration
	// Prefix namespaces keys.
	Prefix string
}

// DefaultLockerConfig returns the production settings.
func DefaultLockerConfig() LockerConfig {
	return LockerConfig{
		TTL:        30 * time.Second,
		Wait:       10 * time.Second,
		RetryEvery: 50 * time.Millisecond,
		Prefix:     "foodchain:lock:",
	}
}

// RedisLocker implements lock.Locker across processes with redislock.
// Keys are taken one at a time in sorted order and released in reverse.
type RedisLocker struct {
	client *redislock.Client
	cfg    LockerConfig
}

var _ lock.Locker = (*RedisLocker)(nil)

// NewRedisLocker creates a locker on rdb.
func NewRedisLocker(rdb redis.UniversalClient, cfg LockerConfig) *RedisLocker {
	def := DefaultLockerConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.Wait <= 0 {
		cfg.Wait = def.Wait
	}
	if cfg.RetryEvery <= 0 {
		cfg.RetryEvery = def.RetryEvery
	}
	return &RedisLocker{client: redislock.New(rdb), cfg: cfg}
}

func (l *RedisLocker) key(k string) string {
	return l.cfg.Prefix + k
}

// Obtain implements lock.Locker.
func (l *RedisLocker) Obtain(ctx context.Context, keys []string) (lock.Release, error) {
	keys = lock.Normalize(keys)
	held := make([]*redislock.Lock, 0, len(keys))

	waitCtx, cancel := context.WithTimeout(ctx, l.cfg.Wait)
	defer cancel()

	opts := &redislock.Options{RetryStrategy: redislock.LinearBackoff(l.cfg.RetryEvery)}
	for _, k := range keys {
		lk, err := l.client.Obtain(waitCtx, l.key(k), l.cfg.TTL, opts)
		if err != nil {
			l.release(context.WithoutCancel(ctx), held)
			if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
				return nil, apperror.NewLockNotObtained(k)
			}
			return nil, fmt.Errorf("obtain lock %s: %w", k, err)
		}
		held = append(held, lk)
	}

	return func(ctx context.Context) {
		l.release(ctx, held)
	}, nil
}

func (l *RedisLocker) release(ctx context.Context, held []*redislock.Lock) {
	for i := len(held) - 1; i >= 0; i-- {
		if err := held[i].Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.Warn(ctx, "failed to release lock", "key", held[i].Key(), "error", err)
		}
	}
}
