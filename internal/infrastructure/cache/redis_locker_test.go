package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisLocker_Defaults(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer rdb.Close()

	l := NewRedisLocker(rdb, LockerConfig{Prefix: "test:"})
	def := DefaultLockerConfig()
	assert.Equal(t, def.TTL, l.cfg.TTL)
	assert.Equal(t, def.Wait, l.cfg.Wait)
	assert.Equal(t, def.RetryEvery, l.cfg.RetryEvery)
	assert.Equal(t, "test:inv:a:b", l.key("inv:a:b"))
}

func TestRedisLocker_UnreachableServer(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	l := NewRedisLocker(rdb, LockerConfig{Wait: 500 * time.Millisecond})
	release, err := l.Obtain(context.Background(), []string{"inv:m:o"})
	require.Error(t, err)
	assert.Nil(t, release)
}

func TestRedisLocker_EmptyKeySet(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer rdb.Close()

	l := NewRedisLocker(rdb, LockerConfig{})
	release, err := l.Obtain(context.Background(), nil)
	require.NoError(t, err)
	release(context.Background())
}
