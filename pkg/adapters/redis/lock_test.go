package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/waypoint/pkg/adapters/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker_LockUnlock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "document:deploy.md", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:document:deploy.md"))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:document:deploy.md"))
}

func TestRedisLocker_Contention(t *testing.T) {
	mr, client := newClient(t)
	first := redis.NewLocker(client, "test:")
	second := redis.NewLocker(client, "test:", redis.WithRetryInterval(10*time.Millisecond))
	ctx := context.Background()

	unlock1, err := first.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	_, err = second.Lock(short, "shared", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock1(ctx))

	unlock2, err := second.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)
	defer func() { _ = unlock2(ctx) }()
	assert.True(t, mr.Exists("test:lock:shared"))
}

func TestRedisLocker_ExpiredLockIsNotStolenBack(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:", redis.WithRetryInterval(10*time.Millisecond))
	ctx := context.Background()

	unlock1, err := locker.Lock(ctx, "doc", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	unlock2, err := locker.Lock(ctx, "doc", 5*time.Second)
	require.NoError(t, err)

	assert.ErrorIs(t, unlock1(ctx), redis.ErrLockLost)
	assert.True(t, mr.Exists("test:lock:doc"))
	require.NoError(t, unlock2(ctx))
}
