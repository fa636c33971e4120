package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLock(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, ttl), mr
}

func TestAcquireAndRelease(t *testing.T) {
	l, mr := newTestLock(t, time.Minute)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "record:1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("record:1"))

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists("record:1"))
}

func TestAcquireWaitsForHolder(t *testing.T) {
	l, _ := newTestLock(t, time.Minute)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "record:1")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		second, err := l.Acquire(ctx, "record:1")
		if assert.NoError(t, err) {
			_ = second(ctx)
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire should block while the lock is held")
	case <-time.After(250 * time.Millisecond):
	}

	require.NoError(t, release(ctx))

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("second acquire did not proceed after release")
	}
}

func TestAcquireHonoursContext(t *testing.T) {
	l, _ := newTestLock(t, time.Minute)

	_, err := l.Acquire(context.Background(), "record:1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	_, err = l.Acquire(ctx, "record:1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReleaseAfterTakeover(t *testing.T) {
	l, mr := newTestLock(t, time.Second)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "record:1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	other, err := l.Acquire(ctx, "record:1")
	require.NoError(t, err)

	assert.ErrorIs(t, release(ctx), ErrNotHeld)
	assert.True(t, mr.Exists("record:1"))
	require.NoError(t, other(ctx))
}

func TestDefaultTTL(t *testing.T) {
	l := NewRedis(nil, 0)
	assert.Equal(t, defaultTTL, l.ttl)
}
