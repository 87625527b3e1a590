package redisclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (*miniredis.Miniredis, Locker) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisLocker(client, 2*time.Second)
}

func TestWithLockRunsAndReleases(t *testing.T) {
	mr, locker := newTestLocker(t)

	ran := false
	err := locker.WithLock(context.Background(), "appointment:a1", func(ctx context.Context) error {
		ran = true
		assert.True(t, mr.Exists("lock:appointment:a1"))
		return nil
	})

	require.NoError(t, err)
	assert.True(t, ran)
	assert.False(t, mr.Exists("lock:appointment:a1"))
}

func TestWithLockContended(t *testing.T) {
	mr, locker := newTestLocker(t)
	require.NoError(t, mr.Set("lock:appointment:a1", "someone-else"))

	err := locker.WithLock(context.Background(), "appointment:a1", func(ctx context.Context) error {
		t.Fatal("critical section must not run")
		return nil
	})

	assert.ErrorIs(t, err, ErrLockNotAcquired)
	// the foreign holder's token is left untouched
	got, _ := mr.Get("lock:appointment:a1")
	assert.Equal(t, "someone-else", got)
}

func TestWithLockPropagatesError(t *testing.T) {
	mr, locker := newTestLocker(t)
	boom := errors.New("boom")

	err := locker.WithLock(context.Background(), "appointment:a2", func(ctx context.Context) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("lock:appointment:a2"))
}

func TestLocalLocker(t *testing.T) {
	calls := 0
	err := LocalLocker{}.WithLock(context.Background(), "k", func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
