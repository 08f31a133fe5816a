package chat

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/mvp-o-meter/internal/analysis"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func newRedisBudget(client *redis.Client, limit int, window time.Duration, now time.Time) *RedisBudget {
	b := NewRedisBudget(client, limit, window, slog.New(slog.NewTextHandler(io.Discard, nil)))
	b.now = func() time.Time { return now }
	return b
}

func TestRedisBudget_EnforcesLimit(t *testing.T) {
	_, client := newMiniredis(t)
	ctx := context.Background()
	b := newRedisBudget(client, 3, time.Hour, time.Unix(36000, 0))

	assert.Equal(t, 3, b.Remaining(ctx))

	assert.True(t, b.Acquire(ctx))
	assert.True(t, b.Acquire(ctx))
	assert.Equal(t, 1, b.Remaining(ctx))

	assert.True(t, b.Acquire(ctx))
	assert.False(t, b.Acquire(ctx))
	assert.False(t, b.Acquire(ctx))
	assert.Equal(t, 0, b.Remaining(ctx))
}

func TestRedisBudget_KeyExpiresWithWindow(t *testing.T) {
	mr, client := newMiniredis(t)
	b := newRedisBudget(client, 3, time.Hour, time.Unix(36000, 0))

	require.True(t, b.Acquire(context.Background()))
	assert.Equal(t, time.Hour, mr.TTL(b.key()))
}

func TestRedisBudget_NewWindowResets(t *testing.T) {
	_, client := newMiniredis(t)
	ctx := context.Background()
	start := time.Unix(36000, 0)
	b := newRedisBudget(client, 2, time.Hour, start)

	assert.True(t, b.Acquire(ctx))
	assert.True(t, b.Acquire(ctx))
	assert.False(t, b.Acquire(ctx))

	b.now = func() time.Time { return start.Add(time.Hour) }
	assert.Equal(t, 2, b.Remaining(ctx))
	assert.True(t, b.Acquire(ctx))
}

func TestRedisBudget_SharedAcrossReplicas(t *testing.T) {
	_, client := newMiniredis(t)
	now := time.Unix(36000, 0)
	replicas := []*RedisBudget{
		newRedisBudget(client, 10, time.Hour, now),
		newRedisBudget(client, 10, time.Hour, now),
	}

	var granted int64
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(b *RedisBudget) {
			defer wg.Done()
			if b.Acquire(context.Background()) {
				atomic.AddInt64(&granted, 1)
			}
		}(replicas[i%len(replicas)])
	}
	wg.Wait()

	assert.Equal(t, int64(10), granted)
	assert.Equal(t, 0, replicas[0].Remaining(context.Background()))
}

func TestRedisBudget_FallsBackWhenRedisIsDown(t *testing.T) {
	mr, client := newMiniredis(t)
	ctx := context.Background()
	b := newRedisBudget(client, 2, time.Hour, time.Unix(36000, 0))

	require.True(t, b.Acquire(ctx))
	mr.Close()

	assert.Equal(t, 2, b.Remaining(ctx))
	assert.True(t, b.Acquire(ctx))
	assert.True(t, b.Acquire(ctx))
	assert.False(t, b.Acquire(ctx))
	assert.Equal(t, 0, b.Remaining(ctx))
}

func TestRedisSessionStore_RoundTrip(t *testing.T) {
	_, client := newMiniredis(t)
	ctx := context.Background()
	store := NewRedisSessionStore(client, time.Minute)

	_, ok, err := store.Load(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, ok)

	profile := analysis.Profile{"wins": 14, "interceptions": 4.5}
	require.NoError(t, store.Save(ctx, "s1", profile))

	got, ok, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, profile, got)

	_, ok, err = store.Load(ctx, "s2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisSessionStore_LoadRefreshesTTL(t *testing.T) {
	mr, client := newMiniredis(t)
	ctx := context.Background()
	store := NewRedisSessionStore(client, time.Minute)

	require.NoError(t, store.Save(ctx, "s1", analysis.Profile{"wins": 12}))
	assert.Equal(t, time.Minute, mr.TTL(sessionKey("s1")))

	mr.FastForward(40 * time.Second)
	assert.Equal(t, 20*time.Second, mr.TTL(sessionKey("s1")))

	_, ok, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Minute, mr.TTL(sessionKey("s1")))

	mr.FastForward(2 * time.Minute)
	_, ok, err = store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisSessionStore_DefaultSession(t *testing.T) {
	mr, client := newMiniredis(t)
	ctx := context.Background()
	store := NewRedisSessionStore(client, time.Minute)

	require.NoError(t, store.Save(ctx, "", analysis.Profile{"sacks": 20}))
	assert.True(t, mr.Exists("chat:session:"+DefaultSessionID))

	got, ok, err := store.Load(ctx, "")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 20.0, got["sacks"])
}

func TestRedisSessionStore_Unavailable(t *testing.T) {
	mr, client := newMiniredis(t)
	store := NewRedisSessionStore(client, time.Minute)
	mr.Close()

	_, _, err := store.Load(context.Background(), "s1")
	assert.Error(t, err)
	assert.Error(t, store.Save(context.Background(), "s1", analysis.Profile{"wins": 1}))
}
