package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quotedesk/internal/kvstore"
)

func TestRateLimiterAllowWithinWindow(t *testing.T) {
	limiter := NewRateLimiter(kvstore.NewMemoryStore())
	limiter.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "ip:1.2.3.4", 10*time.Minute, 3)
		require.NoError(t, err)
		require.True(t, ok, "call %d should be allowed", i)
	}
	ok, err := limiter.Allow(ctx, "ip:1.2.3.4", 10*time.Minute, 3)
	require.NoError(t, err)
	require.False(t, ok)

	// A different key is an independent limit.
	ok, err = limiter.Allow(ctx, "ip:5.6.7.8", 10*time.Minute, 3)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRateLimiterConcurrentCallersNoLostUpdates(t *testing.T) {
	limiter := NewRateLimiter(kvstore.NewMemoryStore())
	limiter.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	ctx := context.Background()

	const callers = 40
	const max = 5

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := limiter.Allow(ctx, "shared", time.Minute, max)
			require.NoError(t, err)
			if ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int64(max), allowed.Load())
}

func TestRateLimiterNewWindowResetsCount(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	limiter := NewRateLimiter(kvstore.NewMemoryStore())
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	ok, err := limiter.Allow(ctx, "k", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = limiter.Allow(ctx, "k", time.Minute, 1)
	require.NoError(t, err)
	require.False(t, ok)

	now = now.Add(2 * time.Minute)
	ok, err = limiter.Allow(ctx, "k", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, ok)
}
