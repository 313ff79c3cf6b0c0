package service

import (
	"context"
	"fmt"
	"time"

	"quotedesk/internal/kvstore"
)

// RateLimiter counts events per identity key inside fixed time-window
// buckets backed by the key-value store. The counter for a window is
// created with the window's remaining TTL so it self-expires; increments
// are atomic per key, so concurrent submitters sharing a key cannot slip
// past the limit through lost updates.
type RateLimiter struct {
	store kvstore.Store
	now   func() time.Time
}

func NewRateLimiter(store kvstore.Store) *RateLimiter {
	return &RateLimiter{store: store, now: time.Now}
}

// Allow increments the counter for key in the current window and reports
// whether the count is still within max. A denied call does not decrement;
// the window simply has to expire.
func (l *RateLimiter) Allow(ctx context.Context, key string, window time.Duration, max int64) (bool, error) {
	if window <= 0 || max <= 0 {
		return true, nil
	}
	windowSecs := int64(window / time.Second)
	if windowSecs <= 0 {
		windowSecs = 1
	}
	nowUnix := l.now().Unix()
	bucket := nowUnix / windowSecs
	remaining := time.Duration(windowSecs-nowUnix%windowSecs) * time.Second

	counterKey := fmt.Sprintf("ratelimit:%s:%d", key, bucket)
	count, err := l.store.Incr(ctx, counterKey, remaining)
	if err != nil {
		return false, err
	}
	return count <= max, nil
}
