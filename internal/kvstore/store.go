package kvstore

import (
	"context"
	"errors"
	"time"
)

var ErrKeyNotFound = errors.New("kvstore: key not found")

// Store is the shared state backend for rate-limit counters, verification
// tokens, the triage analysis cache and the intake audit log. It is the
// single source of truth under concurrent access from multiple handler
// instances; implementations must make Incr and SetNX atomic per key.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX stores the value only when the key is absent. Returns true when
	// this call created the key.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Incr atomically increments a counter, creating it with the given TTL
	// on first use. The TTL is not refreshed on later increments, so the
	// counter self-expires at the end of its window.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// TTL reports the remaining lifetime of a key, ErrKeyNotFound when the
	// key is absent or expired.
	TTL(ctx context.Context, key string) (time.Duration, error)
	Delete(ctx context.Context, key string) error
	// PushTrim prepends a value to a list, trims it to maxLen entries and
	// refreshes the list TTL. Backs the bounded append log.
	PushTrim(ctx context.Context, key, value string, maxLen int64, ttl time.Duration) error
	// ListRange returns list entries [start, stop], newest first.
	ListRange(ctx context.Context, key string, start, stop int64) ([]string, error)
}
