// Package cache provides a TTL key-value store used to cache aggregate and
// per-source fetch results, plus in-flight request coalescing so concurrent
// callers asking for the same key share one fetch.
package cache

import (
	"context"
	"time"
)

// Store is a TTL key-value store. Implementations must be safe for
// concurrent use by overlapping fetch tasks.
type Store[V any] interface {
	// Get returns the value for key, or false if absent or expired.
	Get(ctx context.Context, key string) (V, bool)
	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value V, ttl time.Duration)
	// Has reports whether key holds an unexpired entry.
	Has(ctx context.Context, key string) bool
	// Delete removes key.
	Delete(ctx context.Context, key string)
	// Clear removes all entries.
	Clear(ctx context.Context)
}
