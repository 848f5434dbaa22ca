// Package cache provides the single-key cache collaborators used for
// short-term state: the rolling conversation context and session lookups.
package cache

import (
	"context"
	"time"
)

// Cache is a single-key get/set store with per-entry TTL. Implementations
// provide their own atomicity for individual operations; callers never rely
// on atomicity across two calls.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// exists and has not expired.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value with the given TTL. A non-positive TTL falls back
	// to the implementation default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}
