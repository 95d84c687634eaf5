// Package cache provides the application-wide TTL key-value cache used for
// TMDB response caching and movie-runtime memoization.
package cache

import (
	"context"
	"time"
)

// Cache is a generic key-value store with per-entry expiry. Implementations
// must treat an expired or absent key as a miss, not an error.
type Cache interface {
	// Get returns the value for key and whether it was present and unexpired.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key for ttl. A non-positive ttl means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
