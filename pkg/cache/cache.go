// Package cache provides pluggable caching of HTTP response bodies.
//
// The traversal engine issues a large number of small GitHub API requests;
// caching file-content responses between runs keeps repeat scans cheap and
// easy on the API quota. Two durable backends are provided: a file-based
// cache for standalone CLI use and a Redis-backed cache for shared or
// scheduled deployments. A null cache disables caching entirely.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte payloads under string keys with a TTL.
//
// Implementations are not required to be goroutine-safe; the traversal is
// strictly single-threaded, so callers never access a Cache concurrently.
type Cache interface {
	// Get retrieves a value from the cache. The second return value reports
	// whether the key was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value in the cache. A ttl of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value from the cache. Deleting a missing key is not
	// an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}
