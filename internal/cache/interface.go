// Package cache provides the time-boxed response cache fronting the
// backend's read-mostly list endpoints.
package cache

import (
	"context"
	"time"
)

// Cacher defines the interface for cache implementations.
// All implementations must be thread-safe.
// This interface uses []byte for values to support the in-memory, local
// store and Redis backends uniformly.
type Cacher interface {
	// Get retrieves a value from the cache.
	// Returns the value and nil error if found.
	// Returns nil and ErrCacheMiss if not found or expired. An entry
	// whose age has reached its TTL is expired: age == TTL is a miss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with the specified TTL.
	// If TTL is 0, uses the default TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key from the cache.
	Delete(ctx context.Context, key string) error

	// Clear removes all entries from the cache.
	Clear(ctx context.Context) error

	// Has checks if a key exists in the cache (and is not expired).
	Has(ctx context.Context, key string) (bool, error)

	// Close releases any resources held by the cache.
	Close() error
}

// StatsProvider is an optional interface for caches that provide statistics.
type StatsProvider interface {
	Stats() Stats
	ResetStats()
}

// Stats holds cache statistics.
type Stats struct {
	Hits    int64
	Misses  int64
	Sets    int64
	Items   int
	HitRate float64
	Size    int64
}

// Error represents an error type for cache operations.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// ErrCacheMiss indicates the key was not found in cache or has expired.
	ErrCacheMiss Error = "cache miss"

	// ErrCacheClosed indicates the cache has been closed.
	ErrCacheClosed Error = "cache closed"
)
