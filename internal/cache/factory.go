package cache

import (
	"database/sql"
	"fmt"
	"time"
)

// Config holds configuration for cache creation.
type Config struct {
	// Backend is the cache backend type: "local", "memory" or "redis"
	Backend string

	// RedisURL is the Redis connection URL (only for the redis backend)
	RedisURL string

	// Prefix is the key prefix for Redis (only for the redis backend)
	Prefix string

	// DefaultTTL is the default TTL for cache entries
	DefaultTTL time.Duration

	// MaxSize is the maximum number of entries for the memory backend (0 = unlimited)
	MaxSize int

	// CleanupInterval is the interval for expired entry cleanup
	CleanupInterval time.Duration
}

// DefaultConfig returns default cache configuration: the local
// persistent backend with the storefront's five-minute list TTL.
func DefaultConfig() Config {
	return Config{
		Backend:         "local",
		DefaultTTL:      5 * time.Minute,
		MaxSize:         10000,
		CleanupInterval: time.Minute,
	}
}

// New creates a cache based on the provided configuration. The local
// backend needs the store database; memory and redis ignore it.
func New(cfg Config, db *sql.DB) (Cacher, error) {
	switch cfg.Backend {
	case "redis":
		return NewRedisCacheFromURL(cfg.RedisURL, cfg.Prefix, cfg.DefaultTTL)
	case "memory":
		return NewMemoryCache(MemoryCacheOptions{
			DefaultTTL:      cfg.DefaultTTL,
			MaxSize:         cfg.MaxSize,
			CleanupInterval: cfg.CleanupInterval,
		}), nil
	case "local", "":
		if db == nil {
			return nil, fmt.Errorf("local cache backend requires a store database")
		}
		return NewLocalCache(db, cfg.DefaultTTL), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
