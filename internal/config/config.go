// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	BackendURL    string `env:"STOREFRONT_BACKEND_URL" envDefault:"http://localhost:5000"`
	StorePath     string `env:"STOREFRONT_STORE_PATH" envDefault:"./data/storefront.db"`
	SessionSecret string `env:"STOREFRONT_SESSION_SECRET,required"`
	Env           string `env:"STOREFRONT_ENV" envDefault:"development"`
	LogLevel      string `env:"STOREFRONT_LOG_LEVEL" envDefault:"info"`

	// Cache configuration
	CacheBackend string `env:"STOREFRONT_CACHE_BACKEND" envDefault:"local"` // local, memory or redis
	RedisURL     string `env:"STOREFRONT_REDIS_URL"`                        // Required for the redis backend
	CachePrefix  string `env:"STOREFRONT_CACHE_PREFIX" envDefault:"storefront:"`
	CacheTTL     int    `env:"STOREFRONT_CACHE_TTL" envDefault:"300"` // List cache TTL in seconds

	// Backend client configuration
	RequestTimeout int     `env:"STOREFRONT_REQUEST_TIMEOUT" envDefault:"30"` // Seconds
	RateLimit      float64 `env:"STOREFRONT_RATE_LIMIT" envDefault:"10"`      // Requests per second to the backend
	RateBurst      int     `env:"STOREFRONT_RATE_BURST" envDefault:"20"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// CacheTTLDuration returns the list cache TTL as a duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// RequestTimeoutDuration returns the backend request timeout as a duration.
func (c Config) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// UseRedisCache returns true if the Redis cache backend is selected.
func (c Config) UseRedisCache() bool {
	return c.CacheBackend == "redis" && c.RedisURL != ""
}

// MinSessionSecretLength is the minimum required length for the session
// secret. The token sealer needs a 32-byte key.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Validate session secret length
	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("STOREFRONT_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	// Reject known weak/default secrets
	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("STOREFRONT_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("STOREFRONT_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	switch cfg.CacheBackend {
	case "local", "memory":
	case "redis":
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("STOREFRONT_CACHE_BACKEND=redis requires STOREFRONT_REDIS_URL")
		}
	default:
		return nil, fmt.Errorf("unknown cache backend %q (use local, memory or redis)", cfg.CacheBackend)
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
