// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
	"time"

	"github.com/olegiv/storefront-go/internal/store"
)

// KeyPrefix is prepended to every cache row in the local store so the
// expiry sweep never touches session keys.
const KeyPrefix = "cache:"

// LocalCache is a Cacher backed by the local persistent store. Entries
// survive restarts, mirroring the browser storage the original design
// kept its list responses in. Each row carries the timestamp it was
// stored at; expiry is judged against the cache's fixed TTL, and an
// expired row is purged on the read that finds it.
//
// The backend is fixed-TTL: a per-call TTL override is applied as the
// configured default. Storage failures degrade to "always miss" rather
// than surfacing errors to callers.
type LocalCache struct {
	queries *store.Queries
	ttl     time.Duration
	closed  atomic.Bool

	// Statistics
	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
}

// NewLocalCache creates a cache over the given database with a fixed TTL.
func NewLocalCache(db *sql.DB, ttl time.Duration) *LocalCache {
	return &LocalCache{
		queries: store.New(db),
		ttl:     ttl,
	}
}

// Get retrieves a value, purging and missing on any entry at or past its TTL.
func (c *LocalCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrCacheClosed
	}

	entry, err := c.queries.GetKVEntry(ctx, KeyPrefix+key)
	if err != nil {
		// Missing row and broken storage both read as a miss.
		c.misses.Add(1)
		return nil, ErrCacheMiss
	}

	if age := time.Since(entry.StoredAt); age >= c.ttl {
		_ = c.queries.DeleteKVEntry(ctx, KeyPrefix+key)
		c.misses.Add(1)
		return nil, ErrCacheMiss
	}

	c.hits.Add(1)
	return entry.Value, nil
}

// Set overwrites unconditionally, stamping the current time.
func (c *LocalCache) Set(ctx context.Context, key string, value []byte, _ time.Duration) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}

	err := c.queries.SetKVEntry(ctx, store.SetKVEntryParams{
		Key:      KeyPrefix + key,
		Value:    value,
		StoredAt: time.Now().UTC(),
	})
	if err != nil {
		// A failed write is not fatal: the next read is a miss.
		return nil
	}
	c.sets.Add(1)
	return nil
}

// Delete removes a key from the cache.
func (c *LocalCache) Delete(ctx context.Context, key string) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	return c.queries.DeleteKVEntry(ctx, KeyPrefix+key)
}

// Clear removes all cache rows (session keys are untouched).
func (c *LocalCache) Clear(ctx context.Context) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	_, err := c.queries.DeleteKVEntriesByPrefix(ctx, KeyPrefix)
	return err
}

// Has checks if a key exists and is not expired.
func (c *LocalCache) Has(ctx context.Context, key string) (bool, error) {
	if c.closed.Load() {
		return false, ErrCacheClosed
	}

	entry, err := c.queries.GetKVEntry(ctx, KeyPrefix+key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, nil
	}
	if time.Since(entry.StoredAt) >= c.ttl {
		_ = c.queries.DeleteKVEntry(ctx, KeyPrefix+key)
		return false, nil
	}
	return true, nil
}

// Close marks the cache closed. The database is owned by the caller.
func (c *LocalCache) Close() error {
	c.closed.Store(true)
	return nil
}

// Stats returns current cache statistics.
func (c *LocalCache) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	total := hits + misses

	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	return Stats{
		Hits:    hits,
		Misses:  misses,
		Sets:    c.sets.Load(),
		HitRate: hitRate,
	}
}

// ResetStats resets the cache statistics.
func (c *LocalCache) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.sets.Store(0)
}

// SweepExpired removes all cache rows older than the TTL. The scheduler
// runs this periodically so dead payloads do not accumulate on disk.
func (c *LocalCache) SweepExpired(ctx context.Context) (int64, error) {
	if c.closed.Load() {
		return 0, ErrCacheClosed
	}
	return c.queries.DeleteKVEntriesBefore(ctx, KeyPrefix, time.Now().UTC().Add(-c.ttl))
}

var (
	_ Cacher        = (*LocalCache)(nil)
	_ StatsProvider = (*LocalCache)(nil)
)
