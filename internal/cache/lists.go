// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"log/slog"
)

// Fixed keys, one per list view. Keys are deliberately NOT parameterized
// by filter or category: every variant of a list shares one cached
// payload and filtering happens downstream over the full set.
const (
	KeyProducts  = "products"
	KeyOrders    = "orders"
	KeyAnalytics = "analytics"
)

// Lists owns the fixed list keys and the invalidation sets tied to
// mutations. Both the public catalog and the admin dashboard read
// KeyProducts, so a product mutation invalidates them together.
type Lists struct {
	cache  Cacher
	logger *slog.Logger
}

// NewLists creates the list-key registry over a cache backend.
func NewLists(cache Cacher, logger *slog.Logger) *Lists {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lists{cache: cache, logger: logger}
}

// Cache exposes the underlying backend for typed wrappers.
func (l *Lists) Cache() Cacher { return l.cache }

// InvalidateProducts evicts the shared product list after any product
// create, update or delete, so every reader refetches.
func (l *Lists) InvalidateProducts(ctx context.Context) {
	l.invalidate(ctx, KeyProducts)
}

// InvalidateOrders evicts the order list and the analytics summary.
// Called after a settled checkout so dashboards reflect the new order.
func (l *Lists) InvalidateOrders(ctx context.Context) {
	l.invalidate(ctx, KeyOrders)
	l.invalidate(ctx, KeyAnalytics)
}

// InvalidateAll evicts every list key. Used on logout: the next session
// must not see lists scoped to the previous identity.
func (l *Lists) InvalidateAll(ctx context.Context) {
	l.invalidate(ctx, KeyProducts)
	l.invalidate(ctx, KeyOrders)
	l.invalidate(ctx, KeyAnalytics)
}

func (l *Lists) invalidate(ctx context.Context, key string) {
	if err := l.cache.Delete(ctx, key); err != nil {
		// Eviction failure must not block the caller; the entry will
		// age out at its TTL.
		l.logger.Warn("cache invalidation failed", "category", "cache", "key", key, "error", err)
	}
}
