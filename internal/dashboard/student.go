// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package dashboard

import (
	"context"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/olegiv/storefront-go/internal/api"
	"github.com/olegiv/storefront-go/internal/cache"
	"github.com/olegiv/storefront-go/internal/model"
	"github.com/olegiv/storefront-go/internal/util"
)

// Student serves the student dashboard: the caller's own orders and
// account operations. The backend scopes /api/orders by the bearer
// token, so the same cache key holds different payloads per login;
// logout invalidation keeps them from leaking across identities.
type Student struct {
	client *api.Client
	lists  *cache.Lists
	orders *cache.TypedCache[[]model.Order]
	logger *slog.Logger
}

// NewStudent creates the student dashboard service.
func NewStudent(client *api.Client, lists *cache.Lists, ttl time.Duration, logger *slog.Logger) *Student {
	if logger == nil {
		logger = slog.Default()
	}
	return &Student{
		client: client,
		lists:  lists,
		orders: cache.NewTypedCache[[]model.Order](lists.Cache(), ttl),
		logger: logger,
	}
}

// Orders returns the caller's orders, served from cache when fresh.
func (s *Student) Orders(ctx context.Context) ([]model.Order, error) {
	orders, err := s.orders.GetOrSet(ctx, cache.KeyOrders, func() (*[]model.Order, error) {
		s.logger.Debug("fetching order list", "category", "catalog")
		fetched, err := s.client.ListOrders(ctx)
		if err != nil {
			return nil, err
		}
		return &fetched, nil
	})
	if err != nil {
		return nil, err
	}
	return *orders, nil
}

// Downloadable filters the orders down to those conferring download
// access.
func Downloadable(orders []model.Order) []model.Order {
	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if o.DownloadAccess && o.Product.FileURL != "" {
			out = append(out, o)
		}
	}
	return out
}

// DownloadFilename derives a local filename for an order's product
// file: the slugified product title plus the file's own extension.
func DownloadFilename(o model.Order) string {
	slug := util.Slugify(o.Product.Title)
	if slug == "" {
		slug = "download"
	}
	ext := strings.ToLower(path.Ext(o.Product.FileURL))
	return slug + ext
}

// ChangePassword updates the logged-in account's password.
func (s *Student) ChangePassword(ctx context.Context, current, next string) (string, error) {
	msg, err := s.client.ChangePassword(ctx, current, next)
	if err != nil {
		return "", err
	}
	s.logger.Info("password changed", "category", "auth")
	return msg, nil
}

// Logout clears the session and evicts every cached list so the next
// identity starts from a cold cache.
func (s *Student) Logout(ctx context.Context) error {
	if err := s.client.Logout(ctx); err != nil {
		return err
	}
	s.lists.InvalidateAll(ctx)
	s.logger.Info("logged out", "category", "auth")
	return nil
}
