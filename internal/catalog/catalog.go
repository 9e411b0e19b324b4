// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package catalog serves the public product views: the cached product
// list, category filtering and rendered product overviews.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/olegiv/storefront-go/internal/api"
	"github.com/olegiv/storefront-go/internal/cache"
	"github.com/olegiv/storefront-go/internal/model"
)

// htmlSanitizer strips dangerous markup from rendered overviews. The
// overview is authored by the store admin but still travels through the
// backend, so it is treated as user-generated content.
var htmlSanitizer = bluemonday.UGCPolicy()

// ErrProductNotFound is returned when an id is absent from the catalog.
var ErrProductNotFound = errors.New("product not found")

// Service reads the catalog through the shared product cache key. All
// category views share one cached payload; filtering is applied on read.
type Service struct {
	client   *api.Client
	products *cache.TypedCache[[]model.Product]
	lists    *cache.Lists
	logger   *slog.Logger
}

// New creates a catalog service over the backend client and list cache.
func New(client *api.Client, lists *cache.Lists, ttl time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:   client,
		products: cache.NewTypedCache[[]model.Product](lists.Cache(), ttl),
		lists:    lists,
		logger:   logger,
	}
}

// Products returns the full product list, served from cache when fresh.
func (s *Service) Products(ctx context.Context) ([]model.Product, error) {
	list, err := s.products.GetOrSet(ctx, cache.KeyProducts, func() (*[]model.Product, error) {
		s.logger.Debug("fetching product list", "category", "catalog")
		fetched, err := s.client.ListProducts(ctx)
		if err != nil {
			return nil, err
		}
		return &fetched, nil
	})
	if err != nil {
		return nil, err
	}
	return *list, nil
}

// ProductsByCategory returns the products in one category, filtered
// from the shared cached list. An empty category returns everything.
func (s *Service) ProductsByCategory(ctx context.Context, category string) ([]model.Product, error) {
	if category != "" && !model.IsValidCategory(category) {
		return nil, fmt.Errorf("%w: unknown category %q", model.ErrValidation, category)
	}
	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	return model.FilterByCategory(products, category), nil
}

// Product returns a single product by id, resolved from the cached list.
func (s *Service) Product(ctx context.Context, id string) (model.Product, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return model.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Product{}, fmt.Errorf("product %q: %w", id, ErrProductNotFound)
}

// Refresh evicts the cached product list. The next read refetches.
func (s *Service) Refresh(ctx context.Context) {
	s.lists.InvalidateProducts(ctx)
}

// RenderOverview converts a product's markdown overview to sanitized
// HTML for display.
func RenderOverview(overview string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(overview), &buf); err != nil {
		return "", fmt.Errorf("rendering overview: %w", err)
	}
	return template.HTML(htmlSanitizer.SanitizeBytes(buf.Bytes())), nil //nolint:gosec // sanitized above
}
