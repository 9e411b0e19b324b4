// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package dashboard provides the authenticated views: the admin's
// management surface over products, orders and analytics, and the
// student's purchase list.
package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/olegiv/storefront-go/internal/api"
	"github.com/olegiv/storefront-go/internal/cache"
	"github.com/olegiv/storefront-go/internal/model"
)

// AdminData is one consistent load of the admin dashboard.
type AdminData struct {
	Products  []model.Product
	Orders    []model.Order
	Analytics model.Analytics
}

// Admin serves the admin dashboard. Reads go through the shared list
// keys; every mutation invalidates before the next read refetches.
type Admin struct {
	client    *api.Client
	lists     *cache.Lists
	products  *cache.TypedCache[[]model.Product]
	orders    *cache.TypedCache[[]model.Order]
	analytics *cache.TypedCache[model.Analytics]
	logger    *slog.Logger
}

// NewAdmin creates the admin dashboard service.
func NewAdmin(client *api.Client, lists *cache.Lists, ttl time.Duration, logger *slog.Logger) *Admin {
	if logger == nil {
		logger = slog.Default()
	}
	backend := lists.Cache()
	return &Admin{
		client:    client,
		lists:     lists,
		products:  cache.NewTypedCache[[]model.Product](backend, ttl),
		orders:    cache.NewTypedCache[[]model.Order](backend, ttl),
		analytics: cache.NewTypedCache[model.Analytics](backend, ttl),
		logger:    logger,
	}
}

// Load fetches the three dashboard sections in parallel. Each section
// is served from its own cache key; a failure in any section fails the
// load as a whole so the dashboard never renders half-stale.
func (a *Admin) Load(ctx context.Context) (AdminData, error) {
	var (
		wg   sync.WaitGroup
		data AdminData

		errMu sync.Mutex
		first error
	)
	fail := func(err error) {
		errMu.Lock()
		if first == nil {
			first = err
		}
		errMu.Unlock()
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		products, err := a.products.GetOrSet(ctx, cache.KeyProducts, func() (*[]model.Product, error) {
			fetched, err := a.client.ListProducts(ctx)
			if err != nil {
				return nil, err
			}
			return &fetched, nil
		})
		if err != nil {
			fail(err)
			return
		}
		data.Products = *products
	}()
	go func() {
		defer wg.Done()
		orders, err := a.orders.GetOrSet(ctx, cache.KeyOrders, func() (*[]model.Order, error) {
			fetched, err := a.client.ListOrders(ctx)
			if err != nil {
				return nil, err
			}
			return &fetched, nil
		})
		if err != nil {
			fail(err)
			return
		}
		data.Orders = *orders
	}()
	go func() {
		defer wg.Done()
		analytics, err := a.analytics.GetOrSet(ctx, cache.KeyAnalytics, func() (*model.Analytics, error) {
			fetched, err := a.client.OrderAnalytics(ctx)
			if err != nil {
				return nil, err
			}
			return &fetched, nil
		})
		if err != nil {
			fail(err)
			return
		}
		data.Analytics = *analytics
	}()
	wg.Wait()

	if first != nil {
		return AdminData{}, first
	}
	return data, nil
}

// CreateProduct submits a new product and evicts the shared product
// list so every catalog and dashboard view refetches.
func (a *Admin) CreateProduct(ctx context.Context, form *model.ProductForm) (model.Product, error) {
	product, err := a.client.CreateProduct(ctx, form)
	if err != nil {
		return model.Product{}, err
	}
	a.lists.InvalidateProducts(ctx)
	a.logger.Info("product created", "category", "catalog", "product_id", product.ID, "title", product.Title)
	return product, nil
}

// UpdateProduct updates a product and evicts the shared product list.
func (a *Admin) UpdateProduct(ctx context.Context, id string, form *model.ProductForm) (model.Product, error) {
	product, err := a.client.UpdateProduct(ctx, id, form)
	if err != nil {
		return model.Product{}, err
	}
	a.lists.InvalidateProducts(ctx)
	a.logger.Info("product updated", "category", "catalog", "product_id", id)
	return product, nil
}

// DeleteProduct removes a product and evicts the shared product list.
func (a *Admin) DeleteProduct(ctx context.Context, id string) error {
	if err := a.client.DeleteProduct(ctx, id); err != nil {
		return err
	}
	a.lists.InvalidateProducts(ctx)
	a.logger.Info("product deleted", "category", "catalog", "product_id", id)
	return nil
}
