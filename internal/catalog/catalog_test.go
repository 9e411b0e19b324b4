// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package catalog_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/storefront-go/internal/api"
	"github.com/olegiv/storefront-go/internal/cache"
	"github.com/olegiv/storefront-go/internal/catalog"
	"github.com/olegiv/storefront-go/internal/model"
	"github.com/olegiv/storefront-go/internal/session"
	"github.com/olegiv/storefront-go/internal/testutil"
)

func newService(t *testing.T, backend *testutil.Backend) *catalog.Service {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	sessions, err := session.New(db, testutil.SessionSecret)
	require.NoError(t, err)

	client, err := api.New(api.Options{
		BaseURL:  backend.URL(),
		Sessions: sessions,
		Logger:   testutil.TestLoggerSilent(),
	})
	require.NoError(t, err)

	lists := cache.NewLists(cache.NewSimpleMemoryCache(5*time.Minute), testutil.TestLoggerSilent())
	return catalog.New(client, lists, 5*time.Minute, testutil.TestLoggerSilent())
}

func seedCatalog(backend *testutil.Backend) (ebook, course model.Product) {
	ebook = backend.SeedProduct(model.Product{
		Title: "Calm Guide", Category: model.CategoryEbooks, PricingModel: model.PricingFree,
	})
	course = backend.SeedProduct(model.Product{
		Title: "Calm Course", Category: model.CategoryCourses, PricingModel: model.PricingPaid, Price: 49,
	})
	return ebook, course
}

func TestProducts_ServedFromCache(t *testing.T) {
	backend := testutil.NewBackend(t)
	seedCatalog(backend)
	svc := newService(t, backend)
	ctx := context.Background()

	first, err := svc.Products(ctx)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := svc.Products(ctx)
	require.NoError(t, err)
	assert.Len(t, second, 2)

	// The second read hit the cache.
	assert.Equal(t, 1, backend.ListProductCalls)
}

func TestProductsByCategory_SharesOneCacheEntry(t *testing.T) {
	backend := testutil.NewBackend(t)
	_, course := seedCatalog(backend)
	svc := newService(t, backend)
	ctx := context.Background()

	courses, err := svc.ProductsByCategory(ctx, model.CategoryCourses)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, course.ID, courses[0].ID)

	ebooks, err := svc.ProductsByCategory(ctx, model.CategoryEbooks)
	require.NoError(t, err)
	assert.Len(t, ebooks, 1)

	all, err := svc.ProductsByCategory(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Three views, one fetch: category filtering never keys the cache.
	assert.Equal(t, 1, backend.ListProductCalls)
}

func TestProductsByCategory_UnknownCategory(t *testing.T) {
	backend := testutil.NewBackend(t)
	svc := newService(t, backend)

	_, err := svc.ProductsByCategory(context.Background(), "vinyl")
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Zero(t, backend.ListProductCalls)
}

func TestProduct_ByID(t *testing.T) {
	backend := testutil.NewBackend(t)
	ebook, _ := seedCatalog(backend)
	svc := newService(t, backend)
	ctx := context.Background()

	got, err := svc.Product(ctx, ebook.ID)
	require.NoError(t, err)
	assert.Equal(t, "Calm Guide", got.Title)

	_, err = svc.Product(ctx, "no-such-id")
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestRefresh_ForcesRefetch(t *testing.T) {
	backend := testutil.NewBackend(t)
	seedCatalog(backend)
	svc := newService(t, backend)
	ctx := context.Background()

	_, err := svc.Products(ctx)
	require.NoError(t, err)

	svc.Refresh(ctx)

	_, err = svc.Products(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.ListProductCalls)
}

func TestRenderOverview(t *testing.T) {
	html, err := catalog.RenderOverview("## What you get\n\nCalm, *daily*.")
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h2")
	assert.Contains(t, string(html), "<em>daily</em>")
}

func TestRenderOverview_StripsScripts(t *testing.T) {
	html, err := catalog.RenderOverview("hello <script>alert(1)</script> world")
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(html), "<script"))
	assert.Contains(t, string(html), "hello")
}
