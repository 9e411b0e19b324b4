// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/olegiv/storefront-go/internal/model"
	"github.com/olegiv/storefront-go/internal/store"
	"github.com/olegiv/storefront-go/internal/testutil"
)

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func TestEventLogHandler_ErrorLevel(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))
	logger.Error("capture failed after provider approval", "provider_order_id", "PROV-1")

	events, err := store.New(db).ListRecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	e := events[0]
	if e.Level != model.EventLevelError {
		t.Errorf("level = %q, want %q", e.Level, model.EventLevelError)
	}
	if e.Category != model.EventCategoryCheckout {
		t.Errorf("category = %q, want %q", e.Category, model.EventCategoryCheckout)
	}
	if e.Message != "capture failed after provider approval" {
		t.Errorf("message = %q", e.Message)
	}
}

func TestEventLogHandler_InfoNotPersisted(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))
	logger.Info("fetching product list")

	events, err := store.New(db).ListRecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("got %d events, want 0", len(events))
	}
}

func TestEventLogHandler_ExplicitCategory(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))
	logger.Warn("something odd", "category", model.EventCategoryCache, "key", "products")

	events, err := store.New(db).ListRecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Category != model.EventCategoryCache {
		t.Errorf("category = %q, want %q", events[0].Category, model.EventCategoryCache)
	}
	// The category attribute is lifted out of metadata.
	if events[0].Metadata != `{"key":"products"}` {
		t.Errorf("metadata = %q", events[0].Metadata)
	}
}

func TestEventLogHandler_CategoryInference(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"login failed", model.EventCategoryAuth},
		{"session unsealing failed", model.EventCategoryAuth},
		{"product sync stalled", model.EventCategoryCatalog},
		{"payment widget error", model.EventCategoryCheckout},
		{"cache invalidation failed", model.EventCategoryCache},
		{"scheduler stopped", model.EventCategorySystem},
	}

	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))
	for _, tt := range tests {
		logger.Warn(tt.message)
	}

	events, err := store.New(db).ListRecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != len(tests) {
		t.Fatalf("got %d events, want %d", len(events), len(tests))
	}
	byMessage := make(map[string]string, len(events))
	for _, e := range events {
		byMessage[e.Message] = e.Category
	}
	for _, tt := range tests {
		if byMessage[tt.message] != tt.want {
			t.Errorf("category for %q = %q, want %q", tt.message, byMessage[tt.message], tt.want)
		}
	}
}

func TestEscapeJSON(t *testing.T) {
	if got := escapeJSON(`a "quoted"` + "\n" + `\path`); got != `a \"quoted\"\n\\path` {
		t.Errorf("escapeJSON() = %q", got)
	}
}
