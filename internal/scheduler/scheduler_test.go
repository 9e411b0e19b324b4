// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/olegiv/storefront-go/internal/store"
	"github.com/olegiv/storefront-go/internal/testutil"
)

type fakeSweeper struct {
	calls   int
	removed int64
}

func (f *fakeSweeper) SweepExpired(context.Context) (int64, error) {
	f.calls++
	return f.removed, nil
}

func TestStartStop(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	s := New(db, &fakeSweeper{}, testutil.TestLoggerSilent())
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := len(s.cron.Entries()); got != 2 {
		t.Errorf("registered %d jobs, want 2", got)
	}
	s.Stop()
}

func TestStart_NilSweeperSkipsSweepJob(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	s := New(db, nil, testutil.TestLoggerSilent())
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := len(s.cron.Entries()); got != 1 {
		t.Errorf("registered %d jobs, want 1", got)
	}
	s.Stop()
}

func TestSweepCache(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	sweeper := &fakeSweeper{removed: 3}
	s := New(db, sweeper, testutil.TestLoggerSilent())
	if err := s.sweepCache(); err != nil {
		t.Fatalf("sweepCache: %v", err)
	}
	if sweeper.calls != 1 {
		t.Errorf("sweeper calls = %d, want 1", sweeper.calls)
	}
}

func TestPruneEvents(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	q := store.New(db)
	ctx := context.Background()

	old := store.CreateEventParams{
		Level: "warning", Category: "system", Message: "stale", Metadata: "{}",
		CreatedAt: time.Now().UTC().Add(-EventRetention - time.Hour),
	}
	fresh := store.CreateEventParams{
		Level: "warning", Category: "system", Message: "recent", Metadata: "{}",
		CreatedAt: time.Now().UTC(),
	}
	if _, err := q.CreateEvent(ctx, old); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if _, err := q.CreateEvent(ctx, fresh); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	s := New(db, nil, testutil.TestLoggerSilent())
	if err := s.pruneEvents(); err != nil {
		t.Fatalf("pruneEvents: %v", err)
	}

	events, err := q.ListRecentEvents(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Message != "recent" {
		t.Errorf("surviving event = %q, want recent", events[0].Message)
	}
}
