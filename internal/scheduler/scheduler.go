// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic maintenance jobs of the local
// store: sweeping expired cache rows and pruning old event log entries.
package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/storefront-go/internal/store"
)

// EventRetention is how long event log entries are kept.
const EventRetention = 30 * 24 * time.Hour

// Sweeper removes expired entries from a cache backend. Only the
// store-backed cache needs sweeping; memory and Redis backends expire
// entries on their own.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// Scheduler handles the periodic maintenance jobs.
type Scheduler struct {
	db      *sql.DB
	sweeper Sweeper // may be nil
	cron    *cron.Cron
	logger  *slog.Logger
}

// New creates a new scheduler instance. A nil sweeper skips the cache
// sweep job.
func New(db *sql.DB, sweeper Sweeper, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		db:      db,
		sweeper: sweeper,
		cron:    cron.New(),
		logger:  logger,
	}
}

// Start begins the scheduler: the cache sweep runs every minute, the
// event log prune once a day.
func (s *Scheduler) Start() error {
	if s.sweeper != nil {
		_, err := s.cron.AddFunc("* * * * *", func() {
			if err := s.sweepCache(); err != nil {
				s.logger.Error("cache sweep failed", "category", "cache", "error", err)
			}
		})
		if err != nil {
			return err
		}
	}

	_, err := s.cron.AddFunc("30 3 * * *", func() {
		if err := s.pruneEvents(); err != nil {
			s.logger.Error("event log prune failed", "category", "system", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// sweepCache removes expired cache rows from the local store.
func (s *Scheduler) sweepCache() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.sweeper.SweepExpired(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.logger.Debug("swept expired cache entries", "category", "cache", "removed", removed)
	}
	return nil
}

// pruneEvents removes event log entries past the retention window.
func (s *Scheduler) pruneEvents() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().UTC().Add(-EventRetention)
	removed, err := store.New(s.db).DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.logger.Info("pruned event log", "category", "system", "removed", removed, "cutoff", cutoff)
	}
	return nil
}
