// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/storefront-go/internal/model"
)

// DBTX is the subset of *sql.DB / *sql.Tx the queries need.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries wraps database access for the local store.
type Queries struct {
	db DBTX
}

// New creates a Queries instance bound to the given database or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries instance bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// KVEntry is one persisted key-value row with its storage timestamp.
type KVEntry struct {
	Key      string
	Value    []byte
	StoredAt time.Time
}

const getKVEntry = `
SELECT key, value, stored_at FROM kv_entries WHERE key = ?
`

// GetKVEntry returns the entry for key, or sql.ErrNoRows if absent.
func (q *Queries) GetKVEntry(ctx context.Context, key string) (KVEntry, error) {
	row := q.db.QueryRowContext(ctx, getKVEntry, key)
	var e KVEntry
	err := row.Scan(&e.Key, &e.Value, &e.StoredAt)
	return e, err
}

const setKVEntry = `
INSERT INTO kv_entries (key, value, stored_at) VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, stored_at = excluded.stored_at
`

// SetKVEntryParams holds the parameters for SetKVEntry.
type SetKVEntryParams struct {
	Key      string
	Value    []byte
	StoredAt time.Time
}

// SetKVEntry stores or overwrites an entry unconditionally.
func (q *Queries) SetKVEntry(ctx context.Context, arg SetKVEntryParams) error {
	_, err := q.db.ExecContext(ctx, setKVEntry, arg.Key, arg.Value, arg.StoredAt)
	return err
}

const deleteKVEntry = `
DELETE FROM kv_entries WHERE key = ?
`

// DeleteKVEntry removes an entry. Deleting a missing key is not an error.
func (q *Queries) DeleteKVEntry(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, deleteKVEntry, key)
	return err
}

const deleteKVEntriesBefore = `
DELETE FROM kv_entries WHERE key LIKE ? AND stored_at < ?
`

// DeleteKVEntriesBefore removes entries under the given key prefix whose
// storage timestamp predates the cutoff. Used by the expiry sweep.
func (q *Queries) DeleteKVEntriesBefore(ctx context.Context, prefix string, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteKVEntriesBefore, prefix+"%", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteKVEntriesByPrefix = `
DELETE FROM kv_entries WHERE key LIKE ?
`

// DeleteKVEntriesByPrefix removes every entry under the given key
// prefix regardless of its storage timestamp.
func (q *Queries) DeleteKVEntriesByPrefix(ctx context.Context, prefix string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteKVEntriesByPrefix, prefix+"%")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const createEvent = `
INSERT INTO events (level, category, message, metadata, created_at)
VALUES (?, ?, ?, ?, ?)
`

// CreateEventParams holds the parameters for CreateEvent.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	Metadata  string
	CreatedAt time.Time
}

// CreateEvent appends an entry to the local event log.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (model.Event, error) {
	res, err := q.db.ExecContext(ctx, createEvent,
		arg.Level, arg.Category, arg.Message, arg.Metadata, arg.CreatedAt)
	if err != nil {
		return model.Event{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Event{}, err
	}
	return model.Event{
		ID:        id,
		Level:     arg.Level,
		Category:  arg.Category,
		Message:   arg.Message,
		Metadata:  arg.Metadata,
		CreatedAt: arg.CreatedAt,
	}, nil
}

const deleteEventsBefore = `
DELETE FROM events WHERE created_at < ?
`

// DeleteEventsBefore removes event log entries older than the cutoff.
// Used by the scheduler's retention sweep.
func (q *Queries) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteEventsBefore, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listRecentEvents = `
SELECT id, level, category, message, metadata, created_at
FROM events ORDER BY created_at DESC, id DESC LIMIT ?
`

// ListRecentEvents returns the most recent event log entries.
func (q *Queries) ListRecentEvents(ctx context.Context, limit int64) ([]model.Event, error) {
	rows, err := q.db.QueryContext(ctx, listRecentEvents, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
