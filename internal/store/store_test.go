package store_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/storefront-go/internal/model"
	"github.com/olegiv/storefront-go/internal/store"
	"github.com/olegiv/storefront-go/internal/testutil"
)

func TestKVEntry_RoundTrip(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	q := store.New(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	err := q.SetKVEntry(ctx, store.SetKVEntryParams{
		Key:      "cache:products",
		Value:    []byte(`[{"_id":"p1"}]`),
		StoredAt: now,
	})
	require.NoError(t, err)

	entry, err := q.GetKVEntry(ctx, "cache:products")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[{"_id":"p1"}]`), entry.Value)
	assert.True(t, entry.StoredAt.Equal(now), "stored_at mismatch: %s vs %s", entry.StoredAt, now)
}

func TestKVEntry_OverwriteRestampsTime(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	q := store.New(db)
	ctx := context.Background()

	first := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, q.SetKVEntry(ctx, store.SetKVEntryParams{
		Key: "cache:orders", Value: []byte("old"), StoredAt: first,
	}))

	second := time.Now().UTC()
	require.NoError(t, q.SetKVEntry(ctx, store.SetKVEntryParams{
		Key: "cache:orders", Value: []byte("new"), StoredAt: second,
	}))

	entry, err := q.GetKVEntry(ctx, "cache:orders")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), entry.Value)
	assert.True(t, entry.StoredAt.After(first))
}

func TestKVEntry_DeleteMissingIsNoError(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	q := store.New(db)
	assert.NoError(t, q.DeleteKVEntry(context.Background(), "never-set"))

	_, err := q.GetKVEntry(context.Background(), "never-set")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestDeleteKVEntriesBefore(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	q := store.New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, q.SetKVEntry(ctx, store.SetKVEntryParams{
		Key: "cache:stale", Value: []byte("x"), StoredAt: now.Add(-10 * time.Minute),
	}))
	require.NoError(t, q.SetKVEntry(ctx, store.SetKVEntryParams{
		Key: "cache:fresh", Value: []byte("y"), StoredAt: now,
	}))
	require.NoError(t, q.SetKVEntry(ctx, store.SetKVEntryParams{
		Key: "session:token", Value: []byte("z"), StoredAt: now.Add(-10 * time.Minute),
	}))

	// Only cache: keys older than the cutoff go away.
	n, err := q.DeleteKVEntriesBefore(ctx, "cache:", now.Add(-5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = q.GetKVEntry(ctx, "cache:stale")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	_, err = q.GetKVEntry(ctx, "cache:fresh")
	assert.NoError(t, err)
	_, err = q.GetKVEntry(ctx, "session:token")
	assert.NoError(t, err, "sweep must not touch session keys")
}

func TestEvents(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	q := store.New(db)
	ctx := context.Background()

	created, err := q.CreateEvent(ctx, store.CreateEventParams{
		Level:     model.EventLevelWarning,
		Category:  model.EventCategoryCheckout,
		Message:   "capture failed after approval",
		Metadata:  `{"order_id":"ORDER123"}`,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	events, err := q.ListRecentEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "capture failed after approval", events[0].Message)
	assert.Equal(t, model.EventCategoryCheckout, events[0].Category)
}
