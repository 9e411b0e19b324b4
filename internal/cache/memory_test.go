package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCache_BasicOperations(t *testing.T) {
	cache := NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      time.Hour,
		MaxSize:         100,
		CleanupInterval: 0, // No background cleanup for tests
	})
	defer func() { _ = cache.Close() }()
	ctx := context.Background()

	// Test Set and Get
	err := cache.Set(ctx, "key1", []byte("value1"), 0)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, err := cache.Get(ctx, "key1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(val) != "value1" {
		t.Errorf("expected value1, got %s", string(val))
	}

	// Test Has
	has, err := cache.Has(ctx, "key1")
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if !has {
		t.Error("expected key1 to exist")
	}

	// Test Delete
	err = cache.Delete(ctx, "key1")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, err = cache.Get(ctx, "key1")
	if err != ErrCacheMiss {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCache_CacheMiss(t *testing.T) {
	cache := NewSimpleMemoryCache(time.Hour)
	defer func() { _ = cache.Close() }()
	ctx := context.Background()

	_, err := cache.Get(ctx, "nonexistent")
	if err != ErrCacheMiss {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}

	has, err := cache.Has(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if has {
		t.Error("expected nonexistent key to not exist")
	}
}

func TestMemoryCache_Expiration(t *testing.T) {
	cache := NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      50 * time.Millisecond,
		CleanupInterval: 0,
	})
	defer func() { _ = cache.Close() }()
	ctx := context.Background()

	err := cache.Set(ctx, "expiring", []byte("value"), 0)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Should exist immediately
	_, err = cache.Get(ctx, "expiring")
	if err != nil {
		t.Error("expected key to exist immediately")
	}

	// Wait past the TTL
	time.Sleep(80 * time.Millisecond)

	_, err = cache.Get(ctx, "expiring")
	if err != ErrCacheMiss {
		t.Errorf("expected ErrCacheMiss after expiry, got %v", err)
	}
}

func TestMemoryCacheEntry_ExpiryBoundary(t *testing.T) {
	// An entry exactly at its TTL is expired, not valid one tick longer.
	now := time.Now()
	entry := &memoryCacheEntry{expiresAt: now.Add(time.Minute)}

	if entry.expired(now) {
		t.Error("entry should be valid before its TTL")
	}
	if entry.expired(now.Add(time.Minute - time.Nanosecond)) {
		t.Error("entry should be valid one tick before its TTL")
	}
	if !entry.expired(now.Add(time.Minute)) {
		t.Error("entry at exactly its TTL must be expired")
	}
	if !entry.expired(now.Add(2 * time.Minute)) {
		t.Error("entry past its TTL must be expired")
	}
}

func TestMemoryCache_Clear(t *testing.T) {
	cache := NewSimpleMemoryCache(time.Hour)
	defer func() { _ = cache.Close() }()
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		if err := cache.Set(ctx, key, []byte(key), 0); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	for _, key := range []string{"a", "b", "c"} {
		if _, err := cache.Get(ctx, key); err != ErrCacheMiss {
			t.Errorf("expected ErrCacheMiss for %s after Clear, got %v", key, err)
		}
	}
}

func TestMemoryCache_ClosedOperations(t *testing.T) {
	cache := NewSimpleMemoryCache(time.Hour)
	_ = cache.Close()
	ctx := context.Background()

	if _, err := cache.Get(ctx, "key"); err != ErrCacheClosed {
		t.Errorf("expected ErrCacheClosed, got %v", err)
	}
	if err := cache.Set(ctx, "key", []byte("v"), 0); err != ErrCacheClosed {
		t.Errorf("expected ErrCacheClosed, got %v", err)
	}
}

func TestMemoryCache_Stats(t *testing.T) {
	cache := NewSimpleMemoryCache(time.Hour)
	defer func() { _ = cache.Close() }()
	ctx := context.Background()

	_ = cache.Set(ctx, "key", []byte("value"), 0)
	_, _ = cache.Get(ctx, "key")
	_, _ = cache.Get(ctx, "missing")

	stats := cache.Stats()
	if stats.Hits != 1 {
		t.Errorf("expected 1 hit, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", stats.Misses)
	}
	if stats.Sets != 1 {
		t.Errorf("expected 1 set, got %d", stats.Sets)
	}
}
