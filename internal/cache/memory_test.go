package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[string]()

	m.Set(ctx, "a", "hello", time.Minute)

	got, ok := m.Get(ctx, "a")
	if !ok || got != "hello" {
		t.Fatalf("Get(a) = %q, %v; want hello, true", got, ok)
	}
	if _, ok := m.Get(ctx, "missing"); ok {
		t.Fatal("expected miss for absent key")
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[int]()

	now := time.Now()
	m.now = func() time.Time { return now }
	m.Set(ctx, "k", 42, 10*time.Minute)

	if _, ok := m.Get(ctx, "k"); !ok {
		t.Fatal("entry should be fresh")
	}

	// Advance past expiry; the read must lazily evict.
	m.now = func() time.Time { return now.Add(11 * time.Minute) }
	if _, ok := m.Get(ctx, "k"); ok {
		t.Fatal("expired entry should not be returned")
	}
	if m.Len() != 0 {
		t.Fatalf("expired entry should be evicted on read, Len = %d", m.Len())
	}
}

func TestMemoryClearExpired(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[int]()

	now := time.Now()
	m.now = func() time.Time { return now }
	m.Set(ctx, "old", 1, time.Minute)
	m.Set(ctx, "fresh", 2, time.Hour)

	m.now = func() time.Time { return now.Add(30 * time.Minute) }
	m.ClearExpired()

	if m.Len() != 1 {
		t.Fatalf("Len = %d after sweep, want 1", m.Len())
	}
	if _, ok := m.Get(ctx, "fresh"); !ok {
		t.Fatal("fresh entry swept")
	}
}

func TestMemoryDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[int]()

	m.Set(ctx, "a", 1, time.Minute)
	m.Set(ctx, "b", 2, time.Minute)

	m.Delete(ctx, "a")
	if m.Has(ctx, "a") {
		t.Fatal("deleted key still present")
	}
	if !m.Has(ctx, "b") {
		t.Fatal("unrelated key removed by Delete")
	}

	m.Clear(ctx)
	if m.Len() != 0 {
		t.Fatalf("Len = %d after Clear, want 0", m.Len())
	}
}
