package cache

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func newTestMemory(t *testing.T, capacity int) *Memory {
	t.Helper()
	m := NewMemory(MemoryConfig{Capacity: capacity, DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t, 10)

	if err := m.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok := m.Get(ctx, "k")
	if !ok {
		t.Fatal("expected hit")
	}
	if string(got) != "v" {
		t.Errorf("got %q, want %q", got, "v")
	}

	if _, ok := m.Get(ctx, "absent"); ok {
		t.Error("expected miss for absent key")
	}
}

func TestMemory_Expiration(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t, 10)

	if err := m.Set(ctx, "k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, ok := m.Get(ctx, "k"); ok {
		t.Error("expected expired entry to miss")
	}
	if m.Size() != 0 {
		t.Errorf("size = %d, want 0 after lazy expiry", m.Size())
	}
}

func TestMemory_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t, 3)

	for i := 0; i < 3; i++ {
		_ = m.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), 0)
	}
	// Touch k0 so k1 becomes the eviction candidate.
	if _, ok := m.Get(ctx, "k0"); !ok {
		t.Fatal("expected k0 hit")
	}
	_ = m.Set(ctx, "k3", []byte("v"), 0)

	if _, ok := m.Get(ctx, "k1"); ok {
		t.Error("expected k1 to have been evicted")
	}
	for _, key := range []string{"k0", "k2", "k3"} {
		if _, ok := m.Get(ctx, key); !ok {
			t.Errorf("expected %s to survive eviction", key)
		}
	}
}

func TestMemory_Delete(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t, 10)

	_ = m.Set(ctx, "k", []byte("v"), 0)
	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := m.Get(ctx, "k"); ok {
		t.Error("expected miss after delete")
	}
	// Deleting an absent key is fine.
	if err := m.Delete(ctx, "k"); err != nil {
		t.Errorf("delete absent: %v", err)
	}
}
