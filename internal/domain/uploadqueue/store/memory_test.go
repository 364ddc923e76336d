package store

import (
	"context"
	"testing"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	if _, ok, err := s.Get(ctx, "pending"); err != nil || ok {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, "pending", `[{"id":"a"}]`); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	value, ok, err := s.Get(ctx, "pending")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !ok || value != `[{"id":"a"}]` {
		t.Fatalf("unexpected value: ok=%v %q", ok, value)
	}

	// overwrite keeps last write
	if err := s.Set(ctx, "pending", `[]`); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	value, _, _ = s.Get(ctx, "pending")
	if value != `[]` {
		t.Fatalf("expected overwrite, got %q", value)
	}

	if err := s.Delete(ctx, "pending"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "pending"); ok {
		t.Fatal("expected key absent after delete")
	}

	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close error: %v", err)
	}
}
