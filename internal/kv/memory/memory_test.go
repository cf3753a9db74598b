package memory

import (
	"context"
	"errors"
	"testing"

	"aqualedger/internal/kv"
)

func TestMemoryStoreGetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Set(ctx, "a", "1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "a", "2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, err := s.Get(ctx, "a")
	if err != nil || v != "2" {
		t.Fatalf("unexpected get: v=%q err=%v", v, err)
	}
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "a"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreQuota(t *testing.T) {
	ctx := context.Background()
	s := NewWithQuota(10)

	if err := s.Set(ctx, "a", "12345"); err != nil {
		t.Fatalf("set within quota: %v", err)
	}
	if err := s.Set(ctx, "b", "123456"); !errors.Is(err, kv.ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
	// Replacing a value only counts the difference.
	if err := s.Set(ctx, "a", "1234567890"); err != nil {
		t.Fatalf("replace within quota: %v", err)
	}
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Set(ctx, "b", "123456"); err != nil {
		t.Fatalf("set after delete freed space: %v", err)
	}
	if keys := s.Keys(); len(keys) != 1 || keys[0] != "b" {
		t.Fatalf("unexpected keys %v", keys)
	}
}
