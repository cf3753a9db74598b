package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"aqualedger/internal/kv/memory"
)

var fixedNow = time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)

func newManager() (*Manager, *memory.Store) {
	backend := memory.New()
	return NewManager(backend, WithClock(func() time.Time { return fixedNow })), backend
}

func TestNewValidates(t *testing.T) {
	tests := []struct {
		name, business, phone string
		wantErr               error
	}{
		{"ok", "Blue Drop", "0300-1234567", nil},
		{"empty name", "  ", "0300", ErrEmptyBusinessName},
		{"punctuation only", "!!!", "0300", ErrEmptyBusinessName},
		{"no digits", "Blue Drop", "n/a", ErrInvalidPhone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.business, tt.phone, fixedNow)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoginGetLogout(t *testing.T) {
	ctx := context.Background()
	m, backend := newManager()

	token, s, err := m.Login(ctx, "Blue Drop", "0300-1234567")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if s.StorageKey != "business:blue-drop:03001234567" || !s.LoginAt.Equal(fixedNow) {
		t.Fatalf("unexpected session %+v", s)
	}
	if _, err := backend.Get(ctx, "session:"+token); err != nil {
		t.Fatalf("session not persisted: %v", err)
	}

	// A fresh manager over the same medium resolves the token without the cache.
	other := NewManager(backend)
	got, err := other.Get(ctx, token)
	if err != nil || got != s {
		t.Fatalf("Get() = %+v, %v", got, err)
	}

	if err := m.Logout(ctx, token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := m.Get(ctx, token); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after logout, got %v", err)
	}
	if err := m.Logout(ctx, token); err != nil {
		t.Fatalf("second logout should be a no-op: %v", err)
	}
}

func TestGetEmptyToken(t *testing.T) {
	m, _ := newManager()
	if _, err := m.Get(context.Background(), ""); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestCurrent(t *testing.T) {
	ctx := context.Background()
	m, backend := newManager()

	if _, err := m.Current(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected no current session, got %v", err)
	}
	s, _ := New("Blue Drop", "0300", fixedNow)
	if err := m.SetCurrent(ctx, s); err != nil {
		t.Fatalf("set current: %v", err)
	}
	got, err := m.Current(ctx)
	if err != nil || got != s {
		t.Fatalf("Current() = %+v, %v", got, err)
	}
	if err := m.ClearCurrent(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := m.Current(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected cleared session, got %v", err)
	}

	if err := backend.Set(ctx, "session:current", "garbage"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Current(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("unreadable session should read as absent, got %v", err)
	}
}

func TestReleaseCurrent(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager()

	first, _ := New("Blue Drop", "0300", fixedNow)
	second, _ := New("Green Well", "0311", fixedNow)

	if released, err := m.ReleaseCurrent(ctx, first); err != nil || released {
		t.Fatalf("nothing current: released=%v err=%v", released, err)
	}

	if err := m.SetCurrent(ctx, second); err != nil {
		t.Fatalf("set current: %v", err)
	}
	if released, err := m.ReleaseCurrent(ctx, first); err != nil || released {
		t.Fatalf("other business must not release: released=%v err=%v", released, err)
	}
	if got, err := m.Current(ctx); err != nil || got != second {
		t.Fatalf("Current() = %+v, %v; want second business", got, err)
	}

	if released, err := m.ReleaseCurrent(ctx, second); err != nil || !released {
		t.Fatalf("owner should release: released=%v err=%v", released, err)
	}
	if _, err := m.Current(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected no current session, got %v", err)
	}
}
