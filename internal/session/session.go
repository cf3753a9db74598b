// Package session tracks which business a caller is working on.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"aqualedger/internal/cache"
	"aqualedger/internal/core"
	"aqualedger/internal/kv"
	"aqualedger/internal/store"
)

const (
	keyPrefix  = "session:"
	currentKey = keyPrefix + "current"
)

var (
	ErrEmptyBusinessName = errors.New("business name is required")
	ErrInvalidPhone      = errors.New("phone number must contain digits")
	ErrNoSession         = errors.New("no active session")
)

// Session identifies the business whose records are being worked on.
type Session struct {
	BusinessName string    `json:"businessName"`
	Phone        string    `json:"phone"`
	StorageKey   string    `json:"storageKey"`
	LoginAt      time.Time `json:"loginAt"`
}

// New validates the identity and derives its storage key.
func New(businessName, phone string, now time.Time) (Session, error) {
	name := strings.TrimSpace(businessName)
	if name == "" || core.Slug(name) == "" {
		return Session{}, ErrEmptyBusinessName
	}
	if core.Digits(phone) == "" {
		return Session{}, ErrInvalidPhone
	}
	return Session{
		BusinessName: name,
		Phone:        strings.TrimSpace(phone),
		StorageKey:   store.StorageKey(name, phone),
		LoginAt:      now.UTC(),
	}, nil
}

// Manager persists sessions in the kv medium behind a small cache.
type Manager struct {
	backend kv.Store
	cache   *cache.LRUCache[Session]
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*Manager)

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithCache overrides the default token cache.
func WithCache(c *cache.LRUCache[Session]) Option {
	return func(m *Manager) { m.cache = c }
}

func NewManager(backend kv.Store, opts ...Option) *Manager {
	m := &Manager{
		backend: backend,
		cache:   cache.NewLRUCache[Session](1000, 15*time.Minute),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Cache exposes the token cache so it can be registered with a janitor.
func (m *Manager) Cache() *cache.LRUCache[Session] { return m.cache }

// Login starts a session and returns its bearer token.
func (m *Manager) Login(ctx context.Context, businessName, phone string) (string, Session, error) {
	s, err := New(businessName, phone, m.now())
	if err != nil {
		return "", Session{}, err
	}
	token := uuid.NewString()
	if err := m.put(ctx, keyPrefix+token, s); err != nil {
		return "", Session{}, err
	}
	m.cache.Set(token, s)
	m.logger.Info("Session started", "business", s.BusinessName, "storage_key", s.StorageKey)
	return token, s, nil
}

// Logout ends the session. Unknown tokens are not an error.
func (m *Manager) Logout(ctx context.Context, token string) error {
	m.cache.Delete(token)
	if err := m.backend.Delete(ctx, keyPrefix+token); err != nil && !errors.Is(err, kv.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Get resolves a token to its session.
func (m *Manager) Get(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrNoSession
	}
	if s, ok := m.cache.Get(token); ok {
		return s, nil
	}
	s, err := m.get(ctx, keyPrefix+token)
	if err != nil {
		return Session{}, err
	}
	m.cache.Set(token, s)
	return s, nil
}

// Current returns the session marked current, used by tools that have no
// token of their own.
func (m *Manager) Current(ctx context.Context) (Session, error) {
	return m.get(ctx, currentKey)
}

func (m *Manager) SetCurrent(ctx context.Context, s Session) error {
	return m.put(ctx, currentKey, s)
}

func (m *Manager) ClearCurrent(ctx context.Context) error {
	if err := m.backend.Delete(ctx, currentKey); err != nil && !errors.Is(err, kv.ErrNotFound) {
		return fmt.Errorf("clear current session: %w", err)
	}
	return nil
}

// ReleaseCurrent clears the current marker only when it still belongs to
// s's business. It reports whether the marker was cleared.
func (m *Manager) ReleaseCurrent(ctx context.Context, s Session) (bool, error) {
	cur, err := m.Current(ctx)
	if errors.Is(err, ErrNoSession) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if cur.StorageKey != s.StorageKey {
		return false, nil
	}
	return true, m.ClearCurrent(ctx)
}

func (m *Manager) put(ctx context.Context, key string, s Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := m.backend.Set(ctx, key, string(b)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (m *Manager) get(ctx context.Context, key string) (Session, error) {
	raw, err := m.backend.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		m.logger.Warn("Discarding unreadable session", "key", key, "error", err)
		return Session{}, ErrNoSession
	}
	return s, nil
}

// Ping checks that the backing medium answers. A missing probe key is fine.
func (m *Manager) Ping(ctx context.Context) error {
	if _, err := m.backend.Get(ctx, keyPrefix+"ping"); err != nil && !errors.Is(err, kv.ErrNotFound) {
		return err
	}
	return nil
}
