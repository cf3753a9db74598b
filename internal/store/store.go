// Package store persists a business's record collections as one JSON blob
// in a key/value medium.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"aqualedger/internal/core"
	"aqualedger/internal/kv"
)

const businessKeyPrefix = "business:"

// Update names the collections a save replaces. Nil fields are kept from
// the current snapshot.
type Update struct {
	Customers  *[]core.Customer
	Deliveries *[]core.Delivery
	Payments   *[]core.Payment
	Expenses   *[]core.Expense
}

// All replaces every collection with those in c.
func All(c core.Collections) Update {
	c = c.Normalize()
	return Update{Customers: &c.Customers, Deliveries: &c.Deliveries, Payments: &c.Payments, Expenses: &c.Expenses}
}

// FailureReporter receives persistence failures; it is the diagnostic
// channel for callers that want more than the log line.
type FailureReporter func(ctx context.Context, businessKey string, err error)

type Store struct {
	kv        kv.Store
	logger    *slog.Logger
	onFailure FailureReporter
	now       func() time.Time
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithFailureReporter(fn FailureReporter) Option {
	return func(s *Store) { s.onFailure = fn }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func New(backend kv.Store, opts ...Option) *Store {
	s := &Store{kv: backend, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StorageKey derives the per-business key from its name and phone number.
func StorageKey(businessName, phone string) string {
	return businessKeyPrefix + core.Slug(businessName) + ":" + core.Digits(phone)
}

// Load returns the collections stored under businessKey. A missing key, a
// read error or an unparsable blob all yield empty collections; the stored
// blob is never modified here. Use LoadForUpdate before writing.
func (s *Store) Load(ctx context.Context, businessKey string) core.Collections {
	c, err := s.LoadForUpdate(ctx, businessKey)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read collections, using empty set",
			"key", businessKey, "error", err)
		return core.EmptyCollections()
	}
	return c
}

// LoadForUpdate is Load for read-modify-write cycles. A backend read error
// is returned instead of an empty snapshot, so a transient failure can never
// be saved over the real blob. A missing key or an unparsable blob still
// yields empty collections.
func (s *Store) LoadForUpdate(ctx context.Context, businessKey string) (core.Collections, error) {
	raw, err := s.kv.Get(ctx, businessKey)
	if errors.Is(err, kv.ErrNotFound) {
		return core.EmptyCollections(), nil
	}
	if err != nil {
		return core.Collections{}, fmt.Errorf("read collections: %w", err)
	}

	var c core.Collections
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		s.logger.WarnContext(ctx, "Stored collections are unreadable, using empty set",
			"key", businessKey, "bytes", len(raw), "error", err)
		return core.EmptyCollections(), nil
	}
	return c.Normalize(), nil
}

// Save merges upd into current, stamps LastSaved and writes the result.
// Last write wins. On failure the error is logged and reported, and current
// is returned unchanged together with the error.
func (s *Store) Save(ctx context.Context, businessKey string, upd Update, current core.Collections) (core.Collections, error) {
	merged := Merge(current, upd)
	merged.LastSaved = s.now().UTC()

	blob, err := json.Marshal(merged)
	if err != nil {
		return current, s.fail(ctx, businessKey, fmt.Errorf("encode collections: %w", err))
	}
	if err := s.kv.Set(ctx, businessKey, string(blob)); err != nil {
		return current, s.fail(ctx, businessKey, fmt.Errorf("write collections: %w", err))
	}

	s.logger.DebugContext(ctx, "Collections saved",
		"key", businessKey,
		"customers", len(merged.Customers),
		"deliveries", len(merged.Deliveries),
		"payments", len(merged.Payments),
		"expenses", len(merged.Expenses))
	return merged, nil
}

func (s *Store) fail(ctx context.Context, businessKey string, err error) error {
	s.logger.ErrorContext(ctx, "Failed to save collections", "key", businessKey, "error", err)
	if s.onFailure != nil {
		s.onFailure(ctx, businessKey, err)
	}
	return err
}

// Merge applies upd on top of current without touching current's slices.
func Merge(current core.Collections, upd Update) core.Collections {
	merged := current.Normalize()
	if upd.Customers != nil {
		merged.Customers = append([]core.Customer{}, (*upd.Customers)...)
	}
	if upd.Deliveries != nil {
		merged.Deliveries = append([]core.Delivery{}, (*upd.Deliveries)...)
	}
	if upd.Payments != nil {
		merged.Payments = append([]core.Payment{}, (*upd.Payments)...)
	}
	if upd.Expenses != nil {
		merged.Expenses = append([]core.Expense{}, (*upd.Expenses)...)
	}
	return merged
}

// NewID returns a time-ordered unique identifier for a new record.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
