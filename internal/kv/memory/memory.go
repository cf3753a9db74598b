package memory

import (
	"context"
	"sort"
	"sync"

	"aqualedger/internal/kv"
)

// Store keeps values in process memory. A positive quota caps the total
// bytes of all values, mirroring browser storage limits.
type Store struct {
	mu    sync.Mutex
	items map[string]string
	quota int
	used  int
}

var _ kv.Store = (*Store)(nil)

func New() *Store {
	return &Store{items: map[string]string{}}
}

// NewWithQuota returns a store that rejects writes once the stored values
// would exceed quota bytes.
func NewWithQuota(quota int) *Store {
	s := New()
	s.quota = quota
	return s
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	if !ok {
		return "", kv.ErrNotFound
	}
	return v, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.used - len(s.items[key]) + len(value)
	if s.quota > 0 && next > s.quota {
		return kv.ErrQuotaExceeded
	}
	s.items[key] = value
	s.used = next
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.used -= len(s.items[key])
	delete(s.items, key)
	return nil
}

// Keys returns the stored keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.items))
	for k := range s.items {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *Store) Close() error { return nil }
