package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a key has never been written.
var ErrNotFound = errors.New("key not found")

// ErrQuotaExceeded is returned by Set when the medium is full.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Store is the key/value medium ledger blobs and sessions live in.
// Writes replace the whole value; there are no transactions.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
