// Package backend builds the storage medium and optional event publisher
// selected by configuration.
package backend

import (
	"context"

	"aqualedger/internal/amqp"
	"aqualedger/internal/kv"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result holds what the factory opened. Publisher is nil when ledger events
// are disabled or the broker could not be reached.
type Result struct {
	Store     kv.Store
	Publisher *amqp.Client
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// sqlite
	SQLiteDBPath string

	// redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// memory; zero means unlimited
	MemoryQuotaBytes int

	// optional, for every type
	AMQPURL      string
	AMQPExchange string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	RedisBackend  BackendType = "redis"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, RedisBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
