package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"aqualedger/internal/amqp"
	"aqualedger/internal/kv"
	"aqualedger/internal/kv/memory"
	"aqualedger/internal/kv/redis"
	"aqualedger/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// Create opens the storage medium and, when configured, the AMQP publisher.
// A broker that cannot be reached is logged and skipped; the ledger works
// without events.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.createStore(ctx, config)
	if err != nil {
		return nil, err
	}

	var publisher *amqp.Client
	if config.AMQPURL != "" {
		publisher, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without ledger events", "error", err)
			publisher = nil
		} else {
			f.logger.Info("Initialized AMQP client", "exchange", config.AMQPExchange)
		}
	}

	return &Result{
		Store:     store,
		Publisher: publisher,
		Cleanup: func() error {
			var errs []error
			if publisher != nil {
				if err := publisher.Close(); err != nil {
					errs = append(errs, fmt.Errorf("amqp: %w", err))
				}
			}
			if err := store.Close(); err != nil {
				errs = append(errs, fmt.Errorf("store: %w", err))
			}
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) createStore(ctx context.Context, config Config) (kv.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return repo, nil
	case RedisBackend:
		store, err := redis.New(ctx, redis.Config{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
			Prefix:   config.RedisPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis backend: %w", err)
		}
		f.logger.Info("Initialized redis backend", "addr", config.RedisAddr, "db", config.RedisDB)
		return store, nil
	case MemoryBackend:
		f.logger.Info("Initialized memory backend", "quota_bytes", config.MemoryQuotaBytes)
		if config.MemoryQuotaBytes > 0 {
			return memory.NewWithQuota(config.MemoryQuotaBytes), nil
		}
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
