package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"aqualedger/internal/config"
	"aqualedger/internal/kv"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{DataBackend: "redis", RedisAddr: "r:6379", RedisDB: 2, AMQPURL: "amqp://x/", AMQPExchange: "ev"})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != RedisBackend || cfg.RedisAddr != "r:6379" || cfg.RedisDB != 2 || cfg.AMQPExchange != "ev" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"redis without addr", Config{Type: RedisBackend}, true},
		{"negative quota", Config{Type: MemoryBackend, MemoryQuotaBytes: -1}, true},
		{"amqp without exchange", Config{Type: MemoryBackend, AMQPURL: "amqp://x/"}, true},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	if len(got) != 3 || got[0] != "sqlite" {
		t.Errorf("unexpected types %v", got)
	}
}

func TestCreateMemoryBackendWithQuota(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(nil).Create(ctx, Config{Type: MemoryBackend, MemoryQuotaBytes: 8})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer res.Cleanup()

	if res.Publisher != nil {
		t.Error("publisher should be nil without AMQP_URL")
	}
	if err := res.Store.Set(ctx, "k", "too long for quota"); !errors.Is(err, kv.ErrQuotaExceeded) {
		t.Errorf("expected quota error, got %v", err)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")
	res, err := NewFactory(nil).Create(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := res.Store.Set(ctx, "business:x:1", "{}"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, err := res.Store.Get(ctx, "business:x:1"); err != nil || v != "{}" {
		t.Fatalf("get: %q %v", v, err)
	}
	if err := res.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
}
