package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"aqualedger/internal/config"
	applog "aqualedger/internal/log"
)

func TestRunExitCodes(t *testing.T) {
	logger := applog.New(applog.Config{Output: io.Discard, Component: applog.ComponentExport})

	tests := []struct {
		name  string
		opts  options
		want  int
		files int
	}{
		{"no current session", options{}, 2, 0},
		{"business without phone", options{business: "Blue Drop"}, 2, 0},
		{"dry run", options{business: "Blue Drop", phone: "0300-1234567", xlsx: true, dryRun: true}, 0, 2},
		{"json only", options{business: "Blue Drop", phone: "0300-1234567"}, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			cfg := &config.Config{
				DataBackend:  "sqlite",
				SQLiteDBPath: filepath.Join(t.TempDir(), "ledger.db"),
			}
			tt.opts.dir = dir

			if got := run(logger, cfg, tt.opts); got != tt.want {
				t.Fatalf("run() = %d, want %d", got, tt.want)
			}
			entries, _ := os.ReadDir(dir)
			if len(entries) != tt.files {
				t.Fatalf("wrote %d files, want %d", len(entries), tt.files)
			}
			for _, e := range entries {
				if !strings.HasPrefix(e.Name(), "blue-drop-backup-") {
					t.Fatalf("unexpected file %s", e.Name())
				}
			}
		})
	}
}
