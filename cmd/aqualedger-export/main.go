// Command aqualedger-export writes a dated backup of one business's ledger
// and, when a spreadsheet is configured, mirrors its summary and dues there.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aqualedger/internal/cli"
	"aqualedger/internal/config"
	applog "aqualedger/internal/log"
	"aqualedger/internal/session"
	"aqualedger/internal/sheets"
	"aqualedger/internal/sheets/google"
	sheetsmem "aqualedger/internal/sheets/memory"
	"aqualedger/internal/store"
	"aqualedger/internal/worker"
)

type options struct {
	business, phone, dir string
	xlsx, push, dryRun   bool
}

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentExport)
	cfg := cli.LoadAndValidateConfig(logger)

	var opts options
	flag.StringVar(&opts.business, "business", "", "business name; defaults to the current session")
	flag.StringVar(&opts.phone, "phone", "", "business phone; required with -business")
	flag.StringVar(&opts.dir, "dir", cfg.ExportDir, "directory for the backup files")
	flag.BoolVar(&opts.xlsx, "xlsx", true, "also write an XLSX workbook")
	flag.BoolVar(&opts.push, "sheets", cfg.SheetsEnabled(), "push summary and dues to Google Sheets")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "push to an in-memory sheet instead of Google Sheets")
	flag.Parse()

	os.Exit(run(logger, cfg, opts))
}

// run returns the process exit code. Deferred cleanup has finished by the
// time it returns.
func run(logger *applog.Logger, cfg *config.Config, opts options) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend := cli.OpenBackend(ctx, logger, cfg)
	defer func() {
		if err := backend.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	}()

	sessions := session.NewManager(backend.Store, session.WithLogger(logger.WithComponent(applog.ComponentSession).Slog()))
	sess, err := resolveSession(ctx, sessions, opts.business, opts.phone)
	if err != nil {
		logger.Error("No business to export", "error", err)
		fmt.Fprintln(os.Stderr, "log in through the API first, or pass -business and -phone")
		return 2
	}

	workerOpts := []worker.Option{
		worker.WithWorkbook(opts.xlsx),
		worker.WithOverdueAfter(cfg.OverdueAfterDays),
		worker.WithLogger(logger.Slog()),
	}
	var mirror sheets.Publisher
	switch {
	case opts.dryRun:
		mirror = sheetsmem.New()
	case opts.push:
		client, err := google.New(ctx, google.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SummarySheet:    cfg.GoogleSummarySheet,
			DuesSheet:       cfg.GoogleDuesSheet,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		}, logger.WithComponent(applog.ComponentSheets).Slog())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			return 1
		}
		mirror = client
	}
	if mirror != nil {
		workerOpts = append(workerOpts, worker.WithSheets(mirror))
	}

	st := store.New(backend.Store, store.WithLogger(logger.WithComponent(applog.ComponentStorage).Slog()))
	res, err := worker.NewExportWorker(st, opts.dir, workerOpts...).Run(ctx, sess)
	if err != nil {
		logger.Error("Export failed", "error", err, "business", sess.BusinessName)
		return 1
	}

	fmt.Println(res.JSONPath)
	if res.WorkbookPath != "" {
		fmt.Println(res.WorkbookPath)
	}
	if res.SheetRef != "" {
		fmt.Println(res.SheetRef)
	}
	return 0
}

// resolveSession prefers explicit flags over the session the API marked
// current.
func resolveSession(ctx context.Context, m *session.Manager, business, phone string) (session.Session, error) {
	if business == "" && phone == "" {
		return m.Current(ctx)
	}
	if business == "" || phone == "" {
		return session.Session{}, errors.New("-business and -phone must be given together")
	}
	return session.New(business, phone, time.Now())
}
