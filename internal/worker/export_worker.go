// Package worker runs the backup job: one snapshot fanned out to files and
// the optional spreadsheet mirror.
package worker

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"aqualedger/internal/ledger"
	"aqualedger/internal/report"
	"aqualedger/internal/session"
	"aqualedger/internal/sheets"
	"aqualedger/internal/store"
)

// ExportWorker writes backups of a business's collections.
type ExportWorker struct {
	store        *store.Store
	sheets       sheets.Publisher
	dir          string
	overdueAfter int
	workbook     bool
	logger       *slog.Logger
	now          func() time.Time
}

// Result lists what a run produced. Empty fields were skipped.
type Result struct {
	JSONPath     string
	WorkbookPath string
	SheetRef     string
	DuesRows     int
	Summary      report.Summary
}

type Option func(*ExportWorker)

// WithSheets mirrors the summary and dues list to a spreadsheet.
func WithSheets(p sheets.Publisher) Option {
	return func(w *ExportWorker) { w.sheets = p }
}

// WithWorkbook also writes an XLSX copy next to the JSON file.
func WithWorkbook(enabled bool) Option {
	return func(w *ExportWorker) { w.workbook = enabled }
}

func WithOverdueAfter(days int) Option {
	return func(w *ExportWorker) {
		if days > 0 {
			w.overdueAfter = days
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(w *ExportWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *ExportWorker) { w.now = now }
}

func NewExportWorker(st *store.Store, dir string, opts ...Option) *ExportWorker {
	w := &ExportWorker{
		store:        st,
		dir:          dir,
		overdueAfter: ledger.DefaultOverdueAfterDays,
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Run snapshots the session's business once and writes every output from
// that snapshot concurrently. The first failure cancels the rest; files
// already renamed into place are kept.
func (w *ExportWorker) Run(ctx context.Context, sess session.Session) (Result, error) {
	now := w.now()
	collections, err := w.store.LoadForUpdate(ctx, sess.StorageKey)
	if err != nil {
		return Result{}, fmt.Errorf("snapshot %s: %w", sess.StorageKey, err)
	}
	export := report.BuildExport(collections, sess.BusinessName, now)
	dues := ledger.OverdueDuesAfter(collections.Customers, collections.Deliveries, collections.Payments, now, w.overdueAfter)

	res := Result{Summary: export.Summary}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var buf bytes.Buffer
		if err := export.Encode(&buf); err != nil {
			return fmt.Errorf("encode export: %w", err)
		}
		path := filepath.Join(w.dir, report.ExportFilename(sess.BusinessName, now))
		if err := writeFileAtomic(gctx, path, buf.Bytes()); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		res.JSONPath = path
		return nil
	})

	if w.workbook {
		g.Go(func() error {
			var buf bytes.Buffer
			if err := report.WriteWorkbook(&buf, export); err != nil {
				return fmt.Errorf("render workbook: %w", err)
			}
			path := filepath.Join(w.dir, report.WorkbookFilename(sess.BusinessName, now))
			if err := writeFileAtomic(gctx, path, buf.Bytes()); err != nil {
				return fmt.Errorf("write workbook: %w", err)
			}
			res.WorkbookPath = path
			return nil
		})
	}

	if w.sheets != nil {
		g.Go(func() error {
			ref, err := w.sheets.WriteSummary(gctx, export)
			if err != nil {
				return fmt.Errorf("push summary: %w", err)
			}
			res.SheetRef = ref
			return nil
		})
		g.Go(func() error {
			if err := w.sheets.WriteDues(gctx, sess.BusinessName, dues); err != nil {
				return fmt.Errorf("push dues: %w", err)
			}
			res.DuesRows = len(dues)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		w.logger.ErrorContext(ctx, "Export failed", "business", sess.BusinessName, "error", err)
		return res, err
	}

	w.logger.InfoContext(ctx, "Export completed",
		"business", sess.BusinessName,
		"json", res.JSONPath,
		"workbook", res.WorkbookPath,
		"sheet_ref", res.SheetRef,
		"dues", res.DuesRows,
		"customers", export.Summary.TotalCustomers,
		"outstanding", export.Summary.TotalOutstanding.String())
	return res, nil
}

// writeFileAtomic writes to a temp file in the target directory and renames
// it over path, so readers never see a partial backup.
func writeFileAtomic(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
