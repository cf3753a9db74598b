package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"aqualedger/internal/core"
	"aqualedger/internal/kv/memory"
	"aqualedger/internal/ledger"
	"aqualedger/internal/report"
	"aqualedger/internal/session"
	sheetsmem "aqualedger/internal/sheets/memory"
	"aqualedger/internal/store"
)

var runAt = time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)

func seeded(t *testing.T) (*store.Store, session.Session) {
	t.Helper()
	ctx := context.Background()
	st := store.New(memory.New())
	sess, err := session.New("Blue Drop", "0300-1234567", runAt)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	customers := []core.Customer{
		{ID: "c1", FlatNumber: "A-1", Name: "Ali", Rate: core.FromUnits(30), CreatedAt: runAt},
		{ID: "c2", FlatNumber: "B-2", Name: "Sara", Rate: core.FromUnits(40), CreatedAt: runAt},
	}
	deliveries := []core.Delivery{
		{ID: "d1", Date: core.NewDate(2025, 1, 1), FlatNumber: "A-1", CustomerName: "Ali", Bottles: 10, Amount: core.FromUnits(300), CreatedAt: runAt},
		{ID: "d2", Date: core.NewDate(2025, 3, 1), FlatNumber: "B-2", CustomerName: "Sara", Bottles: 2, Amount: core.FromUnits(80), CreatedAt: runAt},
	}
	if _, err := st.Save(ctx, sess.StorageKey, store.Update{Customers: &customers, Deliveries: &deliveries}, core.Collections{}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return st, sess
}

func TestRunWritesFilesAndSheets(t *testing.T) {
	st, sess := seeded(t)
	dir := t.TempDir()
	sheet := sheetsmem.New()

	w := NewExportWorker(st, dir, WithSheets(sheet), WithWorkbook(true), WithClock(func() time.Time { return runAt }))
	res, err := w.Run(context.Background(), sess)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.JSONPath != filepath.Join(dir, "blue-drop-backup-2025-03-09.json") {
		t.Fatalf("unexpected json path %q", res.JSONPath)
	}
	f, err := os.Open(res.JSONPath)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()
	back, err := report.DecodeExport(f)
	if err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if len(back.Customers) != 2 || back.Summary.TotalOutstanding != core.FromUnits(380) {
		t.Fatalf("unexpected export %+v", back.Summary)
	}

	if _, err := os.Stat(res.WorkbookPath); err != nil {
		t.Fatalf("workbook missing: %v", err)
	}
	if rows := sheet.SummaryRows(); len(rows) != 1 || res.SheetRef == "" {
		t.Fatalf("unexpected summary rows %v ref %q", rows, res.SheetRef)
	}
	// header plus both customers with open balances
	if rows := sheet.Dues("Blue Drop"); len(rows) != 3 || res.DuesRows != 2 {
		t.Fatalf("unexpected dues rows %v", rows)
	}

	// Same day again replaces the summary row.
	if _, err := w.Run(context.Background(), sess); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if rows := sheet.SummaryRows(); len(rows) != 1 {
		t.Fatalf("expected summary upsert, got %d rows", len(rows))
	}
	leftovers, _ := filepath.Glob(filepath.Join(dir, ".export-*"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestRunJSONOnly(t *testing.T) {
	st, sess := seeded(t)
	res, err := NewExportWorker(st, t.TempDir(), WithClock(func() time.Time { return runAt })).Run(context.Background(), sess)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.WorkbookPath != "" || res.SheetRef != "" {
		t.Fatalf("unexpected outputs %+v", res)
	}
}

type failingSheets struct{}

func (failingSheets) WriteSummary(context.Context, report.Export) (string, error) {
	return "", errors.New("quota exceeded")
}

func (failingSheets) WriteDues(context.Context, string, []ledger.Due) error { return nil }

func TestRunReportsSheetFailure(t *testing.T) {
	st, sess := seeded(t)
	_, err := NewExportWorker(st, t.TempDir(), WithSheets(failingSheets{})).Run(context.Background(), sess)
	if err == nil {
		t.Fatal("expected error from failing sheet push")
	}
}

func TestRunCancelled(t *testing.T) {
	st, sess := seeded(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dir := t.TempDir()
	if _, err := NewExportWorker(st, dir).Run(ctx, sess); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if files, _ := os.ReadDir(dir); len(files) != 0 {
		t.Fatalf("cancelled run wrote %d files", len(files))
	}
}

type unreadable struct{ *memory.Store }

var errUnreachable = errors.New("dial tcp: connection refused")

func (unreadable) Get(context.Context, string) (string, error) { return "", errUnreachable }

func TestRunFailsWhenSnapshotUnreadable(t *testing.T) {
	sess, err := session.New("Blue Drop", "0300-1234567", runAt)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	dir := t.TempDir()
	sheet := sheetsmem.New()
	st := store.New(unreadable{memory.New()})

	_, err = NewExportWorker(st, dir, WithSheets(sheet), WithClock(func() time.Time { return runAt })).Run(context.Background(), sess)
	if !errors.Is(err, errUnreachable) {
		t.Fatalf("expected read error, got %v", err)
	}
	if files, _ := os.ReadDir(dir); len(files) != 0 {
		t.Fatalf("failed snapshot wrote %d files", len(files))
	}
	if rows := sheet.SummaryRows(); len(rows) != 0 {
		t.Fatalf("failed snapshot pushed %d summary rows", len(rows))
	}
}
