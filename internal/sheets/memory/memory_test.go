package memory

import (
	"context"
	"testing"
	"time"

	"aqualedger/internal/core"
	"aqualedger/internal/ledger"
	"aqualedger/internal/report"
)

func TestWriteSummaryUpsertsByDay(t *testing.T) {
	ctx := context.Background()
	s := New()
	day1 := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	e := report.BuildExport(core.EmptyCollections(), "Blue Drop", day1)
	if ref, err := s.WriteSummary(ctx, e); err != nil || ref != "mem:summary:1" {
		t.Fatalf("first write: %q %v", ref, err)
	}
	if ref, _ := s.WriteSummary(ctx, report.BuildExport(core.EmptyCollections(), "Blue Drop", day1.Add(time.Hour))); ref != "mem:summary:1" {
		t.Fatalf("same day should replace, got %q", ref)
	}
	if ref, _ := s.WriteSummary(ctx, report.BuildExport(core.EmptyCollections(), "Blue Drop", day1.AddDate(0, 0, 1))); ref != "mem:summary:2" {
		t.Fatalf("next day should append, got %q", ref)
	}
	if got := len(s.SummaryRows()); got != 2 {
		t.Fatalf("rows = %d, want 2", got)
	}
}

func TestWriteDuesReplaces(t *testing.T) {
	ctx := context.Background()
	s := New()
	dues := []ledger.Due{{Customer: core.Customer{FlatNumber: "A"}, Outstanding: core.FromUnits(10)}}

	if err := s.WriteDues(ctx, "Blue Drop", dues); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteDues(ctx, "Blue Drop", nil); err != nil {
		t.Fatal(err)
	}
	if got := s.Dues("Blue Drop"); len(got) != 1 {
		t.Fatalf("expected header only, got %v", got)
	}
}
