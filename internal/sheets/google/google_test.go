package google

import (
	"context"
	"strings"
	"testing"
	"time"

	"aqualedger/internal/core"
	"aqualedger/internal/report"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	if err == nil || err.Error() != "missing spreadsheet id" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "test-id"}, nil)
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "test-id", CredentialsFile: t.TempDir() + "/nope.json"}, nil)
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestClientWithoutService(t *testing.T) {
	c := newClient(nil, Config{SpreadsheetID: "test"}, nil)
	e := report.BuildExport(core.EmptyCollections(), "Blue Drop", time.Now())
	if _, err := c.WriteSummary(context.Background(), e); err == nil {
		t.Error("expected error without service")
	}
	if err := c.WriteDues(context.Background(), "Blue Drop", nil); err == nil {
		t.Error("expected error without service")
	}
}

func TestDefaultSheetNames(t *testing.T) {
	c := newClient(nil, Config{SpreadsheetID: "x"}, nil)
	if c.summaryBase != "Summary" || c.duesBase != "Dues" {
		t.Fatalf("unexpected defaults %q %q", c.summaryBase, c.duesBase)
	}
	c = newClient(nil, Config{SpreadsheetID: "x", SummarySheet: " Totals ", DuesSheet: "Owed"}, nil)
	if c.summaryBase != "Totals" || c.duesBase != "Owed" {
		t.Fatalf("unexpected names %q %q", c.summaryBase, c.duesBase)
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Summary", 2025, "2025 Summary"},
		{"2024 Summary", 2025, "2024 Summary"},
		{"  Summary ", 2026, "2026 Summary"},
		{"", 2025, ""},
		{"12345", 2025, "2025 12345"},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}

func TestDuesSheetName(t *testing.T) {
	if got := duesSheetName("Dues", "Blue Drop"); got != "Dues - Blue Drop" {
		t.Errorf("got %q", got)
	}
	if got := duesSheetName("Dues", " "); got != "Dues" {
		t.Errorf("got %q", got)
	}
}

func TestQuoteSheet(t *testing.T) {
	if got := quoteSheet("Ali's Water"); got != "'Ali''s Water'" {
		t.Errorf("got %q", got)
	}
}
