//go:build integration

package google

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"aqualedger/internal/core"
	"aqualedger/internal/ledger"
	"aqualedger/internal/report"
)

// Run with: go test -tags=integration ./internal/sheets/google
func TestIntegration_WriteSummaryAndDues(t *testing.T) {
	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	cfg := Config{
		SpreadsheetID:   spreadsheetID,
		SummarySheet:    "Integration Summary",
		DuesSheet:       "Integration Dues",
		CredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CredentialsFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	}

	ctx := context.Background()
	client, err := New(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}

	c := core.EmptyCollections()
	c.Customers = []core.Customer{{ID: "c1", FlatNumber: "A", Name: "Ali", Rate: core.FromUnits(30)}}
	c.Deliveries = []core.Delivery{{ID: "d1", Date: core.NewDate(2025, 1, 1), FlatNumber: "A", Bottles: 10, Amount: core.FromUnits(300)}}
	e := report.BuildExport(c, "Integration Water", time.Now())

	first, err := client.WriteSummary(ctx, e)
	if err != nil {
		t.Fatalf("write summary: %v", err)
	}
	second, err := client.WriteSummary(ctx, e)
	if err != nil {
		t.Fatalf("rewrite summary: %v", err)
	}
	if !strings.Contains(second, "!A") {
		t.Errorf("second write should update in place, got %q (first %q)", second, first)
	}

	dues := ledger.OverdueDues(c.Customers, c.Deliveries, c.Payments, time.Now())
	if err := client.WriteDues(ctx, e.Business, dues); err != nil {
		t.Fatalf("write dues: %v", err)
	}
}
