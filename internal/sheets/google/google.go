package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"aqualedger/internal/ledger"
	"aqualedger/internal/report"
	ports "aqualedger/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Config selects the spreadsheet and how to authenticate against it.
type Config struct {
	SpreadsheetID string
	// Base names without year; the year of the export is prefixed.
	SummarySheet string
	DuesSheet    string
	// Service account credentials, inline or as a file path.
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	summaryBase   string
	duesBase      string
	logger        *slog.Logger
}

var _ ports.Publisher = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if logger == nil {
		logger = slog.Default()
	}
	svc, err := newSheetsService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(svc, cfg, logger), nil
}

func newClient(svc *gsheet.Service, cfg Config, logger *slog.Logger) *Client {
	summary := strings.TrimSpace(cfg.SummarySheet)
	if summary == "" {
		summary = "Summary"
	}
	dues := strings.TrimSpace(cfg.DuesSheet)
	if dues == "" {
		dues = "Dues"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
		summaryBase:   summary,
		duesBase:      dues,
		logger:        logger,
	}
}

func newSheetsService(ctx context.Context, cfg Config, logger *slog.Logger) (*gsheet.Service, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	file := strings.TrimSpace(cfg.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var creds []byte
	switch {
	case inline != "":
		creds = []byte(inline)
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		creds = b
	default:
		return nil, errors.New("missing service account credentials")
	}

	logger.InfoContext(ctx, "Creating Google Sheets service",
		"credentials_size", len(creds),
		"scope", gsheet.SpreadsheetsScope)

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// WriteSummary upserts the export's summary row keyed by date and business.
func (c *Client) WriteSummary(ctx context.Context, e report.Export) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	sheet := yearPrefixedName(c.summaryBase, e.ExportedAt.Year())
	if err := c.ensureSheet(ctx, sheet); err != nil {
		return "", err
	}

	rng := fmt.Sprintf("%s!A:B", quoteSheet(sheet))
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rng, err)
	}

	row := ports.SummaryRow(e)
	day := e.ExportedAt.Format("2006-01-02")
	if n := findSummaryRow(resp.Values, day, e.Business); n > 0 {
		target := fmt.Sprintf("%s!A%d", quoteSheet(sheet), n)
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, target, &gsheet.ValueRange{Values: [][]any{row}}).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("update %s: %w", target, err)
		}
		c.logger.InfoContext(ctx, "Summary row updated", "sheet", sheet, "row", n)
		return target, nil
	}

	values := [][]any{row}
	if len(resp.Values) == 0 {
		values = [][]any{ports.SummaryHeader, row}
	}
	out, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, fmt.Sprintf("%s!A1", quoteSheet(sheet)), &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", sheet, err)
	}
	ref := sheet
	if out.Updates != nil {
		ref = out.Updates.UpdatedRange
	}
	c.logger.InfoContext(ctx, "Summary row appended", "sheet", sheet, "range", ref)
	return ref, nil
}

// WriteDues clears the business's dues sheet and writes the current list.
func (c *Client) WriteDues(ctx context.Context, business string, dues []ledger.Due) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	sheet := duesSheetName(c.duesBase, business)
	if err := c.ensureSheet(ctx, sheet); err != nil {
		return err
	}

	all := fmt.Sprintf("%s!A:Z", quoteSheet(sheet))
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, all, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", sheet, err)
	}
	rows := ports.DuesRows(dues)
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, fmt.Sprintf("%s!A1", quoteSheet(sheet)), &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", sheet, err)
	}
	c.logger.InfoContext(ctx, "Dues sheet written", "sheet", sheet, "rows", len(dues))
	return nil
}

// ensureSheet adds the tab if the spreadsheet does not have it yet.
func (c *Client) ensureSheet(ctx context.Context, name string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == name {
			return nil
		}
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: name}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", name, err)
	}
	c.logger.InfoContext(ctx, "Sheet created", "sheet", name)
	return nil
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}

func duesSheetName(base, business string) string {
	business = strings.TrimSpace(business)
	if business == "" {
		return base
	}
	return base + " - " + business
}

// quoteSheet wraps a sheet title for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
