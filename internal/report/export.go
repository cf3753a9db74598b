package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"aqualedger/internal/core"
	"aqualedger/internal/ledger"
)

// Summary holds the precomputed totals carried in a backup.
type Summary struct {
	TotalCustomers   int        `json:"totalCustomers"`
	TotalDeliveries  int        `json:"totalDeliveries"`
	TotalPayments    int        `json:"totalPayments"`
	TotalExpenses    int        `json:"totalExpenses"`
	BottlesDelivered int        `json:"bottlesDelivered"`
	EmptiesCollected int        `json:"emptiesCollected"`
	TotalRevenue     core.Money `json:"totalRevenue"`
	TotalCollected   core.Money `json:"totalCollected"`
	TotalExpenseCost core.Money `json:"totalExpenseAmount"`
	TotalOutstanding core.Money `json:"totalOutstanding"`
	NetProfit        core.Money `json:"netProfit"`
	CollectionRate   float64    `json:"collectionRate"`
}

// Export is the self-describing backup document.
type Export struct {
	Business   string          `json:"business"`
	ExportedAt time.Time       `json:"exportedAt"`
	LastSaved  time.Time       `json:"lastSaved"`
	Customers  []core.Customer `json:"customers"`
	Deliveries []core.Delivery `json:"deliveries"`
	Payments   []core.Payment  `json:"payments"`
	Expenses   []core.Expense  `json:"expenses"`
	Summary    Summary         `json:"summary"`
}

// BuildExport snapshots c. The returned export owns copies of the record
// slices, so later changes to c do not leak into it.
func BuildExport(c core.Collections, business string, now time.Time) Export {
	c = c.Normalize()
	return Export{
		Business:   business,
		ExportedAt: now.UTC(),
		LastSaved:  c.LastSaved,
		Customers:  append([]core.Customer{}, c.Customers...),
		Deliveries: append([]core.Delivery{}, c.Deliveries...),
		Payments:   append([]core.Payment{}, c.Payments...),
		Expenses:   append([]core.Expense{}, c.Expenses...),
		Summary:    Summarize(c),
	}
}

// Summarize computes all-time totals over c.
func Summarize(c core.Collections) Summary {
	s := Summary{
		TotalCustomers:  len(c.Customers),
		TotalDeliveries: len(c.Deliveries),
		TotalPayments:   len(c.Payments),
		TotalExpenses:   len(c.Expenses),
	}
	for _, d := range c.Deliveries {
		s.BottlesDelivered += d.Bottles
		s.EmptiesCollected += d.Empties
		s.TotalRevenue = s.TotalRevenue.Add(d.Amount)
	}
	for _, p := range c.Payments {
		s.TotalCollected = s.TotalCollected.Add(p.AmountReceived)
	}
	for _, e := range c.Expenses {
		s.TotalExpenseCost = s.TotalExpenseCost.Add(e.Amount)
	}
	s.TotalOutstanding = ledger.TotalOutstanding(c.Customers, c.Deliveries, c.Payments)
	s.NetProfit = s.TotalCollected.Sub(s.TotalExpenseCost)
	s.CollectionRate = math.Round(CollectionRate(s.TotalCollected, s.TotalRevenue)*100) / 100
	return s
}

// Collections returns the record set carried by the export.
func (e Export) Collections() core.Collections {
	return core.Collections{
		Customers:  e.Customers,
		Deliveries: e.Deliveries,
		Payments:   e.Payments,
		Expenses:   e.Expenses,
		LastSaved:  e.LastSaved,
	}.Normalize()
}

// Encode writes the export as indented JSON.
func (e Export) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// DecodeExport parses a backup written by Encode.
func DecodeExport(r io.Reader) (Export, error) {
	var e Export
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		return Export{}, fmt.Errorf("decode export: %w", err)
	}
	c := e.Collections()
	e.Customers, e.Deliveries, e.Payments, e.Expenses = c.Customers, c.Deliveries, c.Payments, c.Expenses
	return e, nil
}

// ExportFilename is <business-slug>-backup-<YYYY-MM-DD>.json.
func ExportFilename(business string, now time.Time) string {
	return baseFilename(business, now) + ".json"
}

// WorkbookFilename is ExportFilename with an .xlsx extension.
func WorkbookFilename(business string, now time.Time) string {
	return baseFilename(business, now) + ".xlsx"
}

func baseFilename(business string, now time.Time) string {
	slug := core.Slug(business)
	if slug == "" {
		slug = "business"
	}
	return slug + "-backup-" + core.Today(now).String()
}
