package sheets

import (
	"aqualedger/internal/ledger"
	"aqualedger/internal/report"
)

// SummaryHeader names the columns of SummaryRow.
var SummaryHeader = []any{
	"Date", "Business", "Customers", "Deliveries", "Bottles", "Empties",
	"Revenue", "Collected", "Expenses", "Outstanding", "Net profit", "Collection rate %",
}

// SummaryRow flattens an export's totals into spreadsheet cells.
func SummaryRow(e report.Export) []any {
	s := e.Summary
	return []any{
		e.ExportedAt.Format("2006-01-02"),
		e.Business,
		s.TotalCustomers,
		s.TotalDeliveries,
		s.BottlesDelivered,
		s.EmptiesCollected,
		s.TotalRevenue.String(),
		s.TotalCollected.String(),
		s.TotalExpenseCost.String(),
		s.TotalOutstanding.String(),
		s.NetProfit.String(),
		s.CollectionRate,
	}
}

// DuesHeader names the columns of DuesRows.
var DuesHeader = []any{"Flat", "Customer", "Phone", "Outstanding", "Last delivery", "Days pending", "Overdue"}

func DuesRows(dues []ledger.Due) [][]any {
	rows := make([][]any, 0, len(dues)+1)
	rows = append(rows, DuesHeader)
	for _, d := range dues {
		rows = append(rows, []any{
			d.Customer.FlatNumber, d.Customer.Name, d.Customer.Phone,
			d.Outstanding.String(), d.LastDeliveryDate.String(), d.DaysPending, overdueMark(d.IsOverdue),
		})
	}
	return rows
}

func overdueMark(overdue bool) string {
	if overdue {
		return "yes"
	}
	return ""
}
