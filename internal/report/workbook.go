package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary    = "Summary"
	sheetCustomers  = "Customers"
	sheetDeliveries = "Deliveries"
	sheetPayments   = "Payments"
	sheetExpenses   = "Expenses"
)

// WriteWorkbook renders the export as an XLSX workbook with one sheet per
// collection plus a summary sheet.
func WriteWorkbook(w io.Writer, e Export) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	for _, name := range []string{sheetCustomers, sheetDeliveries, sheetPayments, sheetExpenses} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	s := e.Summary
	summary := [][]any{
		{"Business", e.Business},
		{"Exported at", e.ExportedAt.Format("2006-01-02 15:04:05")},
		{"Customers", s.TotalCustomers},
		{"Deliveries", s.TotalDeliveries},
		{"Bottles delivered", s.BottlesDelivered},
		{"Empties collected", s.EmptiesCollected},
		{"Revenue", s.TotalRevenue.Units()},
		{"Collected", s.TotalCollected.Units()},
		{"Expenses", s.TotalExpenseCost.Units()},
		{"Outstanding", s.TotalOutstanding.Units()},
		{"Net profit", s.NetProfit.Units()},
		{"Collection rate %", s.CollectionRate},
	}
	if err := writeRows(f, sheetSummary, []string{"Metric", "Value"}, summary, headerStyle); err != nil {
		return err
	}

	customers := make([][]any, 0, len(e.Customers))
	for _, c := range e.Customers {
		customers = append(customers, []any{c.FlatNumber, c.Name, c.Phone, c.Rate.Units(), c.CreatedAt.Format("2006-01-02")})
	}
	if err := writeRows(f, sheetCustomers, []string{"Flat", "Name", "Phone", "Rate", "Since"}, customers, headerStyle); err != nil {
		return err
	}

	deliveries := make([][]any, 0, len(e.Deliveries))
	for _, d := range e.Deliveries {
		deliveries = append(deliveries, []any{d.Date.String(), d.FlatNumber, d.CustomerName, d.Bottles, d.Empties, d.Amount.Units(), d.Note})
	}
	if err := writeRows(f, sheetDeliveries, []string{"Date", "Flat", "Customer", "Bottles", "Empties", "Amount", "Note"}, deliveries, headerStyle); err != nil {
		return err
	}

	payments := make([][]any, 0, len(e.Payments))
	for _, p := range e.Payments {
		payments = append(payments, []any{
			p.Date.String(), p.FlatNumber, p.CustomerName, p.TotalBill.Units(), p.AmountReceived.Units(),
			p.RemainingBalance.Units(), string(p.Method), string(p.Status), p.Note,
		})
	}
	if err := writeRows(f, sheetPayments, []string{"Date", "Flat", "Customer", "Total bill", "Received", "Remaining", "Method", "Status", "Note"}, payments, headerStyle); err != nil {
		return err
	}

	expenses := make([][]any, 0, len(e.Expenses))
	for _, x := range e.Expenses {
		expenses = append(expenses, []any{x.Date.String(), string(x.Category), x.Description, x.Amount.Units(), string(x.Method), x.Note})
	}
	if err := writeRows(f, sheetExpenses, []string{"Date", "Category", "Description", "Amount", "Method", "Note"}, expenses, headerStyle); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, headers []string, rows [][]any, headerStyle int) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("%s header: %w", sheet, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("%s header style: %w", sheet, err)
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, 16)
	}
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("%s row %d: %w", sheet, r+2, err)
			}
		}
	}
	return nil
}
