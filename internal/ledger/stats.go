package ledger

import "aqualedger/internal/core"

// Stats aggregates the records that fall inside a date range.
type Stats struct {
	DeliveryCount    int        `json:"deliveryCount"`
	BottlesDelivered int        `json:"bottlesDelivered"`
	EmptiesCollected int        `json:"emptiesCollected"`
	Revenue          core.Money `json:"revenue"`
	Collected        core.Money `json:"collected"`
	ExpenseTotal     core.Money `json:"expenseTotal"`
	// Profit is cash based: money collected minus money spent.
	Profit core.Money `json:"profit"`
}

// DateRangeStats filters each collection to [start, end] and aggregates it.
func DateRangeStats(deliveries []core.Delivery, payments []core.Payment, expenses []core.Expense, start, end core.Date) Stats {
	var s Stats
	for _, d := range deliveries {
		if !d.Date.Within(start, end) {
			continue
		}
		s.DeliveryCount++
		s.BottlesDelivered += d.Bottles
		s.EmptiesCollected += d.Empties
		s.Revenue = s.Revenue.Add(d.Amount)
	}
	for _, p := range payments {
		if p.Date.Within(start, end) {
			s.Collected = s.Collected.Add(p.AmountReceived)
		}
	}
	for _, e := range expenses {
		if e.Date.Within(start, end) {
			s.ExpenseTotal = s.ExpenseTotal.Add(e.Amount)
		}
	}
	s.Profit = s.Collected.Sub(s.ExpenseTotal)
	return s
}

// RangeStats is DateRangeStats over a core.DateRange.
func RangeStats(c core.Collections, r core.DateRange) Stats {
	return DateRangeStats(c.Deliveries, c.Payments, c.Expenses, r.Start, r.End)
}
