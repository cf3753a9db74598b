// Package ledger derives balances, range statistics and overdue dues from
// the raw record collections. Every function is pure; nothing here is
// stored, so figures always reflect the collections passed in.
package ledger

import (
	"aqualedger/internal/core"
)

// CustomerBalance is the billed/paid position of one customer.
type CustomerBalance struct {
	Customer    core.Customer `json:"customer"`
	Billed      core.Money    `json:"billed"`
	Paid        core.Money    `json:"paid"`
	Outstanding core.Money    `json:"outstanding"`
	Bottles     int           `json:"bottles"`
}

// Outstanding is the sum of delivery amounts minus the sum of payments
// received for a flat. It is negative when the customer has overpaid.
func Outstanding(flat string, deliveries []core.Delivery, payments []core.Payment) core.Money {
	return billed(flat, deliveries).Sub(paid(flat, payments))
}

func billed(flat string, deliveries []core.Delivery) core.Money {
	var total core.Money
	for _, d := range deliveries {
		if core.SameFlat(d.FlatNumber, flat) {
			total = total.Add(d.Amount)
		}
	}
	return total
}

func paid(flat string, payments []core.Payment) core.Money {
	var total core.Money
	for _, p := range payments {
		if core.SameFlat(p.FlatNumber, flat) {
			total = total.Add(p.AmountReceived)
		}
	}
	return total
}

// Balances returns one row per customer in collection order.
func Balances(customers []core.Customer, deliveries []core.Delivery, payments []core.Payment) []CustomerBalance {
	out := make([]CustomerBalance, 0, len(customers))
	for _, c := range customers {
		b := CustomerBalance{
			Customer: c,
			Billed:   billed(c.FlatNumber, deliveries),
			Paid:     paid(c.FlatNumber, payments),
		}
		for _, d := range deliveries {
			if core.SameFlat(d.FlatNumber, c.FlatNumber) {
				b.Bottles += d.Bottles
			}
		}
		b.Outstanding = b.Billed.Sub(b.Paid)
		out = append(out, b)
	}
	return out
}

// TotalOutstanding sums every customer's outstanding balance, overpayments
// included, so credits offset debts.
func TotalOutstanding(customers []core.Customer, deliveries []core.Delivery, payments []core.Payment) core.Money {
	var total core.Money
	for _, c := range customers {
		total = total.Add(Outstanding(c.FlatNumber, deliveries, payments))
	}
	return total
}
