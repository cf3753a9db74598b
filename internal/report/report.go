// Package report ranks customers, totals expenses by category and builds
// backup snapshots of a business's collections.
package report

import (
	"sort"

	"aqualedger/internal/core"
)

// CustomerRevenue is a customer joined to the value of all its deliveries.
type CustomerRevenue struct {
	Customer core.Customer `json:"customer"`
	Revenue  core.Money    `json:"revenue"`
	Bottles  int           `json:"bottles"`
}

// TopCustomersByRevenue ranks customers by total delivery amount, highest
// first. Customers with equal revenue keep collection order. n <= 0 returns
// every customer.
func TopCustomersByRevenue(customers []core.Customer, deliveries []core.Delivery, n int) []CustomerRevenue {
	ranked := make([]CustomerRevenue, 0, len(customers))
	for _, c := range customers {
		row := CustomerRevenue{Customer: c}
		for _, d := range deliveries {
			if core.SameFlat(d.FlatNumber, c.FlatNumber) {
				row.Revenue = row.Revenue.Add(d.Amount)
				row.Bottles += d.Bottles
			}
		}
		ranked = append(ranked, row)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Revenue.Cents > ranked[j].Revenue.Cents
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// CategoryTotals sums expenses dated within [start, end] per category.
// Only categories in the given set are counted (all when empty) and
// categories that total zero are left out.
func CategoryTotals(expenses []core.Expense, categories []core.ExpenseCategory, start, end core.Date) map[core.ExpenseCategory]core.Money {
	if len(categories) == 0 {
		categories = core.ExpenseCategories()
	}
	wanted := make(map[core.ExpenseCategory]bool, len(categories))
	for _, c := range categories {
		wanted[c] = true
	}

	totals := map[core.ExpenseCategory]core.Money{}
	for _, e := range expenses {
		if !wanted[e.Category] || !e.Date.Within(start, end) {
			continue
		}
		totals[e.Category] = totals[e.Category].Add(e.Amount)
	}
	for c, amt := range totals {
		if amt.Cents == 0 {
			delete(totals, c)
		}
	}
	return totals
}

// CategoryBreakdown is CategoryTotals as a list in category display order.
func CategoryBreakdown(expenses []core.Expense, categories []core.ExpenseCategory, start, end core.Date) []core.CategoryAmount {
	totals := CategoryTotals(expenses, categories, start, end)
	out := make([]core.CategoryAmount, 0, len(totals))
	for _, c := range core.ExpenseCategories() {
		if amt, ok := totals[c]; ok {
			out = append(out, core.CategoryAmount{Category: c, Amount: amt})
		}
	}
	return out
}

// CollectionRate is collected as a percentage of revenue; 0 when there is
// no revenue.
func CollectionRate(collected, revenue core.Money) float64 {
	if revenue.Cents == 0 {
		return 0
	}
	return float64(collected.Cents) / float64(revenue.Cents) * 100
}
