package ledger

import (
	"sort"
	"time"

	"aqualedger/internal/core"
)

// DefaultOverdueAfterDays is how old the last delivery may be before a
// customer with an open balance counts as overdue.
const DefaultOverdueAfterDays = 30

// Due describes a customer who still owes money.
type Due struct {
	Customer         core.Customer `json:"customer"`
	Outstanding      core.Money    `json:"outstanding"`
	LastDeliveryDate core.Date     `json:"lastDeliveryDate"`
	LastPaymentDate  core.Date     `json:"lastPaymentDate"`
	DaysPending      int           `json:"daysPending"`
	IsOverdue        bool          `json:"isOverdue"`
}

// OverdueDues lists every customer with a positive outstanding balance,
// using the default 30 day threshold.
func OverdueDues(customers []core.Customer, deliveries []core.Delivery, payments []core.Payment, now time.Time) []Due {
	return OverdueDuesAfter(customers, deliveries, payments, now, DefaultOverdueAfterDays)
}

// OverdueDuesAfter lists every customer with a positive outstanding balance.
// Customers who owe nothing, or are in credit, are left out entirely.
// Results are ordered by DaysPending descending, then by outstanding
// descending; equal rows keep collection order.
func OverdueDuesAfter(customers []core.Customer, deliveries []core.Delivery, payments []core.Payment, now time.Time, afterDays int) []Due {
	today := core.Today(now)
	dues := make([]Due, 0)
	for _, c := range customers {
		owed := Outstanding(c.FlatNumber, deliveries, payments)
		if !owed.IsPositive() {
			continue
		}
		due := Due{Customer: c, Outstanding: owed}
		if d, ok := LatestDelivery(c.FlatNumber, deliveries); ok {
			due.LastDeliveryDate = d.Date
			due.DaysPending = today.DaysSince(d.Date)
			due.IsOverdue = due.DaysPending > afterDays
		}
		if p, ok := LatestPayment(c.FlatNumber, payments); ok {
			due.LastPaymentDate = p.Date
		}
		dues = append(dues, due)
	}
	sort.SliceStable(dues, func(i, j int) bool {
		if dues[i].DaysPending != dues[j].DaysPending {
			return dues[i].DaysPending > dues[j].DaysPending
		}
		return dues[i].Outstanding.Cents > dues[j].Outstanding.Cents
	})
	return dues
}

// LatestDelivery returns the most recent delivery for a flat. Deliveries on
// the same day are ordered by CreatedAt, then ID, newest first.
func LatestDelivery(flat string, deliveries []core.Delivery) (core.Delivery, bool) {
	var (
		best  core.Delivery
		found bool
	)
	for _, d := range deliveries {
		if !core.SameFlat(d.FlatNumber, flat) {
			continue
		}
		if !found || newer(d.Date, d.CreatedAt, d.ID, best.Date, best.CreatedAt, best.ID) {
			best, found = d, true
		}
	}
	return best, found
}

// LatestPayment returns the most recent payment for a flat, with the same
// tie-break as LatestDelivery.
func LatestPayment(flat string, payments []core.Payment) (core.Payment, bool) {
	var (
		best  core.Payment
		found bool
	)
	for _, p := range payments {
		if !core.SameFlat(p.FlatNumber, flat) {
			continue
		}
		if !found || newer(p.Date, p.CreatedAt, p.ID, best.Date, best.CreatedAt, best.ID) {
			best, found = p, true
		}
	}
	return best, found
}

func newer(date core.Date, created time.Time, id string, thanDate core.Date, thanCreated time.Time, thanID string) bool {
	if !date.Equal(thanDate.Time) {
		return date.After(thanDate.Time)
	}
	if !created.Equal(thanCreated) {
		return created.After(thanCreated)
	}
	return id > thanID
}
