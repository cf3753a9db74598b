package ledger

import (
	"sort"

	"aqualedger/internal/core"
)

// PaymentStatus classifies a payment against the balance owed at the moment
// it was received.
func PaymentStatus(outstanding, received core.Money) core.PaymentStatus {
	switch {
	case outstanding.Cents <= 0:
		return core.StatusPending
	case received.Cents >= outstanding.Cents:
		return core.StatusFull
	case received.Cents > 0:
		return core.StatusPartial
	default:
		return core.StatusPending
	}
}

// SnapshotPayment fills TotalBill, RemainingBalance and Status on p from the
// outstanding balance observed before p is applied. The result is never
// recomputed afterwards.
func SnapshotPayment(p core.Payment, outstanding core.Money) core.Payment {
	bill := outstanding.FloorZero()
	p.TotalBill = bill
	p.RemainingBalance = bill.Sub(p.AmountReceived).FloorZero()
	p.Status = PaymentStatus(bill, p.AmountReceived)
	return p
}

// StatementLine is one entry in a customer statement.
type StatementLine struct {
	Date     core.Date  `json:"date"`
	Kind     string     `json:"kind"` // "delivery" or "payment"
	RefID    string     `json:"refId"`
	Bottles  int        `json:"bottles,omitempty"`
	Debit    core.Money `json:"debit"`
	Credit   core.Money `json:"credit"`
	Balance  core.Money `json:"balance"`
	Note     string     `json:"note,omitempty"`
	sortTime int64
}

// Statement lists a flat's deliveries and payments oldest first with a
// running balance. Within a day, deliveries precede payments and records
// keep their creation order.
func Statement(flat string, deliveries []core.Delivery, payments []core.Payment) []StatementLine {
	lines := make([]StatementLine, 0)
	for _, d := range deliveries {
		if core.SameFlat(d.FlatNumber, flat) {
			lines = append(lines, StatementLine{
				Date: d.Date, Kind: "delivery", RefID: d.ID, Bottles: d.Bottles,
				Debit: d.Amount, Note: d.Note, sortTime: d.CreatedAt.UnixNano(),
			})
		}
	}
	for _, p := range payments {
		if core.SameFlat(p.FlatNumber, flat) {
			lines = append(lines, StatementLine{
				Date: p.Date, Kind: "payment", RefID: p.ID,
				Credit: p.AmountReceived, Note: p.Note, sortTime: p.CreatedAt.UnixNano(),
			})
		}
	}
	sortStatement(lines)

	var running core.Money
	for i := range lines {
		running = running.Add(lines[i].Debit).Sub(lines[i].Credit)
		lines[i].Balance = running
	}
	return lines
}

func sortStatement(lines []StatementLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.Before(b.Date.Time)
		}
		if a.Kind != b.Kind {
			return a.Kind == "delivery"
		}
		return a.sortTime < b.sortTime
	})
}
