package http

import (
	"net/http"
	"strings"

	"aqualedger/internal/core"
	"aqualedger/internal/ledger"
	"aqualedger/internal/services"
)

type rateRequest struct {
	Rate core.Money `json:"rate"`
}

// recordFilter narrows list endpoints by flat and, when both bounds are
// given, by date.
type recordFilter struct {
	flat    string
	span    core.DateRange
	hasSpan bool
}

func (s *Server) filterFrom(r *http.Request) (recordFilter, error) {
	f := recordFilter{flat: strings.TrimSpace(r.URL.Query().Get("flat"))}
	q := r.URL.Query()
	if q.Get("start") != "" || q.Get("end") != "" || q.Get("range") != "" {
		span, err := s.dateSpan(r)
		if err != nil {
			return f, err
		}
		f.span, f.hasSpan = span, true
	}
	return f, nil
}

func (f recordFilter) keep(flat string, date core.Date) bool {
	if f.flat != "" && !core.SameFlat(flat, f.flat) {
		return false
	}
	return !f.hasSpan || date.Within(f.span.Start, f.span.End)
}

func filtered[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func (s *Server) today(d core.Date) core.Date {
	if d.IsZero() {
		return core.Today(s.now())
	}
	return d
}

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	c := s.ledger.Snapshot(r.Context(), sessionFrom(r.Context()))
	writeJSON(w, http.StatusOK, c.Customers)
}

func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var in services.CustomerInput
	if err := decodeJSON(w, r, &in, maxBodyBytes); err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.ledger.AddCustomer(r.Context(), sessionFrom(r.Context()), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteCustomer(r.Context(), sessionFrom(r.Context()), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateRate(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.ledger.UpdateCustomerRate(r.Context(), sessionFrom(r.Context()), r.PathValue("id"), req.Rate)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleOutstanding(w http.ResponseWriter, r *http.Request) {
	c := s.ledger.Snapshot(r.Context(), sessionFrom(r.Context()))
	customer, ok := c.FindCustomerByFlat(r.PathValue("flat"))
	if !ok {
		s.fail(w, r, services.ErrCustomerNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"flatNumber":  customer.FlatNumber,
		"outstanding": ledger.Outstanding(customer.FlatNumber, c.Deliveries, c.Payments),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	c := s.ledger.Snapshot(r.Context(), sessionFrom(r.Context()))
	customer, ok := c.FindCustomerByFlat(r.PathValue("flat"))
	if !ok {
		s.fail(w, r, services.ErrCustomerNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"customer":    customer,
		"outstanding": ledger.Outstanding(customer.FlatNumber, c.Deliveries, c.Payments),
		"lines":       ledger.Statement(customer.FlatNumber, c.Deliveries, c.Payments),
	})
}

func (s *Server) handleListDeliveries(w http.ResponseWriter, r *http.Request) {
	f, err := s.filterFrom(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c := s.ledger.Snapshot(r.Context(), sessionFrom(r.Context()))
	writeJSON(w, http.StatusOK, filtered(c.Deliveries, func(d core.Delivery) bool { return f.keep(d.FlatNumber, d.Date) }))
}

func (s *Server) handleCreateDelivery(w http.ResponseWriter, r *http.Request) {
	var in services.DeliveryInput
	if err := decodeJSON(w, r, &in, maxBodyBytes); err != nil {
		s.fail(w, r, err)
		return
	}
	in.Date = s.today(in.Date)
	d, err := s.ledger.AddDelivery(r.Context(), sessionFrom(r.Context()), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleDeleteDelivery(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteDelivery(r.Context(), sessionFrom(r.Context()), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	f, err := s.filterFrom(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c := s.ledger.Snapshot(r.Context(), sessionFrom(r.Context()))
	writeJSON(w, http.StatusOK, filtered(c.Payments, func(p core.Payment) bool { return f.keep(p.FlatNumber, p.Date) }))
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var in services.PaymentInput
	if err := decodeJSON(w, r, &in, maxBodyBytes); err != nil {
		s.fail(w, r, err)
		return
	}
	in.Date = s.today(in.Date)
	p, err := s.ledger.RecordPayment(r.Context(), sessionFrom(r.Context()), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeletePayment(r.Context(), sessionFrom(r.Context()), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	f, err := s.filterFrom(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	category := core.ExpenseCategory(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("category"))))
	c := s.ledger.Snapshot(r.Context(), sessionFrom(r.Context()))
	writeJSON(w, http.StatusOK, filtered(c.Expenses, func(e core.Expense) bool {
		if category != "" && e.Category != category {
			return false
		}
		return !f.hasSpan || e.Date.Within(f.span.Start, f.span.End)
	}))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var in services.ExpenseInput
	if err := decodeJSON(w, r, &in, maxBodyBytes); err != nil {
		s.fail(w, r, err)
		return
	}
	in.Date = s.today(in.Date)
	e, err := s.ledger.AddExpense(r.Context(), sessionFrom(r.Context()), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteExpense(r.Context(), sessionFrom(r.Context()), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
