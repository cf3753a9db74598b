package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"aqualedger/internal/core"
	"aqualedger/internal/ledger"
	applog "aqualedger/internal/log"
	"aqualedger/internal/report"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	span, err := s.dateSpan(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c := s.ledger.Snapshot(r.Context(), sessionFrom(r.Context()))
	writeJSON(w, http.StatusOK, map[string]any{
		"range": span,
		"stats": ledger.RangeStats(c, span),
	})
}

// handleDues lists customers who owe money; ?overdue=true keeps only those
// past the threshold.
func (s *Server) handleDues(w http.ResponseWriter, r *http.Request) {
	c := s.ledger.Snapshot(r.Context(), sessionFrom(r.Context()))
	dues := ledger.OverdueDuesAfter(c.Customers, c.Deliveries, c.Payments, s.now(), s.overdueAfter)
	if r.URL.Query().Get("overdue") == "true" {
		dues = filtered(dues, func(d ledger.Due) bool { return d.IsOverdue })
	}
	writeJSON(w, http.StatusOK, dues)
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	c := s.ledger.Snapshot(r.Context(), sessionFrom(r.Context()))
	writeJSON(w, http.StatusOK, map[string]any{
		"balances":         ledger.Balances(c.Customers, c.Deliveries, c.Payments),
		"totalOutstanding": ledger.TotalOutstanding(c.Customers, c.Deliveries, c.Payments),
	})
}

func (s *Server) handleTopCustomers(w http.ResponseWriter, r *http.Request) {
	n, err := queryInt(r, "n", 5)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c := s.ledger.Snapshot(r.Context(), sessionFrom(r.Context()))
	writeJSON(w, http.StatusOK, report.TopCustomersByRevenue(c.Customers, c.Deliveries, n))
}

// handleCategories totals expenses per category for the span; a
// comma-separated ?categories= narrows the set.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	span, err := s.dateSpan(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var cats []core.ExpenseCategory
	for _, raw := range strings.Split(r.URL.Query().Get("categories"), ",") {
		if raw = strings.ToLower(strings.TrimSpace(raw)); raw != "" {
			cats = append(cats, core.ExpenseCategory(raw))
		}
	}
	c := s.ledger.Snapshot(r.Context(), sessionFrom(r.Context()))
	stats := ledger.RangeStats(c, span)
	writeJSON(w, http.StatusOK, map[string]any{
		"range":          span,
		"categories":     report.CategoryBreakdown(c.Expenses, cats, span.Start, span.End),
		"collectionRate": report.CollectionRate(stats.Collected, stats.Revenue),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	now := s.now()
	e := report.BuildExport(s.ledger.Snapshot(r.Context(), sess), sess.BusinessName, now)

	var buf bytes.Buffer
	if err := e.Encode(&buf); err != nil {
		s.fail(w, r, fmt.Errorf("encode export: %w", err))
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Export generated",
		applog.FieldOperation, applog.OpExport, "bytes", buf.Len())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.ExportFilename(sess.BusinessName, now)))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleExportWorkbook(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	now := s.now()
	e := report.BuildExport(s.ledger.Snapshot(r.Context(), sess), sess.BusinessName, now)

	var buf bytes.Buffer
	if err := report.WriteWorkbook(&buf, e); err != nil {
		s.fail(w, r, fmt.Errorf("write workbook: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.WorkbookFilename(sess.BusinessName, now)))
	_, _ = w.Write(buf.Bytes())
}

// handleImport replaces every collection with the posted backup.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var e report.Export
	if err := decodeJSON(w, r, &e, maxImportBytes); err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.ledger.Restore(r.Context(), sessionFrom(r.Context()), e)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report.Summarize(c))
}
