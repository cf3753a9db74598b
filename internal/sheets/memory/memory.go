// Package memory is an in-process spreadsheet used for dry runs and tests.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"aqualedger/internal/ledger"
	"aqualedger/internal/report"
	ports "aqualedger/internal/sheets"
)

type Store struct {
	mu      sync.Mutex
	summary [][]any
	dues    map[string][][]any
}

var _ ports.Publisher = (*Store)(nil)

func New() *Store {
	return &Store{dues: map[string][][]any{}}
}

// WriteSummary replaces the row for the same day and business, or appends.
func (s *Store) WriteSummary(_ context.Context, e report.Export) (string, error) {
	row := ports.SummaryRow(e)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.summary {
		if r[0] == row[0] && strings.EqualFold(fmt.Sprint(r[1]), e.Business) {
			s.summary[i] = row
			return fmt.Sprintf("mem:summary:%d", i+1), nil
		}
	}
	s.summary = append(s.summary, row)
	return fmt.Sprintf("mem:summary:%d", len(s.summary)), nil
}

func (s *Store) WriteDues(_ context.Context, business string, dues []ledger.Due) error {
	rows := ports.DuesRows(dues)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dues[business] = rows
	return nil
}

// SummaryRows returns a copy of the summary rows written so far.
func (s *Store) SummaryRows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]any(nil), s.summary...)
}

// Dues returns the rows last written for business, header included.
func (s *Store) Dues(business string) [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]any(nil), s.dues[business]...)
}
