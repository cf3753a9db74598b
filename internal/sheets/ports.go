// Package sheets defines the outbound ports used to mirror ledger reports
// into a spreadsheet.
package sheets

import (
	"context"

	"aqualedger/internal/ledger"
	"aqualedger/internal/report"
)

type (
	// SummaryWriter records one summary row per business per export day.
	// Writing the same day twice replaces the earlier row.
	SummaryWriter interface {
		WriteSummary(ctx context.Context, e report.Export) (rowRef string, err error)
	}

	// DuesWriter replaces the overdue list of a business.
	DuesWriter interface {
		WriteDues(ctx context.Context, business string, dues []ledger.Due) error
	}

	// Publisher is the full set the export command needs.
	Publisher interface {
		SummaryWriter
		DuesWriter
	}
)
