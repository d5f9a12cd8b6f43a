// Package sheets renders a month of expenses as spreadsheet rows and
// exports it through a TabWriter.
package sheets

import (
	"context"

	"expensetracker/internal/core"
)

// Ports for outbound adapters.
type (
	// TabWriter replaces the full content of one tab, creating it if needed.
	TabWriter interface {
		ReplaceTab(ctx context.Context, tab string, rows [][]interface{}) error
	}

	// MonthLister returns every expense of a month, oldest first, with
	// owner profiles attached where known.
	MonthLister interface {
		ListAllByMonth(ctx context.Context, month string) ([]core.Expense, error)
	}
)
