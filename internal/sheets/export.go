package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

// Header is the first row of every month tab.
var Header = []interface{}{"Date", "User", "Category", "Note", "Amount", "Currency", "Expense ID"}

// Exporter writes the household view of a month into a tab named after the
// month key.
type Exporter struct {
	expenses MonthLister
	writer   TabWriter
}

func NewExporter(expenses MonthLister, writer TabWriter) *Exporter {
	return &Exporter{expenses: expenses, writer: writer}
}

// ExportMonth clears and rewrites the tab for monthKey. A month without
// expenses still gets a tab holding the header, so deletions are reflected.
func (x *Exporter) ExportMonth(ctx context.Context, monthKey string) error {
	items, err := x.expenses.ListAllByMonth(ctx, monthKey)
	if err != nil {
		return fmt.Errorf("list month %s: %w", monthKey, err)
	}
	rows := MonthRows(monthKey, items)
	if err := x.writer.ReplaceTab(ctx, monthKey, rows); err != nil {
		return fmt.Errorf("write tab %s: %w", monthKey, err)
	}
	slog.InfoContext(ctx, "Exported month to sheet",
		log.FieldComponent, log.ComponentSheets,
		log.FieldOperation, log.OpExport,
		log.FieldMonthKey, monthKey,
		log.FieldSheetsRange, monthKey,
		"rows", len(rows))
	return nil
}

// MonthRows lays out the expenses followed by a blank row, per-currency
// totals and per-category subtotals.
func MonthRows(monthKey string, items []core.Expense) [][]interface{} {
	rows := make([][]interface{}, 0, len(items)+8)
	rows = append(rows, Header)
	for _, e := range items {
		note := ""
		if e.Note != nil {
			note = *e.Note
		}
		user := e.UserID
		if e.User != nil {
			user = e.User.DisplayName()
		}
		rows = append(rows, []interface{}{
			dateOf(e),
			user,
			e.Category,
			note,
			core.MajorUnits(e.AmountMinor, e.Currency),
			e.Currency,
			e.ExpenseID,
		})
	}

	ov := core.Summarize(monthKey, items)
	if ov.Count == 0 {
		return rows
	}
	rows = append(rows, []interface{}{})
	for _, t := range ov.Totals {
		rows = append(rows, []interface{}{"Total", "", "", "", core.MajorUnits(t.AmountMinor, t.Currency), t.Currency})
	}
	for _, c := range ov.ByCategory {
		rows = append(rows, []interface{}{"Category", "", c.Name, "", core.MajorUnits(c.AmountMinor, c.Currency), c.Currency})
	}
	return rows
}

// dateOf prefers the UTC calendar date of occurredAt and falls back to the
// id prefix for rows with an unparsable timestamp.
func dateOf(e core.Expense) string {
	if t, err := core.ParseTimestamp(e.OccurredAt); err == nil {
		return t.UTC().Format(core.DateLayout)
	}
	return core.ExpenseDate(e.ExpenseID)
}
