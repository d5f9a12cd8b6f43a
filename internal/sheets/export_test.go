package sheets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
)

type fakeLister struct {
	items map[string][]core.Expense
	err   error
}

func (f fakeLister) ListAllByMonth(_ context.Context, month string) ([]core.Expense, error) {
	return f.items[month], f.err
}

type fakeWriter struct {
	tabs map[string][][]interface{}
	err  error
}

func (f *fakeWriter) ReplaceTab(_ context.Context, tab string, rows [][]interface{}) error {
	if f.err != nil {
		return f.err
	}
	if f.tabs == nil {
		f.tabs = map[string][][]interface{}{}
	}
	f.tabs[tab] = rows
	return nil
}

func expense(user, id, at, currency, category string, amount int64) core.Expense {
	return core.Expense{UserID: user, ExpenseID: id, OccurredAt: at, Currency: currency, Category: category, AmountMinor: amount}
}

func TestMonthRows(t *testing.T) {
	note := "Lunch"
	first := expense("u1", "2025-10-01#a", "2025-10-01T12:00:00Z", "USD", "Food", 1999)
	first.Note = &note
	ada := "Ada"
	first.User = &core.UserProfile{UserID: "u1", Email: "ada@example.com", FirstName: &ada}
	items := []core.Expense{
		first,
		expense("u2", "2025-10-02#b", "2025-10-02T08:00:00Z", "USD", "Travel", 5000),
		expense("u2", "2025-10-03#c", "2025-10-03T08:00:00Z", "JPY", "Food", 1200),
	}

	rows := MonthRows("2025-10", items)
	require.Len(t, rows, 1+3+1+2+3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []interface{}{"2025-10-01", "Ada", "Food", "Lunch", 19.99, "USD", "2025-10-01#a"}, rows[1])
	assert.Equal(t, "u2", rows[2][1], "users without a profile show their id")
	assert.Empty(t, rows[4])
	assert.Equal(t, []interface{}{"Total", "", "", "", float64(1200), "JPY"}, rows[5])
	assert.Equal(t, []interface{}{"Total", "", "", "", 69.99, "USD"}, rows[6])
	assert.Equal(t, "Travel", rows[7][2], "largest category first")
	assert.Equal(t, "Food", rows[8][2])
}

func TestMonthRowsEmptyMonth(t *testing.T) {
	assert.Equal(t, [][]interface{}{Header}, MonthRows("2025-10", nil))
}

func TestExportMonth(t *testing.T) {
	lister := fakeLister{items: map[string][]core.Expense{
		"2025-10": {expense("u1", "2025-10-01#a", "2025-10-01T12:00:00Z", "EUR", "Food", 250)},
	}}
	w := &fakeWriter{}

	require.NoError(t, NewExporter(lister, w).ExportMonth(context.Background(), "2025-10"))
	require.Contains(t, w.tabs, "2025-10")
	assert.Len(t, w.tabs["2025-10"], 1+1+1+1+1)

	require.NoError(t, NewExporter(lister, w).ExportMonth(context.Background(), "2025-11"))
	assert.Len(t, w.tabs["2025-11"], 1)
}

func TestExportMonthErrors(t *testing.T) {
	err := NewExporter(fakeLister{err: errors.New("scan failed")}, &fakeWriter{}).ExportMonth(context.Background(), "2025-10")
	assert.ErrorContains(t, err, "scan failed")

	err = NewExporter(fakeLister{}, &fakeWriter{err: errors.New("quota")}).ExportMonth(context.Background(), "2025-10")
	assert.ErrorContains(t, err, "quota")
}
