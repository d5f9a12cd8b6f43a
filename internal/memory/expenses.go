// Package memory provides in-process tables used for development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"expensetracker/internal/core"
)

type expenseKey struct {
	userID    string
	expenseID string
}

// ExpenseTable keeps expenses in a map guarded by a mutex held for the whole
// of every write, so updates are observed atomically.
type ExpenseTable struct {
	mu    sync.RWMutex
	items map[expenseKey]core.Expense
}

func NewExpenseTable() *ExpenseTable {
	return &ExpenseTable{items: make(map[expenseKey]core.Expense)}
}

func (t *ExpenseTable) PutExpense(_ context.Context, e core.Expense) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items[expenseKey{e.UserID, e.ExpenseID}] = cloneExpense(e)
	return nil
}

func (t *ExpenseTable) GetExpense(_ context.Context, userID, expenseID string) (*core.Expense, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.items[expenseKey{userID, expenseID}]
	if !ok {
		return nil, nil
	}
	out := cloneExpense(e)
	return &out, nil
}

func (t *ExpenseTable) UpdateExpense(_ context.Context, userID, expenseID string, patch core.ExpensePatch) (core.Expense, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := expenseKey{userID, expenseID}
	e, ok := t.items[k]
	if !ok {
		return core.Expense{}, core.ErrExpenseNotFound
	}
	e = patch.Apply(e)
	t.items[k] = e
	return cloneExpense(e), nil
}

func (t *ExpenseTable) DeleteExpense(_ context.Context, userID, expenseID string) (*core.Expense, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := expenseKey{userID, expenseID}
	e, ok := t.items[k]
	if !ok {
		return nil, nil
	}
	delete(t.items, k)
	return &e, nil
}

func (t *ExpenseTable) QueryIndex(_ context.Context, partitionKey string) ([]core.Expense, error) {
	out := t.filter(func(e core.Expense) bool { return e.GSI1PK == partitionKey })
	sort.SliceStable(out, func(i, j int) bool { return out[i].GSI1SK < out[j].GSI1SK })
	return out, nil
}

func (t *ExpenseTable) QueryIDPrefix(_ context.Context, userID, prefix string) ([]core.Expense, error) {
	out := t.filter(func(e core.Expense) bool {
		return e.UserID == userID && strings.HasPrefix(e.ExpenseID, prefix)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ExpenseID < out[j].ExpenseID })
	return out, nil
}

func (t *ExpenseTable) ScanMonth(_ context.Context, monthKey string) ([]core.Expense, error) {
	return t.filter(func(e core.Expense) bool { return e.MonthKey == monthKey }), nil
}

func (t *ExpenseTable) ScanExpenses(_ context.Context, fn func(core.Expense) error) error {
	for _, e := range t.filter(func(core.Expense) bool { return true }) {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of stored expenses.
func (t *ExpenseTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.items)
}

func (t *ExpenseTable) filter(keep func(core.Expense) bool) []core.Expense {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]core.Expense, 0)
	for _, e := range t.items {
		if keep(e) {
			out = append(out, cloneExpense(e))
		}
	}
	// primary key order, like a sorted key-value store
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].ExpenseID < out[j].ExpenseID
	})
	return out
}

func cloneExpense(e core.Expense) core.Expense {
	if e.Note != nil {
		n := *e.Note
		e.Note = &n
	}
	e.User = nil
	return e
}
