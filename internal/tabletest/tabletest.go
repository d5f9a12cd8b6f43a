// Package tabletest holds behavioural tests shared by every table backend.
package tabletest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
	"expensetracker/internal/services"
)

// NewExpense builds a fully derived expense for user at occurredAt.
func NewExpense(t *testing.T, userID, occurredAt string, amount int64) core.Expense {
	t.Helper()
	id, err := core.NewExpenseID(occurredAt)
	require.NoError(t, err)
	keys, err := core.DeriveIndexKeys(userID, occurredAt)
	require.NoError(t, err)
	return core.Expense{
		UserID:      userID,
		ExpenseID:   id,
		AmountMinor: amount,
		Currency:    "GBP",
		Category:    "Food",
		OccurredAt:  occurredAt,
		MonthKey:    keys.MonthKey,
		CreatedAt:   core.Now(),
		GSI1PK:      keys.GSI1PK,
		GSI1SK:      keys.GSI1SK,
	}
}

func ids(es []core.Expense) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.ExpenseID
	}
	return out
}

// RunExpenseTable exercises an ExpenseTable implementation.
func RunExpenseTable(t *testing.T, newTable func(t *testing.T) services.ExpenseTable) {
	ctx := context.Background()

	t.Run("put get delete", func(t *testing.T) {
		tbl := newTable(t)
		e := NewExpense(t, "u1", "2025-10-15T12:00:00Z", 1999)
		note := "lunch"
		e.Note = &note
		require.NoError(t, tbl.PutExpense(ctx, e))

		got, err := tbl.GetExpense(ctx, "u1", e.ExpenseID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, e.AmountMinor, got.AmountMinor)
		assert.Equal(t, "2025-10", got.MonthKey)
		assert.Equal(t, "u1#2025-10", got.GSI1PK)
		require.NotNil(t, got.Note)
		assert.Equal(t, "lunch", *got.Note)

		missing, err := tbl.GetExpense(ctx, "u2", e.ExpenseID)
		require.NoError(t, err)
		assert.Nil(t, missing)

		old, err := tbl.DeleteExpense(ctx, "u1", e.ExpenseID)
		require.NoError(t, err)
		require.NotNil(t, old)
		assert.Equal(t, "2025-10", old.MonthKey)

		old, err = tbl.DeleteExpense(ctx, "u1", e.ExpenseID)
		require.NoError(t, err)
		assert.Nil(t, old)

		got, err = tbl.GetExpense(ctx, "u1", e.ExpenseID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("update moves index keys", func(t *testing.T) {
		tbl := newTable(t)
		e := NewExpense(t, "u1", "2025-10-15T12:00:00Z", 100)
		require.NoError(t, tbl.PutExpense(ctx, e))

		category := "Travel"
		got, err := tbl.UpdateExpense(ctx, "u1", e.ExpenseID, core.ExpensePatch{Category: &category})
		require.NoError(t, err)
		assert.Equal(t, "Travel", got.Category)
		assert.Equal(t, e.GSI1PK, got.GSI1PK)
		assert.Equal(t, e.GSI1SK, got.GSI1SK)

		occurredAt := "2025-11-02T08:00:00Z"
		keys, err := core.DeriveIndexKeys("u1", occurredAt)
		require.NoError(t, err)
		got, err = tbl.UpdateExpense(ctx, "u1", e.ExpenseID, core.ExpensePatch{OccurredAt: &occurredAt, Keys: &keys})
		require.NoError(t, err)
		assert.Equal(t, "2025-11", got.MonthKey)
		assert.Equal(t, "u1#2025-11", got.GSI1PK)
		assert.Equal(t, "2025-11-02T08:00:00.000000000Z", got.GSI1SK)
		assert.Equal(t, "Travel", got.Category)

		oct, err := tbl.QueryIndex(ctx, "u1#2025-10")
		require.NoError(t, err)
		assert.Empty(t, oct)
		nov, err := tbl.QueryIndex(ctx, "u1#2025-11")
		require.NoError(t, err)
		assert.Equal(t, []string{e.ExpenseID}, ids(nov))
	})

	t.Run("update of missing item", func(t *testing.T) {
		tbl := newTable(t)
		amount := int64(5)
		_, err := tbl.UpdateExpense(ctx, "u1", "2025-10-15#missing", core.ExpensePatch{AmountMinor: &amount})
		assert.True(t, errors.Is(err, core.ErrExpenseNotFound), "got %v", err)

		got, err := tbl.GetExpense(ctx, "u1", "2025-10-15#missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("query index ascending by occurredAt", func(t *testing.T) {
		tbl := newTable(t)
		late := NewExpense(t, "u1", "2025-10-20T09:00:00Z", 1)
		early := NewExpense(t, "u1", "2025-10-02T09:00:00Z", 2)
		mid := NewExpense(t, "u1", "2025-10-15T09:00:00Z", 3)
		other := NewExpense(t, "u2", "2025-10-15T09:00:00Z", 4)
		nextMonth := NewExpense(t, "u1", "2025-11-01T09:00:00Z", 5)
		for _, e := range []core.Expense{late, early, mid, other, nextMonth} {
			require.NoError(t, tbl.PutExpense(ctx, e))
		}

		got, err := tbl.QueryIndex(ctx, "u1#2025-10")
		require.NoError(t, err)
		assert.Equal(t, []string{early.ExpenseID, mid.ExpenseID, late.ExpenseID}, ids(got))
	})

	t.Run("query id prefix", func(t *testing.T) {
		tbl := newTable(t)
		a := NewExpense(t, "u1", "2025-10-15T09:00:00Z", 1)
		b := NewExpense(t, "u1", "2025-10-15T18:00:00Z", 2)
		c := NewExpense(t, "u1", "2025-10-16T09:00:00Z", 3)
		d := NewExpense(t, "u2", "2025-10-15T09:00:00Z", 4)
		for _, e := range []core.Expense{a, b, c, d} {
			require.NoError(t, tbl.PutExpense(ctx, e))
		}

		got, err := tbl.QueryIDPrefix(ctx, "u1", "2025-10-15")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{a.ExpenseID, b.ExpenseID}, ids(got))
	})

	t.Run("scan month and all", func(t *testing.T) {
		tbl := newTable(t)
		var want []string
		for i := 0; i < 5; i++ {
			e := NewExpense(t, fmt.Sprintf("u%d", i), fmt.Sprintf("2025-10-%02dT10:00:00Z", i+1), int64(i+1))
			require.NoError(t, tbl.PutExpense(ctx, e))
			want = append(want, e.ExpenseID)
		}
		require.NoError(t, tbl.PutExpense(ctx, NewExpense(t, "u1", "2025-09-30T10:00:00Z", 9)))

		got, err := tbl.ScanMonth(ctx, "2025-10")
		require.NoError(t, err)
		assert.ElementsMatch(t, want, ids(got))

		n := 0
		require.NoError(t, tbl.ScanExpenses(ctx, func(core.Expense) error { n++; return nil }))
		assert.Equal(t, 6, n)

		stop := errors.New("stop")
		err = tbl.ScanExpenses(ctx, func(core.Expense) error { return stop })
		assert.ErrorIs(t, err, stop)
	})
}

// RunUserTable exercises a UserTable implementation.
func RunUserTable(t *testing.T, newTable func(t *testing.T) services.UserTable) {
	ctx := context.Background()

	t.Run("put get find", func(t *testing.T) {
		tbl := newTable(t)
		first := "Ada"
		p := core.UserProfile{UserID: "u1", Email: "ada@example.com", FirstName: &first, CreatedAt: core.Now(), UpdatedAt: core.Now()}
		require.NoError(t, tbl.PutUser(ctx, p))

		got, err := tbl.GetUser(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "ada@example.com", got.Email)
		require.NotNil(t, got.FirstName)
		assert.Equal(t, "Ada", *got.FirstName)
		assert.Nil(t, got.LastName)

		missing, err := tbl.GetUser(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, missing)

		byEmail, err := tbl.FindUserByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		require.NotNil(t, byEmail)
		assert.Equal(t, "u1", byEmail.UserID)

		none, err := tbl.FindUserByEmail(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.Nil(t, none)
	})

	t.Run("put overwrites", func(t *testing.T) {
		tbl := newTable(t)
		first := "Ada"
		require.NoError(t, tbl.PutUser(ctx, core.UserProfile{UserID: "u1", Email: "a@example.com", FirstName: &first}))
		require.NoError(t, tbl.PutUser(ctx, core.UserProfile{UserID: "u1", Email: "a@example.com"}))
		got, err := tbl.GetUser(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Nil(t, got.FirstName)
	})

	t.Run("batch get skips missing", func(t *testing.T) {
		tbl := newTable(t)
		for _, id := range []string{"u1", "u2", "u3"} {
			require.NoError(t, tbl.PutUser(ctx, core.UserProfile{UserID: id, Email: id + "@example.com"}))
		}
		got, err := tbl.BatchGetUsers(ctx, []string{"u1", "u3", "ghost"})
		require.NoError(t, err)
		var gotIDs []string
		for _, p := range got {
			gotIDs = append(gotIDs, p.UserID)
		}
		assert.ElementsMatch(t, []string{"u1", "u3"}, gotIDs)

		empty, err := tbl.BatchGetUsers(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}
