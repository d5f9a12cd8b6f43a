package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"expensetracker/internal/core"
)

const expenseColumns = `user_id, expense_id, amount_minor, currency, category, note,
	occurred_at, month_key, created_at, gsi1pk, gsi1sk`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e    core.Expense
		note sql.NullString
	)
	err := row.Scan(&e.UserID, &e.ExpenseID, &e.AmountMinor, &e.Currency, &e.Category, &note,
		&e.OccurredAt, &e.MonthKey, &e.CreatedAt, &e.GSI1PK, &e.GSI1SK)
	if err != nil {
		return core.Expense{}, err
	}
	e.Note = stringPtr(note)
	return e, nil
}

func (r *SQLiteRepository) queryExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]core.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PutExpense writes the full record, replacing any existing one.
func (r *SQLiteRepository) PutExpense(ctx context.Context, e core.Expense) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO expenses (`+expenseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.ExpenseID, e.AmountMinor, e.Currency, e.Category, nullString(e.Note),
		e.OccurredAt, e.MonthKey, e.CreatedAt, e.GSI1PK, e.GSI1SK)
	if err != nil {
		return fmt.Errorf("put expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"user_id", e.UserID,
		"expense_id", e.ExpenseID,
		"amount_minor", e.AmountMinor,
		"month_key", e.MonthKey)
	return nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, userID, expenseID string) (*core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses
		WHERE user_id = ? AND expense_id = ?`, userID, expenseID)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return &e, nil
}

// UpdateExpense issues a single UPDATE ... RETURNING so every changed column,
// index keys included, lands in one statement.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, userID, expenseID string, patch core.ExpensePatch) (core.Expense, error) {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if patch.AmountMinor != nil {
		set("amount_minor", *patch.AmountMinor)
	}
	if patch.Currency != nil {
		set("currency", *patch.Currency)
	}
	if patch.Category != nil {
		set("category", *patch.Category)
	}
	if patch.Note != nil {
		set("note", *patch.Note)
	}
	if patch.OccurredAt != nil {
		set("occurred_at", *patch.OccurredAt)
	}
	if patch.Keys != nil {
		set("month_key", patch.Keys.MonthKey)
		set("gsi1pk", patch.Keys.GSI1PK)
		set("gsi1sk", patch.Keys.GSI1SK)
	}
	if len(sets) == 0 {
		return core.Expense{}, core.ErrNoFieldsToUpdate
	}
	args = append(args, userID, expenseID)

	row := r.db.QueryRowContext(ctx, `UPDATE expenses SET `+strings.Join(sets, ", ")+`
		WHERE user_id = ? AND expense_id = ?
		RETURNING `+expenseColumns, args...)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrExpenseNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense updated in SQLite",
		"user_id", userID,
		"expense_id", expenseID,
		"fields", len(sets))
	return e, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, expenseID string) (*core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `DELETE FROM expenses WHERE user_id = ? AND expense_id = ?
		RETURNING `+expenseColumns, userID, expenseID)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete expense: %w", err)
	}
	return &e, nil
}

func (r *SQLiteRepository) QueryIndex(ctx context.Context, partitionKey string) ([]core.Expense, error) {
	out, err := r.queryExpenses(ctx, `SELECT `+expenseColumns+` FROM expenses
		WHERE gsi1pk = ? ORDER BY gsi1sk ASC, expense_id ASC`, partitionKey)
	if err != nil {
		return nil, fmt.Errorf("query index %s: %w", partitionKey, err)
	}
	return out, nil
}

func (r *SQLiteRepository) QueryIDPrefix(ctx context.Context, userID, prefix string) ([]core.Expense, error) {
	out, err := r.queryExpenses(ctx, `SELECT `+expenseColumns+` FROM expenses
		WHERE user_id = ? AND substr(expense_id, 1, ?) = ? ORDER BY expense_id ASC`,
		userID, len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("query expense id prefix %s: %w", prefix, err)
	}
	return out, nil
}

func (r *SQLiteRepository) ScanMonth(ctx context.Context, monthKey string) ([]core.Expense, error) {
	out, err := r.queryExpenses(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE month_key = ?`, monthKey)
	if err != nil {
		return nil, fmt.Errorf("scan month %s: %w", monthKey, err)
	}
	return out, nil
}

// ScanExpenses loads all rows before calling fn so fn may write to the table.
func (r *SQLiteRepository) ScanExpenses(ctx context.Context, fn func(core.Expense) error) error {
	all, err := r.queryExpenses(ctx, `SELECT `+expenseColumns+` FROM expenses ORDER BY user_id, expense_id`)
	if err != nil {
		return fmt.Errorf("scan expenses: %w", err)
	}
	for _, e := range all {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}
