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

const userColumns = `user_id, email, first_name, last_name, date_of_birth, address, phone, created_at, updated_at`

func scanUser(row rowScanner) (core.UserProfile, error) {
	var (
		p                                   core.UserProfile
		first, last, dob, address, phoneCol sql.NullString
	)
	if err := row.Scan(&p.UserID, &p.Email, &first, &last, &dob, &address, &phoneCol, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return core.UserProfile{}, err
	}
	p.FirstName = stringPtr(first)
	p.LastName = stringPtr(last)
	p.DateOfBirth = stringPtr(dob)
	p.Address = stringPtr(address)
	p.Phone = stringPtr(phoneCol)
	return p, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, userID string) (*core.UserProfile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = ?`, userID)
	p, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &p, nil
}

func (r *SQLiteRepository) PutUser(ctx context.Context, p core.UserProfile) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Email, nullString(p.FirstName), nullString(p.LastName), nullString(p.DateOfBirth),
		nullString(p.Address), nullString(p.Phone), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	slog.InfoContext(ctx, "User profile saved to SQLite", "user_id", p.UserID)
	return nil
}

func (r *SQLiteRepository) BatchGetUsers(ctx context.Context, userIDs []string) ([]core.UserProfile, error) {
	if len(userIDs) == 0 {
		return []core.UserProfile{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(userIDs)), ", ")
	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("batch get users: %w", err)
	}
	defer rows.Close()

	out := make([]core.UserProfile, 0, len(userIDs))
	for rows.Next() {
		p, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) FindUserByEmail(ctx context.Context, email string) (*core.UserProfile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`, email)
	p, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &p, nil
}
