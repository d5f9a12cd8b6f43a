package services

import (
	"context"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
)

// Ports for the storage and messaging adapters.
type (
	// ExpenseTable is the expenses keyspace: primary key (userId, expenseId)
	// and a secondary index on (GSI1PK, GSI1SK).
	ExpenseTable interface {
		PutExpense(ctx context.Context, e core.Expense) error
		// GetExpense returns nil, nil when the item does not exist.
		GetExpense(ctx context.Context, userID, expenseID string) (*core.Expense, error)
		// UpdateExpense applies the patch in one atomic write and returns the
		// updated item. Missing items yield core.ErrExpenseNotFound.
		UpdateExpense(ctx context.Context, userID, expenseID string, patch core.ExpensePatch) (core.Expense, error)
		// DeleteExpense removes the item if present and returns what was removed.
		DeleteExpense(ctx context.Context, userID, expenseID string) (*core.Expense, error)
		// QueryIndex returns the partition ordered ascending by GSI1SK.
		QueryIndex(ctx context.Context, partitionKey string) ([]core.Expense, error)
		QueryIDPrefix(ctx context.Context, userID, prefix string) ([]core.Expense, error)
		// ScanMonth returns every item with the given month key in no particular order.
		ScanMonth(ctx context.Context, monthKey string) ([]core.Expense, error)
		// ScanExpenses calls fn for every stored item.
		ScanExpenses(ctx context.Context, fn func(core.Expense) error) error
	}

	// UserTable is the users keyspace: primary key userId, secondary index on email.
	UserTable interface {
		GetUser(ctx context.Context, userID string) (*core.UserProfile, error)
		PutUser(ctx context.Context, p core.UserProfile) error
		// BatchGetUsers fetches at most MaxBatchGetKeys ids; missing ids are skipped.
		BatchGetUsers(ctx context.Context, userIDs []string) ([]core.UserProfile, error)
		FindUserByEmail(ctx context.Context, email string) (*core.UserProfile, error)
	}

	EventPublisher interface {
		PublishExpenseEvent(ctx context.Context, ev *amqp.ExpenseEvent) error
	}

	// ProfileCache is consulted before the users table for batch lookups.
	ProfileCache interface {
		Get(ctx context.Context, userID string) (*core.UserProfile, bool)
		Set(ctx context.Context, p core.UserProfile)
		Delete(ctx context.Context, userID string)
	}
)

// MaxBatchGetKeys is the largest key set a single batch lookup may carry.
const MaxBatchGetKeys = 100
