package backend

import (
	"context"

	"expensetracker/internal/services"
)

// Backend bundles the two tables of one storage engine.
type Backend struct {
	Expenses services.ExpenseTable
	Users    services.UserTable
	// Ping reports whether the engine is reachable.
	Ping func(ctx context.Context) error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// DynamoDB specific
	DynamoDBRegion      string
	DynamoDBEndpoint    string
	ExpensesTableName   string
	ExpensesIndexName   string
	UsersTableName      string
	UsersEmailIndexName string
	// CreateTables creates missing DynamoDB tables at startup (local development).
	CreateTables bool
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	DynamoDBBackend BackendType = "dynamodb"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, DynamoDBBackend:
		return true
	default:
		return false
	}
}
