package backend

import (
	"context"
	"fmt"
	"log/slog"

	"expensetracker/internal/dynamo"
	"expensetracker/internal/memory"
	"expensetracker/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryBackend()
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case DynamoDBBackend:
		return f.createDynamoDBBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	f.logger.Info("Initialized memory backend")

	return &BackendResult{
		Backend: Backend{
			Expenses: memory.NewExpenseTable(),
			Users:    memory.NewUserTable(),
			Ping:     func(context.Context) error { return nil },
		},
		Cleanup: nil,
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Backend: Backend{
			Expenses: repo,
			Users:    repo,
			Ping:     repo.Ping,
		},
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createDynamoDBBackend(ctx context.Context, config Config) (*BackendResult, error) {
	dcfg := config.DynamoDB()
	client, err := dynamo.NewClient(ctx, dcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize DynamoDB client: %w", err)
	}

	if config.CreateTables {
		if err := dynamo.EnsureTables(ctx, client, dcfg); err != nil {
			return nil, fmt.Errorf("failed to create DynamoDB tables: %w", err)
		}
	}

	expenses := dynamo.NewExpenseTable(client, dcfg)

	f.logger.Info("Initialized DynamoDB backend",
		"region", dcfg.Region,
		"endpoint", dcfg.Endpoint,
		"expenses_table", dcfg.ExpensesTable,
		"users_table", dcfg.UsersTable)

	return &BackendResult{
		Backend: Backend{
			Expenses: expenses,
			Users:    dynamo.NewUserTable(client, dcfg),
			Ping:     expenses.Ping,
		},
		Cleanup: nil,
	}, nil
}
