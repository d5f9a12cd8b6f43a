package backend

import (
	"fmt"

	"expensetracker/internal/config"
	"expensetracker/internal/dynamo"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		DynamoDBRegion:      appConfig.DynamoDBRegion,
		DynamoDBEndpoint:    appConfig.DynamoDBEndpoint,
		ExpensesTableName:   appConfig.ExpensesTableName,
		ExpensesIndexName:   appConfig.ExpensesIndexName,
		UsersTableName:      appConfig.UsersTableName,
		UsersEmailIndexName: appConfig.UsersEmailIndexName,
		// Only a local endpoint gets its tables created on the fly.
		CreateTables: appConfig.DynamoDBEndpoint != "",
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case DynamoDBBackend:
		if c.DynamoDBRegion == "" && c.DynamoDBEndpoint == "" {
			return fmt.Errorf("DynamoDB region or endpoint is required for dynamodb backend")
		}
		if c.ExpensesTableName == "" || c.ExpensesIndexName == "" {
			return fmt.Errorf("expenses table and index names are required for dynamodb backend")
		}
		if c.UsersTableName == "" || c.UsersEmailIndexName == "" {
			return fmt.Errorf("users table and email index names are required for dynamodb backend")
		}
	case MemoryBackend:
		// Nothing to configure.
	}

	return nil
}

// DynamoDB returns the table layout for the dynamo package.
func (c Config) DynamoDB() dynamo.Config {
	return dynamo.Config{
		Region:          c.DynamoDBRegion,
		Endpoint:        c.DynamoDBEndpoint,
		ExpensesTable:   c.ExpensesTableName,
		ExpensesIndex:   c.ExpensesIndexName,
		UsersTable:      c.UsersTableName,
		UsersEmailIndex: c.UsersEmailIndexName,
	}
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, DynamoDBBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	strings := make([]string, len(types))
	for i, t := range types {
		strings[i] = t.String()
	}
	return strings
}
