package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Backend selection
	DataBackend string

	// SQLite
	SQLiteDBPath string

	// DynamoDB
	DynamoDBRegion      string
	DynamoDBEndpoint    string
	ExpensesTableName   string
	ExpensesIndexName   string
	UsersTableName      string
	UsersEmailIndexName string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Profile cache
	RedisURL        string
	ProfileCacheTTL time.Duration

	// Identity
	AuthJWTSecret     string
	AuthTrustUpstream bool

	// Google Sheets export
	GoogleSpreadsheetID   string
	GoogleCredentialsJSON string
	GoogleCredentialsFile string
	ExportReconcile       time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/expenses.db"),

		DynamoDBRegion:      getEnv("DYNAMODB_REGION", getEnv("AWS_REGION", "")),
		DynamoDBEndpoint:    getEnv("DYNAMODB_ENDPOINT", ""),
		ExpensesTableName:   getEnv("EXPENSES_TABLE_NAME", "expenses"),
		ExpensesIndexName:   getEnv("EXPENSES_INDEX_NAME", "GSI1"),
		UsersTableName:      getEnv("USERS_TABLE_NAME", "users"),
		UsersEmailIndexName: getEnv("USERS_EMAIL_INDEX_NAME", "EmailIndex"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "expenses"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "expense_export"),

		RedisURL:        getEnv("REDIS_URL", ""),
		ProfileCacheTTL: getEnvDuration("PROFILE_CACHE_TTL", 5*time.Minute),

		AuthJWTSecret:     getEnv("AUTH_JWT_SECRET", ""),
		AuthTrustUpstream: getEnvBool("AUTH_TRUST_UPSTREAM", false),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		ExportReconcile:       getEnvDuration("EXPORT_RECONCILE_INTERVAL", 15*time.Minute),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// Validate validates the configuration shared by every binary and returns an
// error listing every problem found.
func (c *Config) Validate() error {
	if errs := c.validate(); len(errs) > 0 {
		return combine(errs)
	}
	return nil
}

// ValidateAPI additionally checks the settings only the API server needs.
func (c *Config) ValidateAPI() error {
	errors := c.validate()

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.AuthJWTSecret == "" && !c.AuthTrustUpstream {
		errors = append(errors, "either AUTH_JWT_SECRET or AUTH_TRUST_UPSTREAM=true must be set")
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if len(errors) > 0 {
		return combine(errors)
	}
	return nil
}

// ValidateWorker additionally checks the sheet export settings.
func (c *Config) ValidateWorker() error {
	errors := c.validate()

	if c.AMQPURL == "" {
		errors = append(errors, "AMQP URL is required for the export worker")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required for the export worker")
	}
	if c.GoogleCredentialsFile != "" {
		if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
		}
	}
	if c.GoogleCredentialsJSON == "" && c.GoogleCredentialsFile == "" {
		errors = append(errors, "either GOOGLE_CREDENTIALS_JSON or GOOGLE_APPLICATION_CREDENTIALS must be set for the export worker")
	}
	if c.ExportReconcile < 0 {
		errors = append(errors, fmt.Sprintf("invalid export reconcile interval %v: must not be negative", c.ExportReconcile))
	}

	if len(errors) > 0 {
		return combine(errors)
	}
	return nil
}

func (c *Config) validate() []string {
	var errors []string

	// Validate data backend
	validBackends := []string{"memory", "sqlite", "dynamodb"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == "dynamodb" {
		if c.DynamoDBRegion == "" && c.DynamoDBEndpoint == "" {
			errors = append(errors, "DynamoDB region is required when using dynamodb backend without a custom endpoint")
		}
		if c.DynamoDBEndpoint != "" {
			if u, err := url.Parse(c.DynamoDBEndpoint); err != nil || u.Scheme == "" || u.Host == "" {
				errors = append(errors, fmt.Sprintf("invalid DynamoDB endpoint '%s': must be an absolute URL", c.DynamoDBEndpoint))
			}
		}
		for name, value := range map[string]string{
			"EXPENSES_TABLE_NAME":    c.ExpensesTableName,
			"EXPENSES_INDEX_NAME":    c.ExpensesIndexName,
			"USERS_TABLE_NAME":       c.UsersTableName,
			"USERS_EMAIL_INDEX_NAME": c.UsersEmailIndexName,
		} {
			if strings.TrimSpace(value) == "" {
				errors = append(errors, fmt.Sprintf("%s cannot be empty when using dynamodb backend", name))
			}
		}
	}

	// AMQP is optional; when set it must be usable
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RedisURL != "" {
		if parsedURL, err := url.Parse(c.RedisURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Redis URL '%s': %v", c.RedisURL, err))
		} else if parsedURL.Scheme != "redis" && parsedURL.Scheme != "rediss" {
			errors = append(errors, fmt.Sprintf("invalid Redis URL scheme '%s': must be 'redis' or 'rediss'", parsedURL.Scheme))
		}
	}

	if c.ProfileCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid profile cache TTL %v: must not be negative", c.ProfileCacheTTL))
	} else if c.ProfileCacheTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid profile cache TTL %v: must be at most 24 hours", c.ProfileCacheTTL))
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	return errors
}

func combine(errors []string) error {
	return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
}

// ParseLogLevel maps LOG_LEVEL values to slog levels.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level '%s': must be one of debug, info, warn, error", s)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
