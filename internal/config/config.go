package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"aqualedger/internal/core"
)

type Config struct {
	// HTTP Server
	Port            string
	ShutdownTimeout time.Duration

	// Storage medium: memory, sqlite or redis
	DataBackend      string
	SQLiteDBPath     string
	MemoryQuotaBytes int
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	RedisPrefix      string

	// AMQP ledger events; an empty URL disables publishing
	AMQPURL      string
	AMQPExchange string

	// Google Sheets report push; an empty spreadsheet ID disables it
	GoogleSpreadsheetID      string
	GoogleSummarySheet       string
	GoogleDuesSheet          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Ledger
	WeekStart        string
	OverdueAfterDays int

	// Sessions
	SessionTTL       time.Duration
	SessionCacheSize int

	// Export
	ExportDir string
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8081"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DataBackend:      getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath:     getEnv("SQLITE_DB_PATH", "./data/aqualedger.db"),
		MemoryQuotaBytes: getEnvInt("MEMORY_QUOTA_BYTES", 5*1024*1024),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		RedisPrefix:      getEnv("REDIS_PREFIX", "aqualedger:"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "aqualedger.events"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSummarySheet:       getEnv("GOOGLE_SUMMARY_SHEET", "Summary"),
		GoogleDuesSheet:          getEnv("GOOGLE_DUES_SHEET", "Dues"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		WeekStart:        getEnv("WEEK_START", "sunday"),
		OverdueAfterDays: getEnvInt("OVERDUE_AFTER_DAYS", 30),

		SessionTTL:       getEnvDuration("SESSION_TTL", 15*time.Minute),
		SessionCacheSize: getEnvInt("SESSION_CACHE_SIZE", 1000),

		ExportDir: getEnv("EXPORT_DIR", "."),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sqlite", "redis"}
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

	switch c.DataBackend {
	case "sqlite":
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
	case "redis":
		if c.RedisAddr == "" {
			errors = append(errors, "Redis address cannot be empty when using redis backend")
		}
		if c.RedisDB < 0 {
			errors = append(errors, fmt.Sprintf("invalid redis db %d: must not be negative", c.RedisDB))
		}
	case "memory":
		if c.MemoryQuotaBytes < 0 {
			errors = append(errors, fmt.Sprintf("invalid memory quota %d: must not be negative", c.MemoryQuotaBytes))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleSpreadsheetID != "" {
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided when GOOGLE_SPREADSHEET_ID is set")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if _, err := core.ParseWeekday(c.WeekStart); err != nil {
		errors = append(errors, fmt.Sprintf("invalid week start '%s': must be a weekday name", c.WeekStart))
	}
	if c.OverdueAfterDays < 1 {
		errors = append(errors, fmt.Sprintf("invalid overdue threshold %d: must be at least 1 day", c.OverdueAfterDays))
	}

	if c.SessionTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 second", c.SessionTTL))
	}
	if c.SessionCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid session cache size %d: must be at least 1", c.SessionCacheSize))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// Weekday returns the configured first day of the week. Call after Validate.
func (c *Config) Weekday() time.Weekday {
	d, err := core.ParseWeekday(c.WeekStart)
	if err != nil {
		return time.Sunday
	}
	return d
}

// SheetsEnabled reports whether report push to Google Sheets is configured.
func (c *Config) SheetsEnabled() bool { return c.GoogleSpreadsheetID != "" }

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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
