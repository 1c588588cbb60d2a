// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Backends accepted by DATA_BACKEND.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendSheets = "sheets"
)

var validBackends = []string{BackendMemory, BackendSQLite, BackendSheets}

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Backend selection
	DataBackend string
	DataDir     string

	// Database
	SQLiteDBPath     string
	DBConnectRetries int
	DBConnectBackoff time.Duration

	// AMQP; an empty URL disables messaging.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID  string
	GoogleSalesSheetName string

	// Reports
	RecordCacheTTL time.Duration
	ChartWidth     int
	ChartHeight    int

	// Seeder
	SeedSalesCount int

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "5000"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		DataBackend: getEnv("DATA_BACKEND", BackendMemory),
		DataDir:     getEnv("DATA_DIR", "./data"),

		SQLiteDBPath:     getEnv("SQLITE_DB_PATH", "./data/sales.db"),
		DBConnectRetries: getEnvInt("DB_CONNECT_RETRIES", 5),
		DBConnectBackoff: getEnvDuration("DB_CONNECT_BACKOFF", 5*time.Second),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "salesdash"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sales_changed"),

		GoogleSpreadsheetID:  getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSalesSheetName: getEnv("GOOGLE_SALES_SHEET_NAME", "Sales"),

		RecordCacheTTL: getEnvDuration("RECORD_CACHE_TTL", 30*time.Second),
		ChartWidth:     getEnvInt("CHART_WIDTH", 1000),
		ChartHeight:    getEnvInt("CHART_HEIGHT", 600),

		SeedSalesCount: getEnvInt("SEED_SALES_COUNT", 1000),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate returns every problem found, joined into one error.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == BackendSQLite {
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
		if c.DBConnectRetries < 1 {
			errors = append(errors, fmt.Sprintf("invalid connect retries %d: must be at least 1", c.DBConnectRetries))
		}
		if c.DBConnectBackoff < 0 {
			errors = append(errors, fmt.Sprintf("invalid connect backoff %v: must not be negative", c.DBConnectBackoff))
		}
	}

	if c.DataBackend == BackendSheets {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSalesSheetName == "" {
			errors = append(errors, "Google sales sheet name is required when using sheets backend")
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
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RecordCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid record cache TTL %v: must not be negative", c.RecordCacheTTL))
	}

	if c.ChartWidth < 100 || c.ChartWidth > 4000 {
		errors = append(errors, fmt.Sprintf("invalid chart width %d: must be between 100 and 4000", c.ChartWidth))
	}
	if c.ChartHeight < 100 || c.ChartHeight > 4000 {
		errors = append(errors, fmt.Sprintf("invalid chart height %d: must be between 100 and 4000", c.ChartHeight))
	}

	if c.SeedSalesCount < 0 {
		errors = append(errors, fmt.Sprintf("invalid seed sales count %d: must not be negative", c.SeedSalesCount))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// AMQPEnabled reports whether a broker URL is configured.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
