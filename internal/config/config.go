package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port     string
	Env      string
	Database DatabaseConfig
	Log      LogConfig
	Ledger   LedgerConfig

	// AllowedOrigins is the CORS allow-list (dev origins + FRONTEND_URL).
	AllowedOrigins []string
	DefaultLang    string
}

// DatabaseConfig selects and tunes one of the two storage backends.
type DatabaseConfig struct {
	Driver       string
	SQLitePath   string
	DSN          string
	Debug        bool
	Migrations   bool
	MaxOpenConns int
}

type LogConfig struct {
	Level      string
	Format     string
	TimeFormat string
	Output     string
}

type LedgerConfig struct {
	// RestoreDocumentOnDelete switches payment deletion from the legacy
	// client-only reversal to a full reversal that also restores the
	// document's outstanding amount.
	RestoreDocumentOnDelete bool
	// AuditSchedule is a cron spec; empty disables the scheduled audit.
	AuditSchedule string
}

// Load loads configuration from environment with sensible defaults.
// Precedence: explicit env var > .env file (if loaded by the caller) > default.
func Load() Config {
	cfg := Config{}
	cfg.Port = getEnv("PORT", "8000")
	cfg.Env = getEnv("APP_ENV", "development")
	cfg.DefaultLang = getEnv("DEFAULT_LANG", "es")

	cfg.Database = DatabaseConfig{
		Driver:       strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
		SQLitePath:   getEnv("SQLITE_PATH", "payment-manager.db"),
		DSN:          getEnv("DATABASE_DSN", ""),
		Debug:        ParseBool("DB_DEBUG", false),
		Migrations:   ParseBool("MIGRATIONS", false),
		MaxOpenConns: parseInt("DB_MAX_OPEN_CONNS", 10),
	}

	cfg.Log = LogConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Format:     getEnv("LOG_FORMAT", "console"),
		TimeFormat: getEnv("LOG_TIME_FORMAT", time.RFC3339),
		Output:     getEnv("LOG_OUTPUT", "stdout"),
	}

	cfg.Ledger = LedgerConfig{
		RestoreDocumentOnDelete: ParseBool("LEDGER_RESTORE_DOCUMENT_ON_DELETE", false),
		AuditSchedule:           getEnv("AUDIT_SCHEDULE", ""),
	}

	cfg.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	if u := strings.TrimRight(os.Getenv("FRONTEND_URL"), "/"); u != "" {
		cfg.AllowedOrigins = append(cfg.AllowedOrigins, u)
	}
	return cfg
}

// Validate rejects configurations the storage layer cannot open.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when DB_DRIVER=sqlite")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Database.DSN) == "" {
			return errors.New("DATABASE_DSN is required when DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want %s or %s)", c.Database.Driver, DriverSQLite, DriverPostgres)
	}
	if c.Database.MaxOpenConns < 1 {
		return errors.New("DB_MAX_OPEN_CONNS must be positive")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ParseBool reads an env var as bool with default.
func ParseBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("invalid boolean for %s: %s", key, v)
			return def
		}
		return b
	}
	return def
}

func parseInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("invalid integer for %s: %s", key, v)
			return def
		}
		return n
	}
	return def
}
