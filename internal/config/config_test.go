package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "SQLITE_PATH", "DATABASE_DSN", "FRONTEND_URL", "LEDGER_RESTORE_DOCUMENT_ON_DELETE", "DEFAULT_LANG"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "8000" {
		t.Fatalf("expected default port 8000 got %s", cfg.Port)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Fatalf("expected sqlite driver by default got %s", cfg.Database.Driver)
	}
	if cfg.Database.SQLitePath != "payment-manager.db" {
		t.Fatalf("unexpected sqlite path %s", cfg.Database.SQLitePath)
	}
	if cfg.Ledger.RestoreDocumentOnDelete {
		t.Fatalf("legacy reversal expected by default")
	}
	if cfg.DefaultLang != "es" {
		t.Fatalf("expected es default lang got %s", cfg.DefaultLang)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("expected only dev origins got %v", cfg.AllowedOrigins)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DATABASE_DSN", "postgres://u:p@db:5432/pagos")
	t.Setenv("FRONTEND_URL", "https://pagos.example.com/")
	t.Setenv("LEDGER_RESTORE_DOCUMENT_ON_DELETE", "true")
	t.Setenv("DB_MAX_OPEN_CONNS", "nope")
	cfg := Load()
	if cfg.Database.Driver != DriverPostgres {
		t.Fatalf("driver should be normalized to lower case, got %s", cfg.Database.Driver)
	}
	if cfg.Database.MaxOpenConns != 10 {
		t.Fatalf("invalid int should fall back to default, got %d", cfg.Database.MaxOpenConns)
	}
	if got := cfg.AllowedOrigins[len(cfg.AllowedOrigins)-1]; got != "https://pagos.example.com" {
		t.Fatalf("frontend origin not appended: %s", got)
	}
	if !cfg.Ledger.RestoreDocumentOnDelete {
		t.Fatalf("expected full reversal toggle on")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validate error: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		db   DatabaseConfig
		ok   bool
	}{
		{"sqlite", DatabaseConfig{Driver: DriverSQLite, SQLitePath: "x.db", MaxOpenConns: 1}, true},
		{"postgres without dsn", DatabaseConfig{Driver: DriverPostgres, MaxOpenConns: 1}, false},
		{"unknown driver", DatabaseConfig{Driver: "turso", MaxOpenConns: 1}, false},
		{"zero pool", DatabaseConfig{Driver: DriverSQLite, SQLitePath: "x.db"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Config{Database: tc.db}.Validate()
			if (err == nil) != tc.ok {
				t.Fatalf("Validate() err=%v, want ok=%v", err, tc.ok)
			}
		})
	}
}
