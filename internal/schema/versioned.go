package schema

import (
	"errors"
	"fmt"
	"strings"

	migrate "github.com/golang-migrate/migrate/v4"
	// Register the database drivers used by the versioned path.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/pagos-app/payment-manager/internal/store"
)

// DatabaseURL builds the golang-migrate URL for a backend.
func DatabaseURL(kind store.Kind, sqlitePath, dsn string) string {
	if kind == store.KindSQLite {
		return "sqlite3://" + strings.TrimPrefix(sqlitePath, "file:")
	}
	return store.ToURLDSN(store.NormalizeDSN(dsn))
}

// runVersioned applies the embedded migrations for kind with golang-migrate.
func runVersioned(kind store.Kind, databaseURL string) error {
	if databaseURL == "" {
		return errors.New("no database url for versioned migrations")
	}
	src, err := iofs.New(migrationsFS, "migrations/"+dialect(kind))
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Version reports the applied migration version, for the migrate command.
func Version(kind store.Kind, databaseURL string) (uint, bool, error) {
	src, err := iofs.New(migrationsFS, "migrations/"+dialect(kind))
	if err != nil {
		return 0, false, err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}
