// Package store normalizes the two supported database backends behind one
// query interface.
//
// The embedded backend is SQLite (mattn driver, single writer connection);
// the network backend is PostgreSQL (pgx, pooled). Both are reached through
// gorm so that model-level code and raw statements share the same
// connection or transaction. The backend is chosen once, from configuration,
// by Open.
package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pagos-app/payment-manager/internal/config"
)

// Kind names a backend.
type Kind string

const (
	KindSQLite   Kind = config.DriverSQLite
	KindPostgres Kind = config.DriverPostgres
)

// Result is what a write statement reports back.
type Result struct {
	Changes      int64
	LastInsertID int64
}

// Adapter is the uniform query interface used by every repository.
//
// Statements use `?` placeholders on both backends. An Adapter handed to a
// Transaction callback is bound to that transaction: every call made through
// it, including ORM, runs inside it.
type Adapter interface {
	Kind() Kind

	// All scans every row of query into dest (pointer to slice).
	All(ctx context.Context, dest any, query string, args ...any) error
	// Get scans a single-row result into dest and reports whether a row
	// existed. When the query can match several rows the last one scanned
	// wins, so such queries must carry ORDER BY ... LIMIT 1.
	Get(ctx context.Context, dest any, query string, args ...any) (bool, error)
	// Run executes a single write statement.
	Run(ctx context.Context, query string, args ...any) (Result, error)
	// Exec runs a raw script that may hold several statements.
	Exec(ctx context.Context, script string) error
	// Transaction runs fn atomically. A non-nil error from fn rolls back.
	Transaction(ctx context.Context, fn func(tx Adapter) error) error

	// ORM exposes the gorm handle bound to this adapter.
	ORM(ctx context.Context) *gorm.DB
	// Locking marks a gorm query as a read-for-update where the backend
	// supports row locks.
	Locking(q *gorm.DB) *gorm.DB
	// IsConstraintViolation reports whether err is a uniqueness violation.
	IsConstraintViolation(err error) bool

	Ping(ctx context.Context) error
	Close() error
}

// Open builds the adapter selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig, l gormlogger.Interface) (Adapter, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return OpenSQLite(cfg.SQLitePath, l)
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg.DSN, cfg.MaxOpenConns, l)
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", cfg.Driver)
	}
}

func gormConfig(l gormlogger.Interface) *gorm.Config {
	cfg := &gorm.Config{TranslateError: true}
	if l != nil {
		cfg.Logger = l
	}
	return cfg
}

// base holds what both adapters do identically through gorm.
type base struct {
	db *gorm.DB
}

func (b base) ORM(ctx context.Context) *gorm.DB { return b.db.WithContext(ctx) }

func (b base) All(ctx context.Context, dest any, query string, args ...any) error {
	return b.db.WithContext(ctx).Raw(query, args...).Scan(dest).Error
}

func (b base) Get(ctx context.Context, dest any, query string, args ...any) (bool, error) {
	res := b.db.WithContext(ctx).Raw(query, args...).Scan(dest)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (b base) Ping(ctx context.Context) error {
	return b.db.WithContext(ctx).Exec("SELECT 1").Error
}

func (b base) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
