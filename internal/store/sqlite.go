package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SQLite is the embedded backend.
type SQLite struct {
	base
}

// OpenSQLite opens (or creates) the database at path. Plain file paths and
// `file:` URIs are accepted; foreign keys are always switched on.
func OpenSQLite(path string, l gormlogger.Interface) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(SQLiteDSN(path)), gormConfig(l))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// One connection: SQLite allows a single writer, and in-memory
	// databases live only as long as their connection.
	sqlDB.SetMaxOpenConns(1)
	return &SQLite{base{db: db}}, nil
}

// SQLiteDSN appends the driver options the ledger relies on.
func SQLiteDSN(path string) string {
	params := []string{"_foreign_keys=on"}
	if !isMemory(path) {
		params = append(params, "_journal_mode=WAL", "_busy_timeout=5000")
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&")
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory") || strings.HasPrefix(path, "file::memory:")
}

func (s *SQLite) Kind() Kind { return KindSQLite }

// Run goes straight to the connection (or transaction) so the driver's
// LastInsertId is available.
func (s *SQLite) Run(ctx context.Context, query string, args ...any) (Result, error) {
	res, err := s.db.WithContext(ctx).Statement.ConnPool.ExecContext(ctx, query, args...)
	if err != nil {
		return Result{}, err
	}
	changes, err := res.RowsAffected()
	if err != nil {
		return Result{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Result{}, err
	}
	return Result{Changes: changes, LastInsertID: id}, nil
}

// Exec hands the whole script to sqlite3_exec, which runs every statement.
func (s *SQLite) Exec(ctx context.Context, script string) error {
	return s.db.WithContext(ctx).Exec(script).Error
}

func (s *SQLite) Transaction(ctx context.Context, fn func(tx Adapter) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&SQLite{base{db: tx}})
	})
}

// Locking is a no-op: SQLite has no row locks and the single connection
// already serializes read-modify-write cycles.
func (s *SQLite) Locking(q *gorm.DB) *gorm.DB { return q }

func (s *SQLite) IsConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrConstraint &&
			(se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "SQLITE_CONSTRAINT")
}
