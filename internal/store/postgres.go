package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

// Postgres is the network backend.
type Postgres struct {
	base
}

// OpenPostgres connects with a short retry loop to give the server time to
// come up.
func OpenPostgres(ctx context.Context, rawDSN string, maxOpen int, l gormlogger.Interface) (*Postgres, error) {
	dsn := NormalizeDSN(rawDSN)
	if dsn == "" {
		return nil, errors.New("DATABASE_DSN is empty")
	}
	log.Info().Str("dsn", MaskDSN(dsn)).Msg("connecting to postgres")

	var db *gorm.DB
	var err error
	for i := 1; i <= connectAttempts; i++ {
		db, err = gorm.Open(postgres.Open(dsn), gormConfig(l))
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", i).Msg("postgres connection failed, retrying")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(connectBackoff):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	return &Postgres{base{db: db}}, nil
}

func (p *Postgres) Kind() Kind { return KindPostgres }

// Run adds RETURNING id to INSERT statements: pgx does not implement
// LastInsertId.
func (p *Postgres) Run(ctx context.Context, query string, args ...any) (Result, error) {
	if isInsert(query) && !hasReturning(query) {
		var id int64
		res := p.db.WithContext(ctx).Raw(withReturningID(query), args...).Scan(&id)
		if res.Error != nil {
			return Result{}, res.Error
		}
		return Result{Changes: res.RowsAffected, LastInsertID: id}, nil
	}
	res := p.db.WithContext(ctx).Exec(query, args...)
	if res.Error != nil {
		return Result{}, res.Error
	}
	return Result{Changes: res.RowsAffected}, nil
}

// Exec runs the script one statement at a time; the extended protocol does
// not accept several statements in one call.
func (p *Postgres) Exec(ctx context.Context, script string) error {
	for _, stmt := range SplitStatements(script) {
		if err := p.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func (p *Postgres) Transaction(ctx context.Context, fn func(tx Adapter) error) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Postgres{base{db: tx}})
	})
}

func (p *Postgres) Locking(q *gorm.DB) *gorm.DB {
	return q.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (p *Postgres) IsConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE "+uniqueViolation) || strings.Contains(msg, "duplicate key value violates unique constraint")
}

var (
	insertRe    = regexp.MustCompile(`(?is)^\s*INSERT\s+INTO\s`)
	returningRe = regexp.MustCompile(`(?i)\bRETURNING\b`)
)

func isInsert(q string) bool     { return insertRe.MatchString(q) }
func hasReturning(q string) bool { return returningRe.MatchString(q) }

func withReturningID(q string) string {
	q = strings.TrimRight(strings.TrimSpace(q), ";")
	return q + " RETURNING id"
}

// SplitStatements splits a script on top-level semicolons, ignoring those
// inside quoted strings and `--` comments.
func SplitStatements(script string) []string {
	var (
		out     []string
		cur     strings.Builder
		inQuote bool
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	for i := 0; i < len(script); i++ {
		c := script[i]
		switch {
		case inQuote:
			cur.WriteByte(c)
			if c == '\'' {
				inQuote = false
			}
		case c == '\'':
			inQuote = true
			cur.WriteByte(c)
		case c == '-' && i+1 < len(script) && script[i+1] == '-':
			for i < len(script) && script[i] != '\n' {
				i++
			}
			cur.WriteByte('\n')
		case c == ';':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return out
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
