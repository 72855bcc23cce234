// Package schema creates and upgrades the ledger tables.
//
// Migrate is safe to run on every start. Tables are created when missing,
// camelCase columns of databases written by the previous application are
// renamed, additive columns are added by introspection, and the (nombre, empresa)
// unique index is attempted last. A failure on that final step is logged and
// reported through Health instead of aborting start-up.
package schema

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/pagos-app/payment-manager/internal/logger"
	"github.com/pagos-app/payment-manager/internal/models"
	"github.com/pagos-app/payment-manager/internal/store"
)

// UniqueClientIndex guards (nombre, empresa) on clientes.
const UniqueClientIndex = "idx_clientes_nombre_empresa"

var tables = []string{"clientes", "documentos", "pagos", "pagos_detalle"}

//go:embed migrations
var migrationsFS embed.FS

// Health is the observable outcome of the last index step.
type Health struct {
	UniqueIndex bool   `json:"uniqueIndex"`
	Detail      string `json:"detail,omitempty"`
}

// Options tunes how Migrate builds the tables.
type Options struct {
	// Versioned switches table creation to golang-migrate.
	Versioned bool
	// DatabaseURL is the golang-migrate URL (sqlite3://path or postgres://...).
	DatabaseURL string
}

type Manager struct {
	db   store.Adapter
	opts Options
	log  zerolog.Logger

	mu       sync.RWMutex
	indexErr error
	migrated bool
}

func NewManager(db store.Adapter, opts Options) *Manager {
	return &Manager{db: db, opts: opts, log: logger.WithComponent("schema")}
}

// Migrate runs every step in order.
func (m *Manager) Migrate(ctx context.Context) error {
	if err := m.ensureTables(ctx); err != nil {
		return err
	}
	if err := m.renameLegacyColumns(ctx); err != nil {
		return err
	}
	if err := m.addColumns(ctx); err != nil {
		return err
	}
	if err := m.runScript(ctx, "000002_indexes.up.sql"); err != nil {
		return fmt.Errorf("secondary indexes: %w", err)
	}
	err := m.ensureUniqueIndex(ctx)
	if err != nil {
		m.log.Warn().Err(err).Str("index", UniqueClientIndex).
			Msg("unique index not created; duplicate checks rely on the application only")
	}
	m.mu.Lock()
	m.indexErr = err
	m.migrated = true
	m.mu.Unlock()
	return nil
}

// Health checks the unique index against the live schema.
func (m *Manager) Health(ctx context.Context) Health {
	if m.db.ORM(ctx).Migrator().HasIndex(models.Client{}.TableName(), UniqueClientIndex) {
		return Health{UniqueIndex: true}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch {
	case m.indexErr != nil:
		return Health{Detail: m.indexErr.Error()}
	case !m.migrated:
		return Health{Detail: "schema not migrated"}
	default:
		return Health{Detail: "index missing"}
	}
}

func (m *Manager) ensureTables(ctx context.Context) error {
	migrator := m.db.ORM(ctx).Migrator()
	var missing []string
	for _, t := range tables {
		if !migrator.HasTable(t) {
			missing = append(missing, t)
		}
	}
	if len(missing) == 0 && !m.opts.Versioned {
		return nil
	}
	if m.opts.Versioned {
		if err := runVersioned(m.db.Kind(), m.opts.DatabaseURL); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
	} else if err := m.runScript(ctx, "000001_init.up.sql"); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	if len(missing) > 0 {
		m.log.Info().Strs("tables", missing).Msg("tables created")
	}
	return nil
}

type columnRename struct {
	table, from, to string
}

// legacyColumns maps the camelCase names used by the previous application
// to the current ones.
var legacyColumns = []columnRename{
	{"clientes", "tipoDocumento", "tipo_documento"},
	{"clientes", "numeroDocumento", "numero_documento"},
	{"clientes", "createdAt", "created_at"},
	{"clientes", "updatedAt", "updated_at"},
	{"documentos", "clienteId", "cliente_id"},
	{"documentos", "saldoPendiente", "saldo_pendiente"},
	{"documentos", "createdAt", "created_at"},
	{"pagos", "clienteId", "cliente_id"},
	{"pagos", "documentoId", "documento_id"},
	{"pagos", "formaPago", "forma_pago"},
	{"pagos", "createdAt", "created_at"},
	{"pagos_detalle", "pagoId", "pago_id"},
	{"pagos_detalle", "formaPago", "forma_pago"},
}

// columns lists the column names of table exactly as declared.
func (m *Manager) columns(ctx context.Context, table string) (map[string]bool, error) {
	query := "SELECT name FROM pragma_table_info(?)"
	if m.db.Kind() == store.KindPostgres {
		query = `SELECT column_name AS name FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = ?`
	}
	var names []string
	if err := m.db.All(ctx, &names, query, table); err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set, nil
}

func (m *Manager) renameLegacyColumns(ctx context.Context) error {
	cache := map[string]map[string]bool{}
	for _, r := range legacyColumns {
		cols, ok := cache[r.table]
		if !ok {
			var err error
			if cols, err = m.columns(ctx, r.table); err != nil {
				return fmt.Errorf("inspect %s: %w", r.table, err)
			}
			cache[r.table] = cols
		}
		from := r.from
		if !cols[from] {
			// unquoted identifiers are folded to lower case by postgres
			if from = strings.ToLower(r.from); !cols[from] {
				continue
			}
		}
		if cols[r.to] {
			m.log.Warn().Str("table", r.table).Str("column", from).
				Msg("legacy column left in place, current column already exists")
			continue
		}
		ddl := fmt.Sprintf(`ALTER TABLE %s RENAME COLUMN "%s" TO %s`, r.table, from, r.to)
		if err := m.db.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("rename %s.%s: %w", r.table, from, err)
		}
		cols[r.to], cols[from] = true, false
		m.log.Info().Str("table", r.table).Str("from", from).Str("to", r.to).Msg("column renamed")
	}
	return nil
}

type columnMigration struct {
	model  any
	table  string
	column string
	// ddl overrides gorm's AddColumn when the column needs a constraint.
	ddl string
}

func (m *Manager) columnMigrations() []columnMigration {
	fkType := "INTEGER"
	if m.db.Kind() == store.KindPostgres {
		fkType = "BIGINT"
	}
	return []columnMigration{
		{model: &models.Client{}, table: "clientes", column: "fecha"},
		{model: &models.Payment{}, table: "pagos", column: "documento_id",
			ddl: "ALTER TABLE pagos ADD COLUMN documento_id " + fkType + " REFERENCES documentos(id) ON DELETE SET NULL"},
		{model: &models.Client{}, table: "clientes", column: "updated_at"},
		{model: &models.Payment{}, table: "pagos", column: "created_at"},
	}
}

func (m *Manager) addColumns(ctx context.Context) error {
	orm := m.db.ORM(ctx)
	for _, c := range m.columnMigrations() {
		if orm.Migrator().HasColumn(c.model, c.column) {
			continue
		}
		var err error
		if c.ddl != "" {
			err = m.db.Exec(ctx, c.ddl)
		} else {
			err = orm.Migrator().AddColumn(c.model, c.column)
		}
		if err != nil {
			return fmt.Errorf("add column %s.%s: %w", c.table, c.column, err)
		}
		m.log.Info().Str("table", c.table).Str("column", c.column).Msg("column added")
	}
	return nil
}

type duplicateGroup struct {
	Nombre  string
	Empresa string
	Total   int64
}

func (m *Manager) ensureUniqueIndex(ctx context.Context) error {
	table := models.Client{}.TableName()
	if m.db.ORM(ctx).Migrator().HasIndex(table, UniqueClientIndex) {
		return nil
	}
	// The cleanup commits on its own; it stays even if the index fails.
	err := m.db.Transaction(ctx, func(tx store.Adapter) error {
		return m.removeDuplicateClients(ctx, tx)
	})
	if err != nil {
		return fmt.Errorf("remove duplicate clients: %w", err)
	}
	return m.db.Exec(ctx, "CREATE UNIQUE INDEX "+UniqueClientIndex+" ON clientes (nombre, empresa)")
}

// removeDuplicateClients keeps the most recent row of every
// (nombre, empresa) group and deletes the others.
func (m *Manager) removeDuplicateClients(ctx context.Context, tx store.Adapter) error {
	var groups []duplicateGroup
	err := tx.All(ctx, &groups, `
		SELECT nombre, empresa, COUNT(*) AS total
		FROM clientes
		GROUP BY nombre, empresa
		HAVING COUNT(*) > 1`)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		return nil
	}
	m.log.Warn().Int("groups", len(groups)).Msg("duplicate clients found, cleaning up")
	for _, g := range groups {
		var ids []uint
		err := tx.All(ctx, &ids, `
			SELECT id FROM clientes
			WHERE nombre = ? AND empresa = ?
			ORDER BY created_at DESC, id DESC`, g.Nombre, g.Empresa)
		if err != nil {
			return err
		}
		for _, id := range ids[1:] {
			if _, err := tx.Run(ctx, "DELETE FROM clientes WHERE id = ?", id); err != nil {
				return err
			}
		}
		m.log.Info().Str("nombre", g.Nombre).Str("empresa", g.Empresa).
			Int("deleted", len(ids)-1).Msg("duplicate clients removed")
	}
	return nil
}

func (m *Manager) runScript(ctx context.Context, name string) error {
	script, err := fs.ReadFile(migrationsFS, "migrations/"+dialect(m.db.Kind())+"/"+name)
	if err != nil {
		return err
	}
	return m.db.Exec(ctx, string(script))
}

func dialect(k store.Kind) string { return string(k) }

// VersionTable is where golang-migrate records the applied version.
const VersionTable = "schema_migrations"

// Reset drops every ledger table and the migration version table, so the
// next Migrate starts from scratch on either path. Only tests and the
// migrate command's --reset flag use it.
func Reset(ctx context.Context, db *gorm.DB) error {
	mig := db.WithContext(ctx).Migrator()
	for i := len(tables) - 1; i >= 0; i-- {
		if err := mig.DropTable(tables[i]); err != nil {
			return err
		}
	}
	return mig.DropTable(VersionTable)
}
