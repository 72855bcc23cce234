package schema

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pagos-app/payment-manager/internal/store"
)

func openMemory(t *testing.T) *store.SQLite {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := store.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name), gormlogger.Discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateFreshDatabase(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	m := NewManager(db, Options{})

	assert.False(t, m.Health(ctx).UniqueIndex)
	require.NoError(t, m.Migrate(ctx))

	mig := db.ORM(ctx).Migrator()
	for _, table := range tables {
		assert.True(t, mig.HasTable(table), table)
	}
	assert.Equal(t, Health{UniqueIndex: true}, m.Health(ctx))

	// second start is a no-op
	require.NoError(t, m.Migrate(ctx))
	assert.True(t, m.Health(ctx).UniqueIndex)
}

// legacyDDL is the schema written by the previous application.
const legacyDDL = `
	CREATE TABLE clientes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nombre TEXT NOT NULL,
		empresa TEXT NOT NULL,
		tipoDocumento TEXT DEFAULT 'Factura',
		numeroDocumento TEXT,
		saldo REAL DEFAULT 0,
		fecha TEXT,
		createdAt DATETIME DEFAULT CURRENT_TIMESTAMP,
		updatedAt DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE documentos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		clienteId INTEGER NOT NULL,
		tipo TEXT NOT NULL,
		numero TEXT NOT NULL,
		empresa TEXT NOT NULL,
		monto REAL NOT NULL,
		saldoPendiente REAL NOT NULL,
		fecha TEXT,
		createdAt DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (clienteId) REFERENCES clientes(id) ON DELETE CASCADE
	);
	CREATE TABLE pagos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		clienteId INTEGER NOT NULL,
		documentoId INTEGER,
		monto REAL NOT NULL,
		formaPago TEXT DEFAULT 'Transferencia',
		descripcion TEXT,
		fecha DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (clienteId) REFERENCES clientes(id) ON DELETE CASCADE,
		FOREIGN KEY (documentoId) REFERENCES documentos(id) ON DELETE SET NULL
	);
	INSERT INTO clientes (nombre, empresa, createdAt) VALUES ('Acme', 'X', '2024-01-01 10:00:00');
	INSERT INTO clientes (nombre, empresa, createdAt) VALUES ('Acme', 'X', '2024-06-01 10:00:00');
	INSERT INTO clientes (nombre, empresa, createdAt) VALUES ('Acme', 'X', '2024-03-01 10:00:00');
	INSERT INTO clientes (nombre, empresa, createdAt) VALUES ('Acme', 'Y', '2024-01-01 10:00:00');
	INSERT INTO documentos (clienteId, tipo, numero, empresa, monto, saldoPendiente)
		VALUES (2, 'Factura', 'F-1', 'X', 100, 60);
	INSERT INTO pagos (clienteId, documentoId, monto, formaPago) VALUES (2, 1, 40, 'Efectivo');
`

func TestMigrateUpgradesLegacySchema(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	require.NoError(t, db.Exec(ctx, legacyDDL))

	m := NewManager(db, Options{})
	require.NoError(t, m.Migrate(ctx))

	mig := db.ORM(ctx).Migrator()
	assert.True(t, mig.HasTable("pagos_detalle"))
	for _, r := range legacyColumns {
		if r.table == "pagos_detalle" || (r.table == "pagos" && r.from == "createdAt") {
			continue
		}
		cols, err := m.columns(ctx, r.table)
		require.NoError(t, err)
		assert.True(t, cols[r.to], "%s.%s", r.table, r.to)
		assert.False(t, cols[r.from], "%s.%s", r.table, r.from)
	}
	assert.True(t, mig.HasColumn("pagos", "created_at"))

	var ids []uint
	require.NoError(t, db.All(ctx, &ids, "SELECT id FROM clientes ORDER BY id"))
	assert.Equal(t, []uint{2, 4}, ids, "most recent duplicate kept")
	assert.True(t, m.Health(ctx).UniqueIndex)

	type docRow struct {
		ClienteID      uint
		SaldoPendiente float64
	}
	var doc docRow
	found, err := db.Get(ctx, &doc, "SELECT cliente_id, saldo_pendiente FROM documentos WHERE id = 1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint(2), doc.ClienteID)
	assert.Equal(t, 60.0, doc.SaldoPendiente)

	var forma string
	_, err = db.Get(ctx, &forma, "SELECT forma_pago FROM pagos WHERE documento_id = 1")
	require.NoError(t, err)
	assert.Equal(t, "Efectivo", forma)

	_, err = db.Run(ctx, "INSERT INTO clientes (nombre, empresa) VALUES ('Acme', 'X')")
	require.Error(t, err)
	assert.True(t, db.IsConstraintViolation(err))

	// already renamed: the next start changes nothing
	require.NoError(t, m.Migrate(ctx))
}

func TestMigrateRenamesLegacyDetailColumns(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	require.NoError(t, db.Exec(ctx, legacyDDL+`
		CREATE TABLE pagos_detalle (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pagoId INTEGER NOT NULL,
			formaPago TEXT NOT NULL,
			monto REAL NOT NULL,
			FOREIGN KEY (pagoId) REFERENCES pagos(id) ON DELETE CASCADE
		);
		INSERT INTO pagos_detalle (pagoId, formaPago, monto) VALUES (1, 'Efectivo', 40);
	`))

	require.NoError(t, NewManager(db, Options{}).Migrate(ctx))

	var sum float64
	require.NoError(t, db.All(ctx, &sum, "SELECT SUM(monto) FROM pagos_detalle WHERE pago_id = 1 AND forma_pago = 'Efectivo'"))
	assert.Equal(t, 40.0, sum)
}

func TestMigrateContinuesWhenIndexFails(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	// Index names are global in SQLite: squatting the name on another
	// table makes the unique index creation fail.
	require.NoError(t, db.Exec(ctx, legacyDDL+`
		CREATE TABLE otra (x TEXT);
		CREATE INDEX idx_clientes_nombre_empresa ON otra (x);
	`))

	m := NewManager(db, Options{})
	require.NoError(t, m.Migrate(ctx))

	h := m.Health(ctx)
	assert.False(t, h.UniqueIndex)
	assert.NotEmpty(t, h.Detail)

	// duplicate cleanup is kept even though the index was not created
	var ids []uint
	require.NoError(t, db.All(ctx, &ids, "SELECT id FROM clientes ORDER BY id"))
	assert.Equal(t, []uint{2, 4}, ids)
}

func TestMigrateVersioned(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := store.OpenSQLite(path, gormlogger.Discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	url := DatabaseURL(store.KindSQLite, path, "")
	m := NewManager(db, Options{Versioned: true, DatabaseURL: url})
	require.NoError(t, m.Migrate(ctx))
	require.NoError(t, m.Migrate(ctx))

	for _, table := range tables {
		assert.True(t, db.ORM(ctx).Migrator().HasTable(table), table)
	}
	v, dirty, err := Version(store.KindSQLite, url)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(2), v)
}

func TestDatabaseURL(t *testing.T) {
	assert.Equal(t, "sqlite3://data/pagos.db", DatabaseURL(store.KindSQLite, "data/pagos.db", ""))
	assert.Equal(t, "postgres://app:pw@db:5432/pagos?sslmode=disable",
		DatabaseURL(store.KindPostgres, "", "host=db port=5432 user=app password=pw dbname=pagos"))
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	require.NoError(t, NewManager(db, Options{}).Migrate(ctx))
	require.NoError(t, Reset(ctx, db.ORM(ctx)))
	for _, table := range tables {
		assert.False(t, db.ORM(ctx).Migrator().HasTable(table), table)
	}
}

func TestResetThenMigrateVersioned(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := store.OpenSQLite(path, gormlogger.Discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	url := DatabaseURL(store.KindSQLite, path, "")
	m := NewManager(db, Options{Versioned: true, DatabaseURL: url})
	require.NoError(t, m.Migrate(ctx))

	require.NoError(t, Reset(ctx, db.ORM(ctx)))
	assert.False(t, db.ORM(ctx).Migrator().HasTable(VersionTable))

	require.NoError(t, m.Migrate(ctx))
	for _, table := range tables {
		assert.True(t, db.ORM(ctx).Migrator().HasTable(table), table)
	}
	v, dirty, err := Version(store.KindSQLite, url)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(2), v)
	assert.True(t, m.Health(ctx).UniqueIndex)
}
