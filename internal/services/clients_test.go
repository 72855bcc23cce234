package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagos-app/payment-manager/internal/store"
)

func TestClientCreateDefaultsAndTrims(t *testing.T) {
	ctx := context.Background()
	svc := NewClientService(newTestDB(t))

	c, err := svc.Create(ctx, ClientInput{Nombre: ptr("  Acme "), Empresa: ptr(" X"), Saldo: ptr(10.005)})
	require.NoError(t, err)
	assert.Equal(t, "Acme", c.Nombre)
	assert.Equal(t, "X", c.Empresa)
	assert.Equal(t, "Factura", c.TipoDocumento)
	assert.Nil(t, c.NumeroDocumento)
	assert.Equal(t, 10.01, c.Saldo)
	assert.False(t, c.CreatedAt.IsZero())
}

func TestClientCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewClientService(newTestDB(t))

	_, err := svc.Create(ctx, ClientInput{Nombre: ptr("Acme"), Empresa: ptr("   ")})
	requireCode(t, err, ErrValidation, "cliente_campos_requeridos")
	assert.Equal(t, "required", Fields(err)["empresa"])

	_, err = svc.Create(ctx, ClientInput{Nombre: ptr("Acme"), Empresa: ptr("X"), TipoDocumento: ptr("Recibo")})
	requireCode(t, err, ErrValidation, "validation_failed")
}

func TestClientDuplicatePrecheck(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewClientService(db)
	seedClient(t, db, "Acme", "X", 0)

	_, err := svc.Create(ctx, ClientInput{Nombre: ptr(" Acme "), Empresa: ptr("X ")})
	requireCode(t, err, ErrConstraint, "cliente_duplicado")

	// same name under another company is fine
	_, err = svc.Create(ctx, ClientInput{Nombre: ptr("Acme"), Empresa: ptr("Y")})
	require.NoError(t, err)
}

// blindChecks hides existing clients from the duplicate pre-check so the
// insert reaches the unique index.
type blindChecks struct{ store.Adapter }

func (b blindChecks) Get(ctx context.Context, dest any, query string, args ...any) (bool, error) {
	if strings.HasPrefix(query, "SELECT id FROM clientes WHERE") {
		return false, nil
	}
	return b.Adapter.Get(ctx, dest, query, args...)
}

func (b blindChecks) Transaction(ctx context.Context, fn func(tx store.Adapter) error) error {
	return b.Adapter.Transaction(ctx, func(tx store.Adapter) error { return fn(blindChecks{tx}) })
}

func TestClientDuplicateFromStorage(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedClient(t, db, "Acme", "X", 0)

	_, err := NewClientService(blindChecks{db}).Create(ctx, ClientInput{Nombre: ptr("Acme"), Empresa: ptr("X")})
	requireCode(t, err, ErrConstraint, "cliente_duplicado")

	// direct insert against the index
	_, err = db.Run(ctx, "INSERT INTO clientes (nombre, empresa) VALUES (?, ?)", "Acme", "X")
	require.Error(t, err)
	assert.True(t, db.IsConstraintViolation(err))
}

func TestClientDocumentNumberUnique(t *testing.T) {
	ctx := context.Background()
	svc := NewClientService(newTestDB(t))

	_, err := svc.Create(ctx, ClientInput{Nombre: ptr("A"), Empresa: ptr("X"), NumeroDocumento: ptr("0001")})
	require.NoError(t, err)

	_, err = svc.Create(ctx, ClientInput{Nombre: ptr("B"), Empresa: ptr("X"), NumeroDocumento: ptr(" 0001 ")})
	requireCode(t, err, ErrConstraint, "numero_documento_duplicado")

	// different document type, same number
	_, err = svc.Create(ctx, ClientInput{Nombre: ptr("B"), Empresa: ptr("X"), TipoDocumento: ptr("Remito"), NumeroDocumento: ptr("0001")})
	require.NoError(t, err)
}

func TestClientDocumentNumberSeveralMatches(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	// older data may already hold the same number more than once
	for _, nombre := range []string{"A", "B", "C"} {
		_, err := db.Run(ctx, "INSERT INTO clientes (nombre, empresa, tipo_documento, numero_documento) VALUES (?, 'X', 'Factura', '0007')", nombre)
		require.NoError(t, err)
	}
	svc := NewClientService(db)

	_, err := svc.Create(ctx, ClientInput{Nombre: ptr("D"), Empresa: ptr("X"), NumeroDocumento: ptr("0007")})
	requireCode(t, err, ErrConstraint, "numero_documento_duplicado")

	_, err = svc.Update(ctx, 1, ClientInput{Nombre: ptr("A2")})
	require.NoError(t, err, "number unchanged on update is not re-checked")
}

func TestClientUpdate(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewClientService(db)
	a := seedClient(t, db, "Acme", "X", 100)
	seedClient(t, db, "Beta", "X", 0)

	got, err := svc.Update(ctx, a.ID, ClientInput{Fecha: ptr("2024-05-01")})
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Nombre, "omitted fields keep their value")
	assert.Equal(t, 100.0, got.Saldo)
	require.NotNil(t, got.Fecha)
	assert.Equal(t, "2024-05-01", *got.Fecha)

	// renaming onto itself is not a duplicate
	_, err = svc.Update(ctx, a.ID, ClientInput{Nombre: ptr("Acme"), Empresa: ptr("X")})
	require.NoError(t, err)

	// merged pair collides with Beta/X
	_, err = svc.Update(ctx, a.ID, ClientInput{Nombre: ptr(" Beta ")})
	requireCode(t, err, ErrConstraint, "cliente_duplicado")

	// saldo can be overwritten, rounded
	got, err = svc.Update(ctx, a.ID, ClientInput{Saldo: ptr(12.345)})
	require.NoError(t, err)
	assert.Equal(t, 12.35, got.Saldo)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	_, err = svc.Update(ctx, 999, ClientInput{Nombre: ptr("Z")})
	requireCode(t, err, ErrNotFound, "cliente_no_encontrado")
}

func TestClientListOrderAndDelete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewClientService(db)
	a := seedClient(t, db, "A", "X", 0)
	b := seedClient(t, db, "B", "X", 0)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID, "newest first")

	doc := seedDocument(t, db, a.ID, "X", 50)
	_, err = NewLedger(db, LegacyReversal).Create(ctx, PaymentInput{ClienteID: a.ID, DocumentoID: &doc.ID, Monto: 10})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, a.ID))
	requireCode(t, svc.Delete(ctx, a.ID), ErrNotFound, "cliente_no_encontrado")

	var docs, pays, lines int64
	_, _ = db.Get(ctx, &docs, "SELECT COUNT(*) FROM documentos")
	_, _ = db.Get(ctx, &pays, "SELECT COUNT(*) FROM pagos")
	_, _ = db.Get(ctx, &lines, "SELECT COUNT(*) FROM pagos_detalle")
	assert.Zero(t, docs+pays+lines, "documents, payments and details cascade with the client")
}
