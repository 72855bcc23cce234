package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pagos-app/payment-manager/internal/models"
	"github.com/pagos-app/payment-manager/internal/schema"
	"github.com/pagos-app/payment-manager/internal/store"
)

func newTestDB(t *testing.T) store.Adapter {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	db, err := store.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name), gormlogger.Discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, schema.NewManager(db, schema.Options{}).Migrate(context.Background()))
	return db
}

func ptr[T any](v T) *T { return &v }

func seedClient(t *testing.T, db store.Adapter, nombre, empresa string, saldo float64) *models.Client {
	t.Helper()
	c, err := NewClientService(db).Create(context.Background(), ClientInput{
		Nombre: ptr(nombre), Empresa: ptr(empresa), Saldo: ptr(saldo),
	})
	require.NoError(t, err)
	return c
}

func seedDocument(t *testing.T, db store.Adapter, clienteID uint, empresa string, monto float64) *models.Document {
	t.Helper()
	d, err := NewDocumentService(db).Create(context.Background(), DocumentInput{
		ClienteID: clienteID, Tipo: models.TipoFactura, Numero: fmt.Sprintf("F-%v", monto), Empresa: empresa, Monto: monto,
	})
	require.NoError(t, err)
	return d
}

func clientSaldo(t *testing.T, db store.Adapter, id uint) float64 {
	t.Helper()
	c, err := NewClientService(db).Get(context.Background(), id)
	require.NoError(t, err)
	return c.Saldo
}

func documentSaldo(t *testing.T, db store.Adapter, id uint) float64 {
	t.Helper()
	d, err := NewDocumentService(db).Get(context.Background(), id)
	require.NoError(t, err)
	return d.SaldoPendiente
}

func requireCode(t *testing.T, err error, kind error, code string) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, kind)
	require.Equal(t, code, Code(err))
}
