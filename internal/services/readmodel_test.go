package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentListFiltersAndDetails(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	a := seedClient(t, db, "Acme", "X", 0)
	b := seedClient(t, db, "Beta", "Y", 0)
	docX := seedDocument(t, db, a.ID, "Norte", 500)
	ledger := NewLedger(db, LegacyReversal)

	p1, err := ledger.Create(ctx, PaymentInput{ClienteID: a.ID, DocumentoID: &docX.ID, Monto: 100, Fecha: "2024-01-10",
		Detalles: []DetailInput{{FormaPago: "Efectivo", Monto: 60}, {FormaPago: "Cheque", Monto: 40}}})
	require.NoError(t, err)
	p2, err := ledger.Create(ctx, PaymentInput{ClienteID: a.ID, Monto: 50, Fecha: "2024-02-10"})
	require.NoError(t, err)
	p3, err := ledger.Create(ctx, PaymentInput{ClienteID: b.ID, Monto: 70, Fecha: "2024-03-10"})
	require.NoError(t, err)

	q := NewPaymentQueries(db)
	all, err := q.List(ctx, PaymentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uint{p3.ID, p2.ID, p1.ID}, []uint{all[0].ID, all[1].ID, all[2].ID}, "newest date first")
	assert.Len(t, all[2].DetallesPago, 2)
	assert.Len(t, all[0].DetallesPago, 1)
	assert.Equal(t, "Beta", all[0].ClienteNombre)

	byClient, err := q.List(ctx, PaymentFilter{ClienteID: a.ID})
	require.NoError(t, err)
	assert.Len(t, byClient, 2)

	ranged, err := q.List(ctx, PaymentFilter{Desde: "2024-02-01", Hasta: "2024-03-10"})
	require.NoError(t, err)
	assert.Len(t, ranged, 2)

	byCompany, err := q.List(ctx, PaymentFilter{Empresa: "Norte"})
	require.NoError(t, err)
	require.Len(t, byCompany, 1)
	assert.Equal(t, p1.ID, byCompany[0].ID)

	none, err := q.List(ctx, PaymentFilter{Empresa: "Sur"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestPaymentGetNotFound(t *testing.T) {
	_, err := NewPaymentQueries(newTestDB(t)).Get(context.Background(), 1)
	requireCode(t, err, ErrNotFound, "pago_no_encontrado")
}
