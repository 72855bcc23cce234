package services

import (
	"context"
	"strings"

	"github.com/pagos-app/payment-manager/internal/models"
	"github.com/pagos-app/payment-manager/internal/store"
)

const paymentProjection = `
	SELECT p.id, p.monto, p.forma_pago, p.descripcion, p.fecha, p.documento_id,
	       c.nombre AS cliente_nombre, c.id AS cliente_id,
	       d.tipo AS documento_tipo, d.numero AS documento_numero, d.empresa AS documento_empresa
	FROM pagos p
	JOIN clientes c ON p.cliente_id = c.id
	LEFT JOIN documentos d ON p.documento_id = d.id`

// PaymentFilter narrows a payment listing. Zero values mean no filter.
// Desde and Hasta are inclusive YYYY-MM-DD bounds on the payment date.
type PaymentFilter struct {
	ClienteID uint
	Desde     string
	Hasta     string
	Empresa   string
}

func (f PaymentFilter) where() (string, []any) {
	var conds []string
	var args []any
	if f.ClienteID != 0 {
		conds = append(conds, "p.cliente_id = ?")
		args = append(args, f.ClienteID)
	}
	if f.Desde != "" {
		conds = append(conds, "substr(p.fecha, 1, 10) >= ?")
		args = append(args, f.Desde)
	}
	if f.Hasta != "" {
		conds = append(conds, "substr(p.fecha, 1, 10) <= ?")
		args = append(args, f.Hasta)
	}
	if f.Empresa != "" {
		conds = append(conds, "d.empresa = ?")
		args = append(args, f.Empresa)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// PaymentQueries serves the joined payment projections. Nothing is cached.
type PaymentQueries struct {
	db store.Adapter
}

func NewPaymentQueries(db store.Adapter) *PaymentQueries {
	return &PaymentQueries{db: db}
}

func (q *PaymentQueries) List(ctx context.Context, f PaymentFilter) ([]models.PaymentView, error) {
	return listPayments(ctx, q.db, f)
}

func (q *PaymentQueries) Get(ctx context.Context, id uint) (*models.PaymentView, error) {
	return getPayment(ctx, q.db, id)
}

func listPayments(ctx context.Context, db store.Adapter, f PaymentFilter) ([]models.PaymentView, error) {
	where, args := f.where()
	views := []models.PaymentView{}
	if err := db.All(ctx, &views, paymentProjection+where+" ORDER BY p.fecha DESC, p.id DESC", args...); err != nil {
		return nil, storage("list payments", err)
	}
	if err := attachDetails(ctx, db, views); err != nil {
		return nil, err
	}
	return views, nil
}

func getPayment(ctx context.Context, db store.Adapter, id uint) (*models.PaymentView, error) {
	var v models.PaymentView
	found, err := db.Get(ctx, &v, paymentProjection+" WHERE p.id = ?", id)
	if err != nil {
		return nil, storage("get payment", err)
	}
	if !found {
		return nil, notFound("pago_no_encontrado")
	}
	one := []models.PaymentView{v}
	if err := attachDetails(ctx, db, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// attachDetails loads the detail lines of every view in one query.
func attachDetails(ctx context.Context, db store.Adapter, views []models.PaymentView) error {
	if len(views) == 0 {
		return nil
	}
	ids := make([]uint, len(views))
	for i, v := range views {
		ids[i] = v.ID
	}
	var lines []models.DetailView
	err := db.All(ctx, &lines,
		"SELECT id, pago_id, forma_pago, monto FROM pagos_detalle WHERE pago_id IN ? ORDER BY id", ids)
	if err != nil {
		return storage("load payment details", err)
	}
	byPayment := make(map[uint][]models.DetailView, len(views))
	for _, l := range lines {
		byPayment[l.PagoID] = append(byPayment[l.PagoID], l)
	}
	for i := range views {
		views[i].DetallesPago = byPayment[views[i].ID]
		if views[i].DetallesPago == nil {
			views[i].DetallesPago = []models.DetailView{}
		}
	}
	return nil
}
