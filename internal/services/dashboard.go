package services

import (
	"context"
	"sort"

	"github.com/pagos-app/payment-manager/internal/models"
	"github.com/pagos-app/payment-manager/internal/money"
	"github.com/pagos-app/payment-manager/internal/store"
)

// SinEmpresa groups payments that are not tied to a document.
const SinEmpresa = "Sin empresa"

type ClientDebt struct {
	ID        uint    `json:"id"`
	Nombre    string  `json:"nombre"`
	Empresa   string  `json:"empresa"`
	Saldo     float64 `json:"saldo"`
	DeudaReal float64 `json:"deudaReal"`
}

type DashboardSummary struct {
	TotalRecibido         float64            `json:"totalRecibido"`
	TotalRecibidoFiltrado float64            `json:"totalRecibidoFiltrado"`
	PagosFiltrados        int                `json:"pagosFiltrados"`
	PorFormaPago          map[string]float64 `json:"porFormaPago"`
	PorEmpresa            map[string]float64 `json:"porEmpresa"`
	Empresas              []string           `json:"empresas"`
	ClientesConDeuda      []ClientDebt       `json:"clientesConDeuda"`
	TotalDeudaReal        float64            `json:"totalDeudaReal"`
}

type Dashboard struct {
	db store.Adapter
}

func NewDashboard(db store.Adapter) *Dashboard {
	return &Dashboard{db: db}
}

// Summary aggregates received payments (optionally filtered by date range
// and company) and the real debt per client, taken from the outstanding
// amounts of their documents.
func (d *Dashboard) Summary(ctx context.Context, f PaymentFilter) (*DashboardSummary, error) {
	f.ClienteID = 0
	all, err := listPayments(ctx, d.db, PaymentFilter{})
	if err != nil {
		return nil, err
	}
	filtered, err := listPayments(ctx, d.db, f)
	if err != nil {
		return nil, err
	}

	out := &DashboardSummary{
		PorFormaPago:     map[string]float64{},
		PorEmpresa:       map[string]float64{},
		Empresas:         []string{},
		ClientesConDeuda: []ClientDebt{},
		PagosFiltrados:   len(filtered),
	}
	out.TotalRecibido = money.Sum(amounts(all)...)
	out.TotalRecibidoFiltrado = money.Sum(amounts(filtered)...)

	seen := map[string]bool{}
	for _, p := range all {
		if p.DocumentoEmpresa != nil && *p.DocumentoEmpresa != "" && !seen[*p.DocumentoEmpresa] {
			seen[*p.DocumentoEmpresa] = true
			out.Empresas = append(out.Empresas, *p.DocumentoEmpresa)
		}
	}
	sort.Strings(out.Empresas)

	for _, p := range filtered {
		for _, line := range p.DetallesPago {
			out.PorFormaPago[line.FormaPago] = money.Add(out.PorFormaPago[line.FormaPago], line.Monto)
		}
		empresa := SinEmpresa
		if p.DocumentoEmpresa != nil && *p.DocumentoEmpresa != "" {
			empresa = *p.DocumentoEmpresa
		}
		out.PorEmpresa[empresa] = money.Add(out.PorEmpresa[empresa], p.Monto)
	}

	err = d.db.All(ctx, &out.ClientesConDeuda, `
		SELECT c.id, c.nombre, c.empresa, c.saldo, SUM(d.saldo_pendiente) AS deuda_real
		FROM clientes c
		JOIN documentos d ON d.cliente_id = c.id
		GROUP BY c.id, c.nombre, c.empresa, c.saldo
		HAVING SUM(d.saldo_pendiente) > 0
		ORDER BY deuda_real DESC, c.id`)
	if err != nil {
		return nil, storage("client debt", err)
	}
	debts := make([]float64, len(out.ClientesConDeuda))
	for i := range out.ClientesConDeuda {
		out.ClientesConDeuda[i].DeudaReal = money.Round2(out.ClientesConDeuda[i].DeudaReal)
		debts[i] = out.ClientesConDeuda[i].DeudaReal
	}
	out.TotalDeudaReal = money.Sum(debts...)
	return out, nil
}

func amounts(views []models.PaymentView) []float64 {
	out := make([]float64, len(views))
	for i, v := range views {
		out[i] = v.Monto
	}
	return out
}
