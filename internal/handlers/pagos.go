package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/pagos-app/payment-manager/httpx"
	"github.com/pagos-app/payment-manager/internal/export"
	"github.com/pagos-app/payment-manager/internal/middleware"
	"github.com/pagos-app/payment-manager/internal/services"
)

// PaymentHandler serves payment reads from the projection and routes every
// write through the ledger.
type PaymentHandler struct {
	Ledger  *services.Ledger
	Queries *services.PaymentQueries
}

func NewPaymentHandler(ledger *services.Ledger, queries *services.PaymentQueries) *PaymentHandler {
	return &PaymentHandler{Ledger: ledger, Queries: queries}
}

// List: GET /api/pagos?clienteId&desde&hasta&empresa
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Queries.List(r.Context(), filterFrom(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.Success(w, http.StatusOK, items)
}

// Export: GET /api/pagos/export – same filters as List, as an XLSX workbook.
func (h *PaymentHandler) Export(w http.ResponseWriter, r *http.Request) {
	items, err := h.Queries.List(r.Context(), filterFrom(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WritePayments(&buf, items); err != nil {
		fail(w, r, err)
		return
	}
	name := "pagos-" + time.Now().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Get: GET /api/pagos/{id}
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, r, "invalid_id")
		return
	}
	p, err := h.Queries.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.Success(w, http.StatusOK, p)
}

// Create: POST /api/pagos
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.PaymentInput
	if !decode(w, r, &in) {
		return
	}
	p, err := h.Ledger.Create(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.Success(w, http.StatusCreated, p)
}

// Update: PUT /api/pagos/{id}
func (h *PaymentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, r, "invalid_id")
		return
	}
	var in services.PaymentUpdate
	if !decode(w, r, &in) {
		return
	}
	p, err := h.Ledger.Update(r.Context(), id, in)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.Success(w, http.StatusOK, p)
}

// Delete: DELETE /api/pagos/{id}
func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, r, "invalid_id")
		return
	}
	if err := h.Ledger.Delete(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, middleware.T(r, "pago_eliminado"))
}
