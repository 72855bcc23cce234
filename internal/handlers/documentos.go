package handlers

import (
	"net/http"

	"github.com/pagos-app/payment-manager/httpx"
	"github.com/pagos-app/payment-manager/internal/middleware"
	"github.com/pagos-app/payment-manager/internal/services"
)

type DocumentHandler struct {
	Svc *services.DocumentService
}

func NewDocumentHandler(svc *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{Svc: svc}
}

// List: GET /api/documentos
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Svc.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.Success(w, http.StatusOK, items)
}

// Pending: GET /api/documentos/cliente/{clienteId}
func (h *DocumentHandler) Pending(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "clienteId")
	if !ok {
		badRequest(w, r, "invalid_id")
		return
	}
	items, err := h.Svc.ListPending(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.Success(w, http.StatusOK, items)
}

// Get: GET /api/documentos/{id}
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, r, "invalid_id")
		return
	}
	d, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.Success(w, http.StatusOK, d)
}

// Create: POST /api/documentos
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.DocumentInput
	if !decode(w, r, &in) {
		return
	}
	d, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.Success(w, http.StatusCreated, d)
}

// Update: PUT /api/documentos/{id}; only saldoPendiente is editable.
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, r, "invalid_id")
		return
	}
	var body struct {
		SaldoPendiente *float64 `json:"saldoPendiente"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.SaldoPendiente == nil {
		httpx.Failure(w, http.StatusBadRequest, middleware.T(r, "campos_requeridos"),
			map[string]string{"saldoPendiente": middleware.T(r, "required")})
		return
	}
	d, err := h.Svc.UpdateOutstanding(r.Context(), id, *body.SaldoPendiente)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.Success(w, http.StatusOK, d)
}

// Delete: DELETE /api/documentos/{id}
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, r, "invalid_id")
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, middleware.T(r, "documento_eliminado"))
}
