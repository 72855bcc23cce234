package handlers

import (
	"net/http"

	"github.com/pagos-app/payment-manager/httpx"
	"github.com/pagos-app/payment-manager/internal/middleware"
	"github.com/pagos-app/payment-manager/internal/services"
)

type ClientHandler struct {
	Svc *services.ClientService
}

func NewClientHandler(svc *services.ClientService) *ClientHandler {
	return &ClientHandler{Svc: svc}
}

// List: GET /api/clientes
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Svc.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.Success(w, http.StatusOK, items)
}

// Get: GET /api/clientes/{id}
func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, r, "invalid_id")
		return
	}
	c, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.Success(w, http.StatusOK, c)
}

// Create: POST /api/clientes
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.ClientInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.Success(w, http.StatusCreated, c)
}

// Update: PUT /api/clientes/{id}
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, r, "invalid_id")
		return
	}
	var in services.ClientInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.Svc.Update(r.Context(), id, in)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.Success(w, http.StatusOK, c)
}

// Delete: DELETE /api/clientes/{id}
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, r, "invalid_id")
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, middleware.T(r, "cliente_eliminado"))
}
