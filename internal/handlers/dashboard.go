package handlers

import (
	"net/http"

	"github.com/pagos-app/payment-manager/httpx"
	"github.com/pagos-app/payment-manager/internal/services"
)

type DashboardHandler struct {
	Svc *services.Dashboard
}

func NewDashboardHandler(svc *services.Dashboard) *DashboardHandler {
	return &DashboardHandler{Svc: svc}
}

// Summary: GET /api/dashboard?desde&hasta&empresa
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.Svc.Summary(r.Context(), filterFrom(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.Success(w, http.StatusOK, s)
}
