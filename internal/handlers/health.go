package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/pagos-app/payment-manager/httpx"
	"github.com/pagos-app/payment-manager/internal/middleware"
	"github.com/pagos-app/payment-manager/internal/schema"
)

// Pinger is the part of the storage adapter the health check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	DB     Pinger
	Schema *schema.Manager
}

func NewHealthHandler(db Pinger, sm *schema.Manager) *HealthHandler {
	return &HealthHandler{DB: db, Schema: sm}
}

type healthReport struct {
	Status   string        `json:"status"`
	Message  string        `json:"message"`
	Database string        `json:"database"`
	Schema   schema.Health `json:"schema"`
	Time     string        `json:"timestamp"`
}

func (h *HealthHandler) report(r *http.Request, code string) (healthReport, int) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	rep := healthReport{
		Status:   "ok",
		Message:  middleware.T(r, code),
		Database: "ok",
		Time:     time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK
	if err := h.DB.Ping(ctx); err != nil {
		rep.Status, rep.Database = "degraded", "unreachable"
		status = http.StatusServiceUnavailable
	}
	if h.Schema != nil {
		rep.Schema = h.Schema.Health(ctx)
		if !rep.Schema.UniqueIndex && rep.Status == "ok" {
			rep.Status = "degraded"
		}
	}
	return rep, status
}

// Root: GET /
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	rep, status := h.report(r, "api_ok")
	httpx.JSON(w, status, rep)
}

// Health: GET /api/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	rep, status := h.report(r, "backend_ok")
	httpx.JSON(w, status, rep)
}
