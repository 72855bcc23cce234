package server

import (
	"net/http"

	"github.com/pagos-app/payment-manager/httpx"
	"github.com/pagos-app/payment-manager/internal/config"
	"github.com/pagos-app/payment-manager/internal/handlers"
	"github.com/pagos-app/payment-manager/internal/middleware"
	"github.com/pagos-app/payment-manager/internal/schema"
	"github.com/pagos-app/payment-manager/internal/services"
	"github.com/pagos-app/payment-manager/internal/store"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db store.Adapter, sm *schema.Manager, cfg config.Config) http.Handler {
	mux := http.NewServeMux()

	// --- Health endpoints ---
	hh := handlers.NewHealthHandler(db, sm)
	mux.HandleFunc("GET /{$}", hh.Root)
	mux.HandleFunc("GET /api/health", hh.Health)

	// Clients
	ch := handlers.NewClientHandler(services.NewClientService(db))
	mux.HandleFunc("GET /api/clientes", ch.List)
	mux.HandleFunc("POST /api/clientes", ch.Create)
	mux.HandleFunc("GET /api/clientes/{id}", ch.Get)
	mux.HandleFunc("PUT /api/clientes/{id}", ch.Update)
	mux.HandleFunc("DELETE /api/clientes/{id}", ch.Delete)

	// Documents
	dh := handlers.NewDocumentHandler(services.NewDocumentService(db))
	mux.HandleFunc("GET /api/documentos", dh.List)
	mux.HandleFunc("POST /api/documentos", dh.Create)
	mux.HandleFunc("GET /api/documentos/cliente/{clienteId}", dh.Pending)
	mux.HandleFunc("GET /api/documentos/{id}", dh.Get)
	mux.HandleFunc("PUT /api/documentos/{id}", dh.Update)
	mux.HandleFunc("DELETE /api/documentos/{id}", dh.Delete)

	// Payments: every write goes through the ledger.
	ledger := services.NewLedger(db, services.PolicyFor(cfg.Ledger.RestoreDocumentOnDelete))
	ph := handlers.NewPaymentHandler(ledger, services.NewPaymentQueries(db))
	mux.HandleFunc("GET /api/pagos", ph.List)
	mux.HandleFunc("POST /api/pagos", ph.Create)
	mux.HandleFunc("GET /api/pagos/export", ph.Export)
	mux.HandleFunc("GET /api/pagos/{id}", ph.Get)
	mux.HandleFunc("PUT /api/pagos/{id}", ph.Update)
	mux.HandleFunc("DELETE /api/pagos/{id}", ph.Delete)

	// Dashboard
	mux.HandleFunc("GET /api/dashboard", handlers.NewDashboardHandler(services.NewDashboard(db)).Summary)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.Failure(w, http.StatusNotFound, middleware.T(r, "route_not_found"), nil)
	})

	var h http.Handler = mux
	h = middleware.Prefs(h)
	h = middleware.CORS(cfg.AllowedOrigins)(h)
	h = middleware.AccessLog(h)
	h = middleware.RequestID(h)
	return middleware.Recover(h)
}
