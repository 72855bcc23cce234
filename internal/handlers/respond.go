package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/pagos-app/payment-manager/httpx"
	"github.com/pagos-app/payment-manager/internal/middleware"
	"github.com/pagos-app/payment-manager/internal/services"
)

// StatusFor maps a service error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrConstraint):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the error envelope with the message translated to the
// request language. Field violations are translated too.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).
			Str("request_id", middleware.RequestIDFrom(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	var details map[string]string
	if fields := services.Fields(err); fields != nil {
		details = make(map[string]string, len(fields))
		for field, code := range fields {
			details[field] = middleware.T(r, code)
		}
	}
	code := services.Code(err)
	if status == http.StatusInternalServerError {
		code = "internal_error"
	}
	if details == nil {
		httpx.Failure(w, status, middleware.T(r, code), nil)
		return
	}
	httpx.Failure(w, status, middleware.T(r, code), details)
}

func badRequest(w http.ResponseWriter, r *http.Request, code string) {
	httpx.Failure(w, http.StatusBadRequest, middleware.T(r, code), nil)
}

// pathID parses a positive integer path parameter.
func pathID(r *http.Request, name string) (uint, bool) {
	n, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// decode reads a JSON body, answering 400 invalid_json on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.Decode(r, dst); err != nil {
		badRequest(w, r, "invalid_json")
		return false
	}
	return true
}

// filterFrom reads the payment filter query parameters. An unparsable
// clienteId is ignored.
func filterFrom(r *http.Request) services.PaymentFilter {
	q := r.URL.Query()
	f := services.PaymentFilter{
		Desde:   q.Get("desde"),
		Hasta:   q.Get("hasta"),
		Empresa: q.Get("empresa"),
	}
	if v := q.Get("clienteId"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			f.ClienteID = uint(n)
		}
	}
	return f
}
