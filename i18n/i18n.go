// Package i18n translates message codes for API responses.
package i18n

import (
	"strings"
	"sync/atomic"
)

var defaultLang atomic.Value

func init() { defaultLang.Store("es") }

// Default returns the language used when nothing better is known.
func Default() string { return defaultLang.Load().(string) }

// SetDefault changes the fallback language; unsupported values are ignored.
func SetDefault(lang string) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if _, ok := messages[lang]; ok {
		defaultLang.Store(lang)
	}
}

// Supported reports whether lang has a message table.
func Supported(lang string) bool {
	_, ok := messages[lang]
	return ok
}

// DetectLanguage picks the first supported language of an Accept-Language
// header, falling back to the default.
func DetectLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		base := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if Supported(base) {
			return base
		}
	}
	return Default()
}

// T translates code into lang, then the default language, then returns
// code unchanged.
func T(lang, code string) string {
	if msg, ok := messages[lang][code]; ok {
		return msg
	}
	if msg, ok := messages[Default()][code]; ok {
		return msg
	}
	return code
}

var messages = map[string]map[string]string{
	"es": {
		"required":                   "Requerido",
		"must_be_positive":           "Debe ser mayor a cero",
		"out_of_range":               "Fuera de rango",
		"invalid_choice":             "Valor no permitido",
		"invalid_date":               "Fecha inválida (AAAA-MM-DD)",
		"invalid":                    "Valor inválido",
		"invalid_json":               "JSON inválido",
		"invalid_id":                 "ID inválido",
		"validation_failed":          "Datos inválidos",
		"internal_error":             "Error interno del servidor",
		"route_not_found":            "Ruta no encontrada",
		"api_ok":                     "Payment Manager API funcionando correctamente",
		"backend_ok":                 "Backend funcionando correctamente",
		"cliente_no_encontrado":      "Cliente no encontrado",
		"documento_no_encontrado":    "Documento no encontrado",
		"pago_no_encontrado":         "Pago no encontrado",
		"cliente_duplicado":          "Ya existe un cliente con ese nombre y empresa",
		"numero_documento_duplicado": "Este número de documento ya existe",
		"cliente_campos_requeridos":  "Nombre y empresa son requeridos",
		"campos_requeridos":          "Todos los campos son requeridos",
		"pago_campos_requeridos":     "clienteId y monto son requeridos",
		"cliente_eliminado":          "Cliente eliminado correctamente",
		"documento_eliminado":        "Documento eliminado",
		"pago_eliminado":             "Pago eliminado correctamente",
	},
	"en": {
		"required":                   "Required",
		"must_be_positive":           "Must be greater than zero",
		"out_of_range":               "Out of range",
		"invalid_choice":             "Value not allowed",
		"invalid_date":               "Invalid date (YYYY-MM-DD)",
		"invalid":                    "Invalid value",
		"invalid_json":               "Invalid JSON",
		"invalid_id":                 "Invalid ID",
		"validation_failed":          "Invalid data",
		"internal_error":             "Internal server error",
		"route_not_found":            "Route not found",
		"api_ok":                     "Payment Manager API is running",
		"backend_ok":                 "Backend is running",
		"cliente_no_encontrado":      "Client not found",
		"documento_no_encontrado":    "Document not found",
		"pago_no_encontrado":         "Payment not found",
		"cliente_duplicado":          "A client with that name and company already exists",
		"numero_documento_duplicado": "This document number already exists",
		"cliente_campos_requeridos":  "Name and company are required",
		"campos_requeridos":          "All fields are required",
		"pago_campos_requeridos":     "clienteId and monto are required",
		"cliente_eliminado":          "Client deleted",
		"documento_eliminado":        "Document deleted",
		"pago_eliminado":             "Payment deleted",
	},
}
