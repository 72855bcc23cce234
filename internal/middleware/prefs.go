package middleware

import (
	"context"
	"net/http"

	"github.com/pagos-app/payment-manager/i18n"
)

type ctxKey string

const (
	ctxLang      ctxKey = "pref_lang"
	ctxRequestID ctxKey = "request_id"
)

// Prefs resolves the response language (query > cookie > Accept-Language >
// default) and stores it in the request context. A language passed in the
// query is remembered in a cookie for ~30 days.
func Prefs(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := ""
		if c, err := r.Cookie("lang"); err == nil {
			lang = c.Value
		}
		if ql := r.URL.Query().Get("lang"); ql != "" && i18n.Supported(ql) {
			lang = ql
			http.SetCookie(w, &http.Cookie{Name: "lang", Value: lang, Path: "/", MaxAge: 86400 * 30})
		}
		if !i18n.Supported(lang) {
			lang = i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		}
		ctx := context.WithValue(r.Context(), ctxLang, lang)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LangFrom returns the language preference from context or the default.
func LangFrom(r *http.Request) string {
	if v, ok := r.Context().Value(ctxLang).(string); ok && v != "" {
		return v
	}
	return i18n.Default()
}

// T translates code in the request's language.
func T(r *http.Request, code string) string {
	return i18n.T(LangFrom(r), code)
}
