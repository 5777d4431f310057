package middleware

import (
	"net/http"

	"github.com/shopcore/shopcore/internal/auth"
)

// CSRFHeader is the request header that must echo the CSRF cookie on
// state-changing requests in cookie mode.
const CSRFHeader = "X-CSRF-Token"

// CSRF returns a middleware implementing the double-submit cookie
// check. Safe methods pass through; for everything else the
// script-readable CSRF cookie must match the X-CSRF-Token header.
// Only meaningful in cookie mode, where the browser auto-attaches the
// session cookie.
func CSRF(cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(cookieName)
			if err != nil || !auth.CSRFTokensMatch(cookie.Value, r.Header.Get(CSRFHeader)) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"csrf token mismatch"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
