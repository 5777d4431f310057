package middleware

import (
	"net/http"

	"github.com/shopcore/shopcore/internal/auth"
	"github.com/shopcore/shopcore/internal/model"
)

// RequireRole returns middleware that enforces a role requirement.
// Must be applied after an auth middleware. It is a pure function of
// the attached identity: mismatch means 403 with no further detail.
func RequireRole(required string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := auth.IdentityFromContext(r.Context())
			if identity == nil {
				writeAuthError(w)
				return
			}

			if identity.Role != required {
				writeForbiddenError(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is a convenience middleware for the admin role.
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(model.RoleAdmin)
}

// writeForbiddenError writes a 403 response without leaking which role
// was required.
func writeForbiddenError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"forbidden"}`))
}
