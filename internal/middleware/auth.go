package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopcore/shopcore/internal/auth"
	"github.com/shopcore/shopcore/internal/metrics"
	"github.com/shopcore/shopcore/internal/model"
	"github.com/shopcore/shopcore/internal/token"
)

// TokenVerifier validates a session token under one policy and returns
// its claims. Satisfied by (*token.Manager).Verify and VerifyLoose via
// VerifierFunc.
type TokenVerifier interface {
	VerifyToken(tokenString string) (*token.Claims, error)
}

// VerifierFunc adapts a function to the TokenVerifier interface.
type VerifierFunc func(tokenString string) (*token.Claims, error)

// VerifyToken calls the wrapped function.
func (f VerifierFunc) VerifyToken(tokenString string) (*token.Claims, error) {
	return f(tokenString)
}

// UserSource loads the current user state for cookie-mode auth.
// Satisfied by *repository.Repository.
type UserSource interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// AuthConfig holds configuration for the auth middleware variants.
type AuthConfig struct {
	Logger   *slog.Logger
	Verifier TokenVerifier
	Users    UserSource // cookie variant only
	// CookieName is the session cookie read by the cookie variant.
	CookieName string
	Metrics    metrics.Recorder
}

// AuthBearer returns a middleware that authenticates requests from the
// Authorization header. The token claims alone are trusted: no store
// round-trip, so a deleted user keeps access until the token expires.
// The identity carries id and role only, matching the claims payload.
func AuthBearer(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractBearerToken(r)
			if tokenString == "" {
				rejectUnauthenticated(cfg, w, r, "missing")
				return
			}

			claims, err := cfg.Verifier.VerifyToken(tokenString)
			if err != nil {
				rejectUnauthenticated(cfg, w, r, "invalid")
				return
			}

			identity := &auth.Identity{
				UserID: claims.Subject,
				Role:   claims.Role,
			}

			ctx := auth.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthCookie returns a middleware that authenticates requests from the
// session cookie. After verification it re-reads the user from the
// store, so a deleted or disabled user is rejected even while their
// token is still cryptographically valid. That freshness costs one
// store round-trip per request.
func AuthCookie(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cfg.CookieName)
			if err != nil || cookie.Value == "" {
				rejectUnauthenticated(cfg, w, r, "missing")
				return
			}

			claims, err := cfg.Verifier.VerifyToken(cookie.Value)
			if err != nil {
				rejectUnauthenticated(cfg, w, r, "invalid")
				return
			}

			user, err := cfg.Users.GetUserByID(r.Context(), claims.Subject)
			if err != nil {
				// Not found and store failure both collapse to 401;
				// the distinction is logged, never returned.
				rejectUnauthenticated(cfg, w, r, "user_gone")
				return
			}

			identity := &auth.Identity{
				UserID: user.ID,
				Email:  user.Email,
				Role:   user.Role,
			}

			ctx := auth.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken pulls the token from "Authorization: Bearer <token>".
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// rejectUnauthenticated logs the real reason and writes the uniform
// 401 body. Unknown email, wrong password, missing token, bad token
// and vanished user are indistinguishable to the client.
func rejectUnauthenticated(cfg AuthConfig, w http.ResponseWriter, r *http.Request, reason string) {
	cfg.Logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
	if cfg.Metrics != nil {
		cfg.Metrics.IncAuthRejected(reason)
	}
	writeAuthError(w)
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
}
