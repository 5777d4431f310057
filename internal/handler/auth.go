package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/shopcore/shopcore/internal/auth"
	"github.com/shopcore/shopcore/internal/config"
	"github.com/shopcore/shopcore/internal/metrics"
	"github.com/shopcore/shopcore/internal/middleware"
	"github.com/shopcore/shopcore/internal/model"
	"github.com/shopcore/shopcore/internal/repository"
	"github.com/shopcore/shopcore/internal/token"
)

// UserStore is the persistence surface the auth handler needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
}

// AuthHandler handles registration, login and session endpoints.
type AuthHandler struct {
	store   UserStore
	tokens  *token.Manager
	cfg     *config.Config
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(store UserStore, tokens *token.Manager, cfg *config.Config, logger *slog.Logger, recorder metrics.Recorder) *AuthHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthHandler{
		store:   store,
		tokens:  tokens,
		cfg:     cfg,
		logger:  logger,
		metrics: recorder,
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			writeError(w, http.StatusBadRequest, "email already registered")
			return
		}
		h.internalError(w, r, err)
		return
	}

	h.metrics.IncRegistration()
	h.logger.Info("user_registered",
		"user_id", user.ID,
		"role", user.Role,
	)

	writeJSON(w, http.StatusCreated, map[string]string{"message": "user registered"})
}

// Login handles POST /api/auth/login.
//
// Every failure path returns the same status and body. A lookup miss
// still burns a hash comparison so unknown emails are not
// distinguishable from wrong passwords by response time.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.rejectLogin(w, r, "invalid_body")
		return
	}

	if err := req.Validate(); err != nil {
		h.rejectLogin(w, r, "missing_credentials")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		auth.VerifyDecoy(req.Password)
		if !errors.Is(err, repository.ErrUserNotFound) {
			h.internalError(w, r, err)
			return
		}
		h.rejectLogin(w, r, "unknown_email")
		return
	}

	match, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if !match {
		h.rejectLogin(w, r, "wrong_password")
		return
	}

	signed, err := h.tokens.Issue(user.ID, user.Role)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	h.metrics.IncLoginSuccess()
	h.logger.Info("login_success", "user_id", user.ID)

	if h.cfg.AuthMode == config.AuthModeBearer {
		writeJSON(w, http.StatusOK, map[string]string{"token": signed})
		return
	}

	csrfToken, err := auth.NewCSRFToken()
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	h.setSessionCookies(w, signed, csrfToken)
	writeJSON(w, http.StatusOK, map[string]string{"message": "login successful"})
}

// Logout handles POST /api/auth/logout (cookie mode only).
// Clearing uses the same attribute set as setting; browsers match
// cookies on name, path and security attributes when expiring them.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me. The identity was attached by the auth
// middleware; no further store access happens here.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"id":    identity.UserID,
		"email": identity.Email,
		"role":  identity.Role,
	})
}

// Users handles GET /api/auth/users (admin only, gated by middleware).
func (h *AuthHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	out := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}

	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

// CSRFToken handles GET /api/auth/csrf-token (cookie mode only).
// It mints a fresh token and sets the readable CSRF cookie so a
// browser client can bootstrap before logging in.
func (h *AuthHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	csrfToken, err := auth.NewCSRFToken()
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	http.SetCookie(w, h.csrfCookie(csrfToken, int(h.cfg.CookieMaxAge.Seconds())))
	writeJSON(w, http.StatusOK, map[string]string{"csrfToken": csrfToken})
}

// rejectLogin writes the uniform login failure. The reason is visible
// in logs and metrics only, never in the response.
func (h *AuthHandler) rejectLogin(w http.ResponseWriter, r *http.Request, reason string) {
	h.metrics.IncLoginFailure()
	h.logger.Warn("login_failure",
		"reason", reason,
		"request_id", middleware.GetRequestID(r.Context()),
	)
	writeError(w, http.StatusUnauthorized, "invalid credentials")
}

func (h *AuthHandler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	writeInternalError(w, h.logger, middleware.GetRequestID(r.Context()), err, h.cfg.IsDevelopment())
}

// setSessionCookies sets the HttpOnly session cookie and the
// JavaScript-readable CSRF cookie for the double-submit check.
func (h *AuthHandler) setSessionCookies(w http.ResponseWriter, sessionToken, csrfToken string) {
	maxAge := int(h.cfg.CookieMaxAge.Seconds())
	http.SetCookie(w, h.sessionCookie(sessionToken, maxAge))
	http.SetCookie(w, h.csrfCookie(csrfToken, maxAge))
}

func (h *AuthHandler) clearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, h.sessionCookie("", -1))
	http.SetCookie(w, h.csrfCookie("", -1))
}

func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.cfg.AuthCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: h.cfg.SameSite(),
	}
}

func (h *AuthHandler) csrfCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.cfg.CSRFCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: false,
		Secure:   h.cfg.CookieSecure,
		SameSite: h.cfg.SameSite(),
	}
}
