package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopcore/shopcore/internal/auth"
	"github.com/shopcore/shopcore/internal/config"
	"github.com/shopcore/shopcore/internal/metrics"
	"github.com/shopcore/shopcore/internal/model"
	"github.com/shopcore/shopcore/internal/repository"
	"github.com/shopcore/shopcore/internal/token"
)

// fakeUserStore is an in-memory UserStore for handler tests.
type fakeUserStore struct {
	byEmail map[string]*model.User
	err     error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: make(map[string]*model.User)}
}

func (s *fakeUserStore) CreateUser(_ context.Context, user *model.User) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.byEmail[user.Email]; ok {
		return repository.ErrEmailExists
	}
	s.byEmail[user.Email] = user
	return nil
}

func (s *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	user, ok := s.byEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (s *fakeUserStore) ListUsers(_ context.Context) ([]*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	users := make([]*model.User, 0, len(s.byEmail))
	for _, u := range s.byEmail {
		users = append(users, u)
	}
	return users, nil
}

func (s *fakeUserStore) addUser(t *testing.T, email, password, role string) *model.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &model.User{
		ID:           "01HTEST" + email,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	s.byEmail[email] = user
	return user
}

func testConfig(mode string) *config.Config {
	return &config.Config{
		AppEnv:         "test",
		AuthMode:       mode,
		AuthCookieName: "access_token",
		CSRFCookieName: "csrf_token",
		CookieSecure:   true,
		CookieSameSite: "lax",
		CookieMaxAge:   24 * time.Hour,
	}
}

func newAuthHandler(t *testing.T, store UserStore, mode string) *AuthHandler {
	t.Helper()
	tokens, err := token.NewManager([]byte("test-secret"), "ecommerce-be", "ecommerce-fe", time.Hour, 5*time.Second)
	if err != nil {
		t.Fatalf("failed to create token manager: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuthHandler(store, tokens, testConfig(mode), logger, metrics.NewInMemory())
}

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}

func TestRegister(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "valid registration",
			body:       `{"email":"new@example.com","password":"longenough"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "valid admin registration",
			body:       `{"email":"boss@example.com","password":"longenough","role":"admin"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "malformed json",
			body:       `{"email":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "missing email",
			body:       `{"password":"longenough"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "email is required",
		},
		{
			name:       "short password",
			body:       `{"email":"new@example.com","password":"short"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "password is too short",
		},
		{
			name:       "unknown role",
			body:       `{"email":"new@example.com","password":"longenough","role":"superuser"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "role is invalid",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newAuthHandler(t, newFakeUserStore(), config.AuthModeBearer)
			rec := postJSON(t, h.Register, "/api/auth/register", tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}

			body := decodeBody(t, rec)
			if tt.wantStatus == http.StatusCreated {
				if body["message"] != "user registered" {
					t.Errorf("unexpected body: %v", body)
				}
			} else if body["error"] != tt.wantError {
				t.Errorf("expected error %q, got %q", tt.wantError, body["error"])
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	store.addUser(t, "taken@example.com", "longenough", model.RoleUser)
	h := newAuthHandler(t, store, config.AuthModeBearer)

	rec := postJSON(t, h.Register, "/api/auth/register", `{"email":"taken@example.com","password":"longenough"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "email already registered" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestLogin_BearerMode(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	user := store.addUser(t, "alice@example.com", "correct-horse", model.RoleUser)
	h := newAuthHandler(t, store, config.AuthModeBearer)

	rec := postJSON(t, h.Login, "/api/auth/login", `{"email":"alice@example.com","password":"correct-horse"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("bearer mode must not set cookies")
	}

	body := decodeBody(t, rec)
	if body["token"] == "" {
		t.Fatal("expected a token in the response body")
	}

	claims, err := h.tokens.Verify(body["token"])
	if err != nil {
		t.Fatalf("issued token failed verification: %v", err)
	}
	if claims.Subject != user.ID {
		t.Errorf("expected subject %q, got %q", user.ID, claims.Subject)
	}
	if claims.Role != model.RoleUser {
		t.Errorf("expected role %q, got %q", model.RoleUser, claims.Role)
	}
}

// Wrong password, unknown email and malformed input must be
// indistinguishable from the response alone.
func TestLogin_UniformFailure(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	store.addUser(t, "alice@example.com", "correct-horse", model.RoleUser)
	h := newAuthHandler(t, store, config.AuthModeBearer)

	bodies := []string{
		`{"email":"alice@example.com","password":"wrong-password"}`,
		`{"email":"nobody@example.com","password":"correct-horse"}`,
		`{"email":"alice@example.com"}`,
		`{not json`,
	}

	for _, body := range bodies {
		rec := postJSON(t, h.Login, "/api/auth/login", body)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("body %s: expected status 401, got %d", body, rec.Code)
		}
		if got := decodeBody(t, rec); got["error"] != "invalid credentials" {
			t.Errorf("body %s: expected uniform failure body, got %v", body, got)
		}
	}
}

func TestLogin_CookieMode(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	store.addUser(t, "alice@example.com", "correct-horse", model.RoleUser)
	h := newAuthHandler(t, store, config.AuthModeCookie)

	rec := postJSON(t, h.Login, "/api/auth/login", `{"email":"alice@example.com","password":"correct-horse"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["token"] != "" {
		t.Error("cookie mode must not return the token in the body")
	}

	cookies := rec.Result().Cookies()
	session := findCookie(cookies, "access_token")
	csrf := findCookie(cookies, "csrf_token")
	if session == nil || csrf == nil {
		t.Fatalf("expected session and csrf cookies, got %v", cookies)
	}

	if !session.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
	if csrf.HttpOnly {
		t.Error("csrf cookie must be readable by the client")
	}
	for _, c := range []*http.Cookie{session, csrf} {
		if !c.Secure {
			t.Errorf("cookie %s must be Secure", c.Name)
		}
		if c.Path != "/" {
			t.Errorf("cookie %s must be scoped to /", c.Name)
		}
		if c.SameSite != http.SameSiteLaxMode {
			t.Errorf("cookie %s must be SameSite=Lax", c.Name)
		}
		if c.MaxAge != int((24 * time.Hour).Seconds()) {
			t.Errorf("cookie %s has unexpected MaxAge %d", c.Name, c.MaxAge)
		}
	}

	if _, err := h.tokens.Verify(session.Value); err != nil {
		t.Errorf("session cookie does not hold a valid token: %v", err)
	}
}

func TestLogout_ClearsCookiesWithMatchingAttributes(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	store.addUser(t, "alice@example.com", "correct-horse", model.RoleUser)
	h := newAuthHandler(t, store, config.AuthModeCookie)

	login := postJSON(t, h.Login, "/api/auth/login", `{"email":"alice@example.com","password":"correct-horse"}`)
	setCookies := login.Result().Cookies()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}

	clearCookies := rec.Result().Cookies()
	for _, name := range []string{"access_token", "csrf_token"} {
		set := findCookie(setCookies, name)
		clear := findCookie(clearCookies, name)
		if set == nil || clear == nil {
			t.Fatalf("cookie %s missing from set or clear response", name)
		}

		if clear.MaxAge != -1 {
			t.Errorf("cookie %s: expected MaxAge -1, got %d", name, clear.MaxAge)
		}
		if clear.Value != "" {
			t.Errorf("cookie %s: expected empty value on clear", name)
		}
		// Attribute parity: a mismatched clear leaves the cookie alive.
		if clear.Path != set.Path || clear.Secure != set.Secure ||
			clear.HttpOnly != set.HttpOnly || clear.SameSite != set.SameSite {
			t.Errorf("cookie %s: clear attributes differ from set", name)
		}
	}
}

func TestMe(t *testing.T) {
	t.Parallel()

	h := newAuthHandler(t, newFakeUserStore(), config.AuthModeCookie)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	identity := &auth.Identity{UserID: "u1", Email: "alice@example.com", Role: model.RoleUser}
	req = req.WithContext(auth.ContextWithIdentity(req.Context(), identity))
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["id"] != "u1" || body["email"] != "alice@example.com" || body["role"] != model.RoleUser {
		t.Errorf("unexpected projection: %v", body)
	}
}

func TestMe_NoIdentity(t *testing.T) {
	t.Parallel()

	h := newAuthHandler(t, newFakeUserStore(), config.AuthModeCookie)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestUsers_NeverLeaksPasswordHashes(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	store.addUser(t, "alice@example.com", "correct-horse", model.RoleUser)
	store.addUser(t, "admin@example.com", "correct-horse", model.RoleAdmin)
	h := newAuthHandler(t, store, config.AuthModeCookie)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/users", nil)
	rec := httptest.NewRecorder()
	h.Users(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	raw := rec.Body.String()
	if strings.Contains(raw, "argon2id") || strings.Contains(raw, "password") {
		t.Errorf("user listing leaks password material: %s", raw)
	}

	var body struct {
		Users []model.PublicUser `json:"users"`
	}
	if err := json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Users) != 2 {
		t.Errorf("expected 2 users, got %d", len(body.Users))
	}
}

func TestUsers_StoreError(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	store.err = errors.New("connection refused")
	h := newAuthHandler(t, store, config.AuthModeCookie)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/users", nil)
	rec := httptest.NewRecorder()
	h.Users(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	// Non-development env must not echo the underlying error.
	if body := decodeBody(t, rec); body["error"] != "internal server error" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestCSRFToken(t *testing.T) {
	t.Parallel()

	h := newAuthHandler(t, newFakeUserStore(), config.AuthModeCookie)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/csrf-token", nil)
	rec := httptest.NewRecorder()
	h.CSRFToken(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["csrfToken"] == "" {
		t.Fatal("expected csrfToken in body")
	}

	cookie := findCookie(rec.Result().Cookies(), "csrf_token")
	if cookie == nil {
		t.Fatal("expected csrf cookie to be set")
	}
	if cookie.Value != body["csrfToken"] {
		t.Error("cookie value and body token must match for the double-submit check")
	}
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}
