package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

const testCSRFCookie = "csrf_token"

func TestCSRF(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		cookie     string
		header     string
		wantStatus int
	}{
		{"GET passes without token", http.MethodGet, "", "", http.StatusOK},
		{"HEAD passes without token", http.MethodHead, "", "", http.StatusOK},
		{"OPTIONS passes without token", http.MethodOptions, "", "", http.StatusOK},
		{"POST with matching tokens", http.MethodPost, "tok123", "tok123", http.StatusOK},
		{"POST with mismatched tokens", http.MethodPost, "tok123", "tok456", http.StatusForbidden},
		{"POST missing header", http.MethodPost, "tok123", "", http.StatusForbidden},
		{"POST missing cookie", http.MethodPost, "", "tok123", http.StatusForbidden},
		{"DELETE missing both", http.MethodDelete, "", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := CSRF(testCSRFCookie)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tt.method, "/api/products", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: testCSRFCookie, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set(CSRFHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}
