package auth

import "testing"

func TestNewCSRFToken(t *testing.T) {
	t.Parallel()

	t1, err := NewCSRFToken()
	if err != nil {
		t.Fatalf("NewCSRFToken failed: %v", err)
	}
	t2, err := NewCSRFToken()
	if err != nil {
		t.Fatalf("NewCSRFToken failed: %v", err)
	}

	if len(t1) != csrfTokenLen*2 {
		t.Errorf("expected %d hex chars, got %d", csrfTokenLen*2, len(t1))
	}
	if t1 == t2 {
		t.Error("tokens should be unique")
	}
}

func TestCSRFTokensMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cookie string
		header string
		want   bool
	}{
		{"matching tokens", "abc123", "abc123", true},
		{"mismatched tokens", "abc123", "abc124", false},
		{"empty cookie", "", "abc123", false},
		{"empty header", "abc123", "", false},
		{"both empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CSRFTokensMatch(tt.cookie, tt.header); got != tt.want {
				t.Errorf("CSRFTokensMatch(%q, %q) = %v, want %v", tt.cookie, tt.header, got, tt.want)
			}
		})
	}
}
