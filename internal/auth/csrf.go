package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// csrfTokenLen is the number of random bytes in a CSRF token
// (hex encoded to twice this length).
const csrfTokenLen = 16

// NewCSRFToken generates a random CSRF token. The token is delivered
// in a script-readable cookie and must be echoed back in the
// X-CSRF-Token header on state-changing requests (double submit).
func NewCSRFToken() (string, error) {
	b := make([]byte, csrfTokenLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate csrf token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// CSRFTokensMatch compares a cookie token and a header token in
// constant time.
func CSRFTokensMatch(cookieToken, headerToken string) bool {
	if cookieToken == "" || headerToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieToken), []byte(headerToken)) == 1
}
