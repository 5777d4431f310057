// Package token issues and verifies signed session tokens.
//
// The server keeps no session table: the token itself is the only
// session record, so revocation before expiry is not possible without
// an external denylist (deliberately absent here).
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken covers any verification failure: bad signature,
	// expiry, issuer or audience mismatch. Callers must not leak which.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the session token payload. Subject carries the user ID.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Manager signs and verifies HS256 session tokens.
//
// Two verification policies exist: Verify (strict: signature, expiry,
// issuer, audience, clock tolerance) and VerifyLoose (signature and
// expiry only). Which one runs is explicit wiring, never a default.
type Manager struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	leeway   time.Duration
}

// NewManager creates a token Manager.
func NewManager(secret []byte, issuer, audience string, ttl, leeway time.Duration) (*Manager, error) {
	if len(secret) == 0 {
		return nil, errors.New("signing secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("token TTL must be positive")
	}
	if leeway < 0 {
		return nil, errors.New("clock tolerance must not be negative")
	}
	return &Manager{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		leeway:   leeway,
	}, nil
}

// Issue signs a session token for the given user.
func (m *Manager) Issue(userID, role string) (string, error) {
	now := time.Now()

	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{m.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify validates a token under the strict policy: signature, expiry,
// issuer, audience, and clock tolerance.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
	}
	if m.leeway > 0 {
		options = append(options, jwt.WithLeeway(m.leeway))
	}
	return m.parse(tokenString, options)
}

// VerifyLoose validates a token checking signature and expiry only.
// No issuer or audience binding, so bearer deployments accept tokens
// minted for any audience that shares the secret.
func (m *Manager) VerifyLoose(tokenString string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	return m.parse(tokenString, options)
}

func (m *Manager) parse(tokenString string, options []jwt.ParserOption) (*Claims, error) {
	parser := jwt.NewParser(options...)

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// TTL returns the configured token lifetime. Used to align the session
// cookie Max-Age with token expiry.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}
