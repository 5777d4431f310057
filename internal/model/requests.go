package model

import (
	"errors"
	"net/mail"
	"slices"
	"strings"
)

// Validation limits for registration input.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 512
	MaxEmailLength    = 254
)

// Validation errors for auth and catalog input.
var (
	ErrEmailRequired    = errors.New("email is required")
	ErrEmailInvalid     = errors.New("email is invalid")
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooShort = errors.New("password is too short")
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrRoleInvalid      = errors.New("role is invalid")
	ErrCredsRequired    = errors.New("email and password are required")
	ErrNameRequired     = errors.New("name is required")
	ErrPriceNegative    = errors.New("price must not be negative")
)

// RegisterRequest is the request body for POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// Validate checks registration input and normalizes the email and
// role. An empty role defaults to RoleUser.
func (r *RegisterRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Email == "" {
		return ErrEmailRequired
	}
	if len(r.Email) > MaxEmailLength {
		return ErrEmailInvalid
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return ErrEmailInvalid
	}

	if r.Password == "" {
		return ErrPasswordRequired
	}
	if len(r.Password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(r.Password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}

	if r.Role == "" {
		r.Role = RoleUser
	}
	if !slices.Contains(ValidRoles, r.Role) {
		return ErrRoleInvalid
	}

	return nil
}

// LoginRequest is the request body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate normalizes the email. It deliberately does not enforce the
// registration password rules: any malformed credential must fail the
// same way as a wrong one.
func (r *LoginRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Email == "" || r.Password == "" {
		return ErrCredsRequired
	}
	return nil
}

// Validate checks catalog input, mirroring only what the store itself
// would enforce.
func (r *ProductCreateRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return ErrNameRequired
	}
	if r.PriceCents < 0 {
		return ErrPriceNegative
	}
	return nil
}
