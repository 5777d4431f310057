// Package model defines domain entities for the application.
package model

import "time"

// User roles. Role defaults to RoleUser at registration time.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidRoles lists the roles accepted at registration.
var ValidRoles = []string{RoleUser, RoleAdmin}

// User represents a registered account.
// PasswordHash is never serialized; all outbound representations go
// through Public().
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// PublicUser is the projection of a User safe to return to clients.
type PublicUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Public returns the client-safe projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
