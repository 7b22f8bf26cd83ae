// Package model defines the data structures used throughout the application.
package model

import "time"

// Role is the access level assigned to a user account.
//
// There are exactly two levels: regular users own their messages and nothing
// else; admins can additionally list every user and every message. The role is
// stored as TEXT in the database, so the type is a string rather than an int —
// the stored value stays readable and adding a role never renumbers old rows.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents a registered account.
//
// The ID is a UUID string generated at registration and never changes for the
// lifetime of the account. Email and Username are each unique across all users.
//
// WHY json:"-" ON PasswordHash?
// The hash must never leave the server, not even accidentally. Tagging it "-"
// means encoding/json skips the field entirely, so a handler that serializes a
// *model.User directly can't leak it. API responses use UserOut anyway, but the
// tag makes the safe behaviour the default.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastLogin    time.Time `json:"last_login"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserOut is the public view of a User returned by the API.
// It carries everything a client needs and nothing sensitive.
type UserOut struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Out converts a User to its public representation.
func (u *User) Out() UserOut {
	return UserOut{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
