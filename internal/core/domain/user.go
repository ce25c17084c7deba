package domain

import (
	"slices"
	"time"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User models an authenticated actor in the system. The role set only grows
// (admin elevation); users are never deleted by business logic.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasRole reports whether the user carries the given role name.
func (u *User) HasRole(name string) bool {
	return slices.Contains(u.Roles, name)
}
