package models

import (
	"time"

	"github.com/google/uuid"
)

// Role values for newsroom staff.
const (
	RoleAdmin      = "admin"
	RoleEditor     = "editor"
	RoleJournalist = "journalist"
	RolePhotograph = "photographer"
)

// User represents a newsroom staff member.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
