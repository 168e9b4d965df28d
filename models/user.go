package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/upb/permguard/rbac"
	"github.com/upb/permguard/session"
)

// UserStatus is the account state checked by the active-status rule
type UserStatus string

const (
	StatusActive    UserStatus = "ACTIVE"
	StatusBanned    UserStatus = "BANNED"
	StatusSuspended UserStatus = "SUSPENDED"
)

// Valid reports whether s is a known status
func (s UserStatus) Valid() bool {
	switch s {
	case StatusActive, StatusBanned, StatusSuspended:
		return true
	}
	return false
}

// Built-in roles of the reference server
const (
	RoleAdmin     rbac.Role = "ADMIN"
	RoleModerator rbac.Role = "MODERATOR"
	RoleUser      rbac.Role = "USER"
)

// User represents an account whose role and status back session checks
type User struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Email     string     `json:"email" db:"email"`
	Name      string     `json:"name" db:"name"`
	Role      rbac.Role  `json:"role" db:"role"`
	Status    UserStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates an active User
func NewUser(email, name string, role rbac.Role) *User {
	now := time.Now()
	return &User{
		ID:        uuid.New(),
		Email:     email,
		Name:      name,
		Role:      role,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsActive returns true if the account may use the API
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// SessionUser converts the record into the identity carried by a session
func (u *User) SessionUser() *session.User {
	return &session.User{
		ID:     u.ID.String(),
		Role:   u.Role,
		Status: string(u.Status),
		Email:  u.Email,
		Name:   u.Name,
	}
}
