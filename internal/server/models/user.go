// Package models defines server-side data models persisted in the database.
package models

import "time"

// Role is the access level of a user.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleStaff  Role = "STAFF"
	RoleCommon Role = "COMMON"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleCommon:
		return true
	}
	return false
}

// User is a credential store record.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	ProfileName  string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	// DeletedAt is set when the user was soft-deleted.
	DeletedAt *time.Time
}

// Deleted reports whether the user was soft-deleted.
func (u *User) Deleted() bool {
	return u.DeletedAt != nil
}

// UserView is the public projection of a User; it never carries the
// password hash.
type UserView struct {
	ID          int64
	Email       string
	ProfileName string
	Role        Role
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (u *User) View() UserView {
	return UserView{
		ID:          u.ID,
		Email:       u.Email,
		ProfileName: u.ProfileName,
		Role:        u.Role,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
