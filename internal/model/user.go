package model

import "time"

// Role enumerates account roles.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// User represents an account of any role.
type User struct {
	ID           int       `json:"id"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	ProfilePic   *string   `json:"profilePic"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RegisterRequest is the payload for self-registration.
// Admin accounts are only created from the command line.
type RegisterRequest struct {
	FullName string `json:"fullName" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Role     Role   `json:"role" binding:"omitempty,oneof=student teacher"`
}

// LoginRequest is the payload for email/password login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest is the payload for editing one's own profile.
type UpdateProfileRequest struct {
	FullName string `json:"fullName" binding:"omitempty,min=2,max=100"`
	Email    string `json:"email" binding:"omitempty,email,max=255"`
}

// UserFilter narrows admin user listings.
type UserFilter struct {
	Role    Role   `form:"role" binding:"omitempty,oneof=admin teacher student"`
	Search  string `form:"search" binding:"omitempty,max=100"`
	Page    int    `form:"page" binding:"omitempty,min=1"`
	PerPage int    `form:"perPage" binding:"omitempty,min=1,max=100"`
}
