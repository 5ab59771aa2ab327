package dto

import "github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/models"

// CreateUserRequest is the payload for registering a new user.
type CreateUserRequest struct {
	Username     string          `json:"username" validate:"required,min=3,max=64"`
	Email        string          `json:"email" validate:"required,email"`
	Password     string          `json:"password" validate:"required,min=6"`
	FullName     string          `json:"full_name" validate:"required,max=128"`
	Role         models.UserRole `json:"role" validate:"required"`
	DepartmentID *string         `json:"department_id,omitempty"`
}

// UpdateUserRequest is the payload for updating a user. Nil fields are left
// unchanged.
type UpdateUserRequest struct {
	Email        *string          `json:"email,omitempty" validate:"omitempty,email"`
	FullName     *string          `json:"full_name,omitempty" validate:"omitempty,max=128"`
	Role         *models.UserRole `json:"role,omitempty"`
	DepartmentID *string          `json:"department_id,omitempty"`
	Active       *bool            `json:"active,omitempty"`
}
