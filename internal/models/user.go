package models

import "time"

// UserRole represents the available roles for the access-control matrix.
type UserRole string

const (
	RoleAdmin           UserRole = "ADMIN"
	RoleDepartmentAdmin UserRole = "DEPARTMENT_ADMIN"
	RoleUser            UserRole = "USER"
)

// Roles lists every defined role; the authorization matrix must cover all of
// them exhaustively.
var Roles = []UserRole{RoleAdmin, RoleDepartmentAdmin, RoleUser}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	DepartmentID *string    `db:"department_id" json:"department_id,omitempty"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role         *UserRole
	DepartmentID string
	Active       *bool
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
