package models

import "time"

// Department is an organizational unit; the scoping key for statistics and
// for department-admin access.
type Department struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DepartmentFilter captures list criteria for departments.
type DepartmentFilter struct {
	Search   string
	Page     int
	PageSize int
}
