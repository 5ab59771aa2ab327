package dto

// CreateDepartmentRequest is the payload for creating a department.
type CreateDepartmentRequest struct {
	Code string `json:"code" validate:"required,max=32"`
	Name string `json:"name" validate:"required,max=128"`
}

// UpdateDepartmentRequest is the payload for updating a department.
type UpdateDepartmentRequest struct {
	Code *string `json:"code,omitempty" validate:"omitempty,max=32"`
	Name *string `json:"name,omitempty" validate:"omitempty,max=128"`
}
