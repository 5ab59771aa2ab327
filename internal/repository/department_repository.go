package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/models"
)

// DepartmentRepository provides database access for departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository creates a new instance of DepartmentRepository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// FindByID returns a department by identifier.
func (r *DepartmentRepository) FindByID(ctx context.Context, id string) (*models.Department, error) {
	const query = `SELECT id, code, name, created_at, updated_at FROM departments WHERE id = $1 LIMIT 1`
	var dept models.Department
	if err := r.db.GetContext(ctx, &dept, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find department by id: %w", err)
	}
	return &dept, nil
}

// FindByCode returns a department by its unique code.
func (r *DepartmentRepository) FindByCode(ctx context.Context, code string) (*models.Department, error) {
	const query = `SELECT id, code, name, created_at, updated_at FROM departments WHERE code = $1 LIMIT 1`
	var dept models.Department
	if err := r.db.GetContext(ctx, &dept, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find department by code: %w", err)
	}
	return &dept, nil
}

// FindByName returns a department matching the name case-insensitively.
// Used by the import pipeline to resolve department columns.
func (r *DepartmentRepository) FindByName(ctx context.Context, name string) (*models.Department, error) {
	const query = `SELECT id, code, name, created_at, updated_at FROM departments WHERE LOWER(name) = LOWER($1) OR code = $1 LIMIT 1`
	var dept models.Department
	if err := r.db.GetContext(ctx, &dept, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find department by name: %w", err)
	}
	return &dept, nil
}

// List returns departments based on filters with total count.
func (r *DepartmentRepository) List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, int, error) {
	baseQuery := `FROM departments WHERE 1=1`
	var args []interface{}

	if filter.Search != "" {
		baseQuery += fmt.Sprintf(" AND (LOWER(name) LIKE $%d OR LOWER(code) LIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT id, code, name, created_at, updated_at %s ORDER BY name ASC LIMIT %d OFFSET %d", baseQuery, pageSize, offset)

	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list departments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count departments: %w", err)
	}

	return departments, total, nil
}

// Create inserts a new department.
func (r *DepartmentRepository) Create(ctx context.Context, dept *models.Department) error {
	if dept.ID == "" {
		dept.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if dept.CreatedAt.IsZero() {
		dept.CreatedAt = now
	}
	dept.UpdatedAt = now

	const query = `INSERT INTO departments (id, code, name, created_at, updated_at) VALUES (:id, :code, :name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, dept); err != nil {
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

// Update updates mutable fields of a department.
func (r *DepartmentRepository) Update(ctx context.Context, dept *models.Department) error {
	dept.UpdatedAt = time.Now().UTC()
	const query = `UPDATE departments SET code = :code, name = :name, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, dept); err != nil {
		return fmt.Errorf("update department: %w", err)
	}
	return nil
}

// Delete removes a department. The schema restricts deletion while users or
// publications still reference it; callers translate the FK violation.
func (r *DepartmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM departments WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete department: %w", err)
	}
	return nil
}
