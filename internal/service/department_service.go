package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/dto"
	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/models"
	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/repository"
	appErrors "github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/pkg/errors"
)

type departmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
	List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, int, error)
	Create(ctx context.Context, dept *models.Department) error
	Update(ctx context.Context, dept *models.Department) error
	Delete(ctx context.Context, id string) error
}

// DepartmentService manages departments.
type DepartmentService struct {
	repo      departmentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDepartmentService constructs a DepartmentService instance.
func NewDepartmentService(repo departmentRepository, validate *validator.Validate, logger *zap.Logger) *DepartmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &DepartmentService{repo: repo, validator: validate, logger: logger}
}

// List returns departments matching the filter.
func (s *DepartmentService) List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, models.Pagination, error) {
	departments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to list departments")
	}
	return departments, models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a single department by ID.
func (s *DepartmentService) Get(ctx context.Context, id string) (*models.Department, error) {
	dept, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to fetch department")
	}
	return dept, nil
}

// Create adds a department. Code and name are unique.
func (s *DepartmentService) Create(ctx context.Context, req dto.CreateDepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid department payload")
	}

	dept := &models.Department{Code: req.Code, Name: req.Name}
	if err := s.repo.Create(ctx, dept); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "department code or name already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to create department")
	}
	return dept, nil
}

// Update modifies a department.
func (s *DepartmentService) Update(ctx context.Context, id string, req dto.UpdateDepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid department payload")
	}

	dept, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Code != nil {
		dept.Code = *req.Code
	}
	if req.Name != nil {
		dept.Name = *req.Name
	}

	if err := s.repo.Update(ctx, dept); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "department code or name already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to update department")
	}
	return dept, nil
}

// Delete removes a department. Fails while users or publications still
// reference it.
func (s *DepartmentService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if repository.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrValidation, "department is still referenced by users or publications")
		}
		return appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to delete department")
	}
	return nil
}
