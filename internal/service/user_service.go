package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/dto"
	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/models"
	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/repository"
	appErrors "github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type departmentLookup interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

// UserService implements user account management.
type UserService struct {
	repo        userRepository
	departments departmentLookup
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewUserService constructs a UserService instance.
func NewUserService(repo userRepository, departments departmentLookup, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, departments: departments, validator: validate, logger: logger}
}

// List returns users matching the filter with pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to list users")
	}
	return users, models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a single user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to fetch user")
	}
	return user, nil
}

// Create registers a new user. Department admins and plain users must carry
// a department; the role value must be one of the defined roles.
func (s *UserService) Create(ctx context.Context, actorID string, req dto.CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	if !validRole(req.Role) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}
	if req.Role != models.RoleAdmin && req.DepartmentID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department_id is required for non-admin roles")
	}
	if req.DepartmentID != nil {
		if _, err := s.departments.FindByID(ctx, *req.DepartmentID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "department does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to resolve department")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to hash password")
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         req.Role,
		DepartmentID: req.DepartmentID,
		Active:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "username or email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to create user")
	}

	s.audit(ctx, actorID, models.AuditActionUserCreate, user.ID)
	return user, nil
}

// Update modifies a user. Only non-nil request fields are applied.
func (s *UserService) Update(ctx context.Context, actorID, id string, req dto.UpdateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Role != nil {
		if !validRole(*req.Role) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
		}
		user.Role = *req.Role
	}
	if req.DepartmentID != nil {
		if _, err := s.departments.FindByID(ctx, *req.DepartmentID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "department does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to resolve department")
		}
		user.DepartmentID = req.DepartmentID
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	if user.Role != models.RoleAdmin && user.DepartmentID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department_id is required for non-admin roles")
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to update user")
	}

	s.audit(ctx, actorID, models.AuditActionUserUpdate, user.ID)
	return user, nil
}

// Delete deactivates a user. The record is kept so publications retain their
// recorder.
func (s *UserService) Delete(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return appErrors.Clone(appErrors.ErrValidation, "cannot delete own account")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to delete user")
	}
	s.audit(ctx, actorID, models.AuditActionUserDelete, id)
	return nil
}

func (s *UserService) audit(ctx context.Context, actorID, action, resourceID string) {
	log := &models.AuditLog{
		Action:     action,
		Resource:   "users",
		ResourceID: &resourceID,
		CreatedAt:  time.Now().UTC(),
	}
	if actorID != "" {
		log.UserID = &actorID
	}
	if err := s.repo.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record user audit log", zap.Error(err))
	}
}

func validRole(role models.UserRole) bool {
	for _, r := range models.Roles {
		if r == role {
			return true
		}
	}
	return false
}
