package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/dto"
	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/models"
	appErrors "github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/pkg/errors"
)

type publicationRepository interface {
	FindByID(ctx context.Context, id string) (*models.Publication, error)
	Exists(ctx context.Context, title, journalID string, publishYear int) (bool, error)
	List(ctx context.Context, filter models.PublicationFilter) ([]models.PublicationDetail, int, error)
	Create(ctx context.Context, pub *models.Publication) error
	Update(ctx context.Context, pub *models.Publication) error
	Delete(ctx context.Context, id string) error
}

type journalLookup interface {
	FindByID(ctx context.Context, id string) (*models.Journal, error)
}

type statsInvalidator interface {
	Invalidate(ctx context.Context, departmentID string)
}

// PublicationService manages publication records. Department admins operate
// only within their own department; write operations invalidate cached
// statistics for the affected department.
type PublicationService struct {
	repo        publicationRepository
	journals    journalLookup
	departments departmentLookup
	stats       statsInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewPublicationService constructs a PublicationService instance. stats may
// be nil when statistics caching is disabled.
func NewPublicationService(repo publicationRepository, journals journalLookup, departments departmentLookup, stats statsInvalidator, validate *validator.Validate, logger *zap.Logger) *PublicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &PublicationService{repo: repo, journals: journals, departments: departments, stats: stats, validator: validate, logger: logger}
}

// List returns publication detail rows matching the filter. Department
// admins are constrained to their own department regardless of the filter.
func (s *PublicationService) List(ctx context.Context, actor *models.JWTClaims, filter models.PublicationFilter) ([]models.PublicationDetail, models.Pagination, error) {
	if actor.Role == models.RoleDepartmentAdmin && actor.DepartmentID != nil {
		filter.DepartmentID = *actor.DepartmentID
	}
	publications, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to list publications")
	}
	return publications, models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a single publication by ID.
func (s *PublicationService) Get(ctx context.Context, id string) (*models.Publication, error) {
	pub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "publication not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to fetch publication")
	}
	return pub, nil
}

// Create records a publication. A record with the same title, journal and
// publish year is rejected as a duplicate.
func (s *PublicationService) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreatePublicationRequest) (*models.Publication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid publication payload")
	}
	if err := s.checkScope(actor, req.DepartmentID); err != nil {
		return nil, err
	}
	if err := validatePublishYear(req.PublishYear); err != nil {
		return nil, err
	}

	if _, err := s.journals.FindByID(ctx, req.JournalID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "journal does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to resolve journal")
	}
	if _, err := s.departments.FindByID(ctx, req.DepartmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "department does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to resolve department")
	}

	title := strings.TrimSpace(req.Title)
	exists, err := s.repo.Exists(ctx, title, req.JournalID, req.PublishYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to check for duplicate publication")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "publication already recorded for that journal and year")
	}

	pub := &models.Publication{
		Title:        title,
		Authors:      strings.TrimSpace(req.Authors),
		JournalID:    req.JournalID,
		DepartmentID: req.DepartmentID,
		UserID:       actor.UserID,
		PublishYear:  req.PublishYear,
		Volume:       req.Volume,
		Issue:        req.Issue,
		Pages:        req.Pages,
		DOI:          req.DOI,
	}
	if err := s.repo.Create(ctx, pub); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to create publication")
	}

	s.invalidate(ctx, pub.DepartmentID)
	return pub, nil
}

// Update modifies a publication. Department admins may only touch records in
// their own department.
func (s *PublicationService) Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdatePublicationRequest) (*models.Publication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid publication payload")
	}

	pub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkScope(actor, pub.DepartmentID); err != nil {
		return nil, err
	}

	if req.Title != nil {
		pub.Title = strings.TrimSpace(*req.Title)
	}
	if req.Authors != nil {
		pub.Authors = strings.TrimSpace(*req.Authors)
	}
	if req.JournalID != nil {
		if _, err := s.journals.FindByID(ctx, *req.JournalID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "journal does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to resolve journal")
		}
		pub.JournalID = *req.JournalID
	}
	if req.PublishYear != nil {
		pub.PublishYear = *req.PublishYear
	}
	if req.Volume != nil {
		pub.Volume = req.Volume
	}
	if req.Issue != nil {
		pub.Issue = req.Issue
	}
	if req.Pages != nil {
		pub.Pages = req.Pages
	}
	if req.DOI != nil {
		pub.DOI = req.DOI
	}
	if err := validatePublishYear(pub.PublishYear); err != nil {
		return nil, err
	}
	if pub.Title == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title must not be empty")
	}

	if err := s.repo.Update(ctx, pub); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to update publication")
	}

	s.invalidate(ctx, pub.DepartmentID)
	return pub, nil
}

// Delete removes a publication, subject to department scoping.
func (s *PublicationService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	pub, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkScope(actor, pub.DepartmentID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to delete publication")
	}
	s.invalidate(ctx, pub.DepartmentID)
	return nil
}

func (s *PublicationService) checkScope(actor *models.JWTClaims, departmentID string) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleDepartmentAdmin, models.RoleUser:
		if actor.DepartmentID == nil || *actor.DepartmentID != departmentID {
			return appErrors.Clone(appErrors.ErrForbidden, "operation is limited to your own department")
		}
		return nil
	default:
		return appErrors.Clone(appErrors.ErrForbidden, "unknown role")
	}
}

func (s *PublicationService) invalidate(ctx context.Context, departmentID string) {
	if s.stats == nil {
		return
	}
	s.stats.Invalidate(ctx, departmentID)
}

func validatePublishYear(year int) error {
	currentYear := time.Now().Year()
	if year < models.MinPublishYear || year > currentYear {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("publish year must be between %d and %d", models.MinPublishYear, currentYear))
	}
	return nil
}
