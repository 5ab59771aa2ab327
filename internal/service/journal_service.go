package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/dto"
	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/models"
	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/repository"
	appErrors "github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/pkg/errors"
)

type journalRepository interface {
	FindByID(ctx context.Context, id string) (*models.Journal, error)
	FindByNameYear(ctx context.Context, name string, year int) (*models.Journal, error)
	List(ctx context.Context, filter models.JournalFilter) ([]models.Journal, int, error)
	Create(ctx context.Context, journal *models.Journal) error
	Update(ctx context.Context, journal *models.Journal) error
	Delete(ctx context.Context, id string) error
}

// JournalService manages journal reference data.
type JournalService struct {
	repo      journalRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewJournalService constructs a JournalService instance.
func NewJournalService(repo journalRepository, validate *validator.Validate, logger *zap.Logger) *JournalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &JournalService{repo: repo, validator: validate, logger: logger}
}

// List returns journals matching the filter.
func (s *JournalService) List(ctx context.Context, filter models.JournalFilter) ([]models.Journal, models.Pagination, error) {
	journals, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to list journals")
	}
	return journals, models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a single journal by ID.
func (s *JournalService) Get(ctx context.Context, id string) (*models.Journal, error) {
	journal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "journal not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to fetch journal")
	}
	return journal, nil
}

// Create adds a journal after validating its metric fields. A journal with
// the same name and metric year counts as a duplicate.
func (s *JournalService) Create(ctx context.Context, req dto.CreateJournalRequest) (*models.Journal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid journal payload")
	}
	if err := validateJournalFields(req.Year, req.ImpactFactor, req.Quartile); err != nil {
		return nil, err
	}

	if existing, err := s.repo.FindByNameYear(ctx, req.Name, req.Year); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "journal already exists for that year")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to check for duplicate journal")
	}

	journal := &models.Journal{
		Name:         req.Name,
		Year:         req.Year,
		ImpactFactor: req.ImpactFactor,
		Quartile:     req.Quartile,
	}
	if err := s.repo.Create(ctx, journal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to create journal")
	}
	return journal, nil
}

// Update modifies a journal.
func (s *JournalService) Update(ctx context.Context, id string, req dto.UpdateJournalRequest) (*models.Journal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid journal payload")
	}

	journal, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// Validate the merged candidate before touching the fetched record so a
	// rejected update leaves it untouched.
	name, year, impactFactor, quartile := journal.Name, journal.Year, journal.ImpactFactor, journal.Quartile
	if req.Name != nil {
		name = *req.Name
	}
	if req.Year != nil {
		year = *req.Year
	}
	if req.ImpactFactor != nil {
		impactFactor = *req.ImpactFactor
	}
	if req.Quartile != nil {
		quartile = *req.Quartile
	}
	if err := validateJournalFields(year, impactFactor, quartile); err != nil {
		return nil, err
	}
	journal.Name = name
	journal.Year = year
	journal.ImpactFactor = impactFactor
	journal.Quartile = quartile

	if err := s.repo.Update(ctx, journal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to update journal")
	}
	return journal, nil
}

// Delete removes a journal. Fails while publications still reference it.
func (s *JournalService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if repository.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrValidation, "journal is still referenced by publications")
		}
		return appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to delete journal")
	}
	return nil
}

func validateJournalFields(year int, impactFactor float64, quartile models.Quartile) error {
	currentYear := time.Now().Year()
	if year < models.MinPublishYear || year > currentYear+1 {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("year must be between %d and %d", models.MinPublishYear, currentYear+1))
	}
	if impactFactor < models.MinImpactFactor || impactFactor > models.MaxImpactFactor {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("impact factor must be between %.1f and %.1f", models.MinImpactFactor, models.MaxImpactFactor))
	}
	if !quartile.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "quartile must be one of Q1, Q2, Q3, Q4")
	}
	return nil
}
