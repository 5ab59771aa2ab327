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

const journalColumns = "id, name, year, impact_factor, quartile, created_at, updated_at"

// JournalRepository provides database access for journal reference data.
type JournalRepository struct {
	db *sqlx.DB
}

// NewJournalRepository creates a new instance of JournalRepository.
func NewJournalRepository(db *sqlx.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

// FindByID returns a journal by identifier.
func (r *JournalRepository) FindByID(ctx context.Context, id string) (*models.Journal, error) {
	query := fmt.Sprintf("SELECT %s FROM journals WHERE id = $1 LIMIT 1", journalColumns)
	var journal models.Journal
	if err := r.db.GetContext(ctx, &journal, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find journal by id: %w", err)
	}
	return &journal, nil
}

// FindByName resolves a journal name case-insensitively. When several years
// of the same journal exist the most recent one wins.
func (r *JournalRepository) FindByName(ctx context.Context, name string) (*models.Journal, error) {
	query := fmt.Sprintf("SELECT %s FROM journals WHERE LOWER(name) = LOWER($1) ORDER BY year DESC LIMIT 1", journalColumns)
	var journal models.Journal
	if err := r.db.GetContext(ctx, &journal, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find journal by name: %w", err)
	}
	return &journal, nil
}

// FindByNameYear resolves the (name, year) identity used for duplicate
// detection during journal import.
func (r *JournalRepository) FindByNameYear(ctx context.Context, name string, year int) (*models.Journal, error) {
	query := fmt.Sprintf("SELECT %s FROM journals WHERE LOWER(name) = LOWER($1) AND year = $2 LIMIT 1", journalColumns)
	var journal models.Journal
	if err := r.db.GetContext(ctx, &journal, query, name, year); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find journal by name and year: %w", err)
	}
	return &journal, nil
}

// List returns journals based on filters with total count.
func (r *JournalRepository) List(ctx context.Context, filter models.JournalFilter) ([]models.Journal, int, error) {
	baseQuery := `FROM journals WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Quartile != nil {
		conditions = append(conditions, fmt.Sprintf("quartile = $%d", len(args)+1))
		args = append(args, *filter.Quartile)
	}
	if filter.Year != nil {
		conditions = append(conditions, fmt.Sprintf("year = $%d", len(args)+1))
		args = append(args, *filter.Year)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"name":          true,
		"year":          true,
		"impact_factor": true,
		"quartile":      true,
		"created_at":    true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "name"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", journalColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var journals []models.Journal
	if err := r.db.SelectContext(ctx, &journals, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list journals: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count journals: %w", err)
	}

	return journals, total, nil
}

// Create inserts a new journal.
func (r *JournalRepository) Create(ctx context.Context, journal *models.Journal) error {
	if journal.ID == "" {
		journal.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if journal.CreatedAt.IsZero() {
		journal.CreatedAt = now
	}
	journal.UpdatedAt = now

	const query = `INSERT INTO journals (id, name, year, impact_factor, quartile, created_at, updated_at) VALUES (:id, :name, :year, :impact_factor, :quartile, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, journal); err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	return nil
}

// Update updates mutable fields of a journal.
func (r *JournalRepository) Update(ctx context.Context, journal *models.Journal) error {
	journal.UpdatedAt = time.Now().UTC()
	const query = `UPDATE journals SET name = :name, year = :year, impact_factor = :impact_factor, quartile = :quartile, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, journal); err != nil {
		return fmt.Errorf("update journal: %w", err)
	}
	return nil
}

// Delete removes a journal. Restricted while publications reference it.
func (r *JournalRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM journals WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete journal: %w", err)
	}
	return nil
}
