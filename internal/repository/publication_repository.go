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

const publicationColumns = "p.id, p.title, p.authors, p.journal_id, p.department_id, p.user_id, p.publish_year, p.volume, p.issue, p.pages, p.doi, p.created_at, p.updated_at"

// PublicationRepository provides database access for publications.
type PublicationRepository struct {
	db *sqlx.DB
}

// NewPublicationRepository creates a new instance of PublicationRepository.
func NewPublicationRepository(db *sqlx.DB) *PublicationRepository {
	return &PublicationRepository{db: db}
}

// FindByID returns a publication by identifier.
func (r *PublicationRepository) FindByID(ctx context.Context, id string) (*models.Publication, error) {
	query := fmt.Sprintf("SELECT %s FROM publications p WHERE p.id = $1 LIMIT 1", publicationColumns)
	var pub models.Publication
	if err := r.db.GetContext(ctx, &pub, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find publication by id: %w", err)
	}
	return &pub, nil
}

// Exists reports whether a publication with the same title, journal and
// publish year is already stored. Best-effort duplicate detection; there is
// no unique constraint backing it.
func (r *PublicationRepository) Exists(ctx context.Context, title, journalID string, publishYear int) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM publications WHERE title = $1 AND journal_id = $2 AND publish_year = $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, title, journalID, publishYear); err != nil {
		return false, fmt.Errorf("check publication exists: %w", err)
	}
	return exists, nil
}

// List returns publication detail rows based on filters with total count.
func (r *PublicationRepository) List(ctx context.Context, filter models.PublicationFilter) ([]models.PublicationDetail, int, error) {
	baseQuery := `FROM publications p
	JOIN journals j ON j.id = p.journal_id
	JOIN departments d ON d.id = p.department_id
	WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("p.department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.JournalID != "" {
		conditions = append(conditions, fmt.Sprintf("p.journal_id = $%d", len(args)+1))
		args = append(args, filter.JournalID)
	}
	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("p.user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.YearFrom != nil {
		conditions = append(conditions, fmt.Sprintf("p.publish_year >= $%d", len(args)+1))
		args = append(args, *filter.YearFrom)
	}
	if filter.YearTo != nil {
		conditions = append(conditions, fmt.Sprintf("p.publish_year <= $%d", len(args)+1))
		args = append(args, *filter.YearTo)
	}
	if filter.Quartile != nil {
		conditions = append(conditions, fmt.Sprintf("j.quartile = $%d", len(args)+1))
		args = append(args, *filter.Quartile)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(p.title) LIKE $%d OR LOWER(p.authors) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"title":         "p.title",
		"publish_year":  "p.publish_year",
		"created_at":    "p.created_at",
		"impact_factor": "j.impact_factor",
	}
	sortColumn, ok := allowedSorts[sortBy]
	if !ok {
		sortColumn = "p.created_at"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
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

	listQuery := fmt.Sprintf("SELECT %s, j.name AS journal_name, j.impact_factor, j.quartile, d.name AS department_name %s ORDER BY %s %s LIMIT %d OFFSET %d",
		publicationColumns, baseQuery, sortColumn, sortOrder, pageSize, offset)

	var publications []models.PublicationDetail
	if err := r.db.SelectContext(ctx, &publications, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list publications: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count publications: %w", err)
	}

	return publications, total, nil
}

// ListByDepartment returns every publication detail row for one department,
// ordered for export.
func (r *PublicationRepository) ListByDepartment(ctx context.Context, departmentID string) ([]models.PublicationDetail, error) {
	query := fmt.Sprintf(`SELECT %s, j.name AS journal_name, j.impact_factor, j.quartile, d.name AS department_name
	FROM publications p
	JOIN journals j ON j.id = p.journal_id
	JOIN departments d ON d.id = p.department_id
	WHERE p.department_id = $1
	ORDER BY p.publish_year DESC, p.title ASC`, publicationColumns)

	var publications []models.PublicationDetail
	if err := r.db.SelectContext(ctx, &publications, query, departmentID); err != nil {
		return nil, fmt.Errorf("list publications by department: %w", err)
	}
	return publications, nil
}

// Create inserts a new publication.
func (r *PublicationRepository) Create(ctx context.Context, pub *models.Publication) error {
	if pub.ID == "" {
		pub.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if pub.CreatedAt.IsZero() {
		pub.CreatedAt = now
	}
	pub.UpdatedAt = now

	const query = `INSERT INTO publications (id, title, authors, journal_id, department_id, user_id, publish_year, volume, issue, pages, doi, created_at, updated_at)
	VALUES (:id, :title, :authors, :journal_id, :department_id, :user_id, :publish_year, :volume, :issue, :pages, :doi, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, pub); err != nil {
		return fmt.Errorf("create publication: %w", err)
	}
	return nil
}

// Update updates mutable fields of a publication.
func (r *PublicationRepository) Update(ctx context.Context, pub *models.Publication) error {
	pub.UpdatedAt = time.Now().UTC()
	const query = `UPDATE publications SET title = :title, authors = :authors, journal_id = :journal_id, department_id = :department_id, publish_year = :publish_year, volume = :volume, issue = :issue, pages = :pages, doi = :doi, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, pub); err != nil {
		return fmt.Errorf("update publication: %w", err)
	}
	return nil
}

// Delete removes a publication.
func (r *PublicationRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM publications WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete publication: %w", err)
	}
	return nil
}
