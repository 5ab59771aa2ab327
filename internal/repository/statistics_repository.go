package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/models"
)

// StatisticsRepository exposes read-optimised aggregate queries over the
// publications table.
type StatisticsRepository struct {
	db *sqlx.DB
}

// NewStatisticsRepository instantiates the repository.
func NewStatisticsRepository(db *sqlx.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

type publicationSummary struct {
	Total     int     `db:"total"`
	AvgImpact float64 `db:"avg_impact"`
}

// Summary returns the publication count and mean journal impact factor for
// one department, or globally when departmentID is empty.
func (r *StatisticsRepository) Summary(ctx context.Context, departmentID string) (total int, avgImpact float64, err error) {
	var builder strings.Builder
	builder.WriteString(`SELECT COUNT(*) AS total, COALESCE(AVG(j.impact_factor), 0) AS avg_impact
	FROM publications p
	JOIN journals j ON j.id = p.journal_id
	WHERE 1=1`)
	var args []interface{}
	if departmentID != "" {
		args = append(args, departmentID)
		builder.WriteString(fmt.Sprintf(" AND p.department_id = $%d", len(args)))
	}

	var summary publicationSummary
	if err := r.db.GetContext(ctx, &summary, builder.String(), args...); err != nil {
		return 0, 0, fmt.Errorf("query publication summary: %w", err)
	}
	return summary.Total, summary.AvgImpact, nil
}

type quartileCount struct {
	Quartile string `db:"quartile"`
	Count    int    `db:"count"`
}

// QuartileDistribution counts publications per journal quartile.
func (r *StatisticsRepository) QuartileDistribution(ctx context.Context, departmentID string) (map[string]int, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT j.quartile, COUNT(*) AS count
	FROM publications p
	JOIN journals j ON j.id = p.journal_id
	WHERE 1=1`)
	var args []interface{}
	if departmentID != "" {
		args = append(args, departmentID)
		builder.WriteString(fmt.Sprintf(" AND p.department_id = $%d", len(args)))
	}
	builder.WriteString(" GROUP BY j.quartile")

	var rows []quartileCount
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query quartile distribution: %w", err)
	}

	dist := map[string]int{
		string(models.QuartileQ1): 0,
		string(models.QuartileQ2): 0,
		string(models.QuartileQ3): 0,
		string(models.QuartileQ4): 0,
	}
	for _, row := range rows {
		dist[row.Quartile] = row.Count
	}
	return dist, nil
}

// YearlyTrend counts publications grouped by publish year, ascending. Only
// years with at least one publication appear; gap filling is left to callers.
func (r *StatisticsRepository) YearlyTrend(ctx context.Context, departmentID string) ([]models.YearCount, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT p.publish_year, COUNT(*) AS count
	FROM publications p
	WHERE 1=1`)
	var args []interface{}
	if departmentID != "" {
		args = append(args, departmentID)
		builder.WriteString(fmt.Sprintf(" AND p.department_id = $%d", len(args)))
	}
	builder.WriteString(" GROUP BY p.publish_year ORDER BY p.publish_year ASC")

	var trend []models.YearCount
	if err := r.db.SelectContext(ctx, &trend, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query yearly trend: %w", err)
	}
	return trend, nil
}

// TopDepartments ranks departments by publication count descending with a
// stable name tie-break.
func (r *StatisticsRepository) TopDepartments(ctx context.Context, limit int) ([]models.DepartmentRank, error) {
	if limit <= 0 {
		limit = 5
	}
	const query = `SELECT p.department_id, d.name, COUNT(*) AS publications
	FROM publications p
	JOIN departments d ON d.id = p.department_id
	GROUP BY p.department_id, d.name
	ORDER BY publications DESC, d.name ASC
	LIMIT $1`

	var ranks []models.DepartmentRank
	if err := r.db.SelectContext(ctx, &ranks, query, limit); err != nil {
		return nil, fmt.Errorf("query top departments: %w", err)
	}
	return ranks, nil
}

// CountDepartments returns the total number of departments.
func (r *StatisticsRepository) CountDepartments(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM departments`
	var total int
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("count departments: %w", err)
	}
	return total, nil
}
