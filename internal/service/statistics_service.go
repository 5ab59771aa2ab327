package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/models"
	appErrors "github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/pkg/errors"
	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/pkg/export"
)

type statisticsRepository interface {
	Summary(ctx context.Context, departmentID string) (int, float64, error)
	QuartileDistribution(ctx context.Context, departmentID string) (map[string]int, error)
	YearlyTrend(ctx context.Context, departmentID string) ([]models.YearCount, error)
	TopDepartments(ctx context.Context, limit int) ([]models.DepartmentRank, error)
	CountDepartments(ctx context.Context) (int, error)
}

type publicationExportRepository interface {
	ListByDepartment(ctx context.Context, departmentID string) ([]models.PublicationDetail, error)
}

// StatisticsService computes aggregate publication metrics. Results are
// cached in Redis keyed by scope; writes to publications invalidate the
// affected keys.
type StatisticsService struct {
	repo         statisticsRepository
	publications publicationExportRepository
	departments  departmentLookup
	cache        *CacheService
	cacheTTL     time.Duration
	csv          *export.CSVExporter
	pdf          *export.PDFExporter
	logger       *zap.Logger
	now          func() time.Time
}

// NewStatisticsService constructs a StatisticsService instance. cache may be
// nil when caching is disabled.
func NewStatisticsService(repo statisticsRepository, publications publicationExportRepository, departments departmentLookup, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *StatisticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &StatisticsService{
		repo:         repo,
		publications: publications,
		departments:  departments,
		cache:        cache,
		cacheTTL:     cacheTTL,
		csv:          export.NewCSVExporter(),
		pdf:          export.NewPDFExporter(),
		logger:       logger,
		now:          time.Now,
	}
}

// DepartmentStats aggregates metrics for one department. fillGaps inserts
// zero-count entries for years between the first and last publication.
func (s *StatisticsService) DepartmentStats(ctx context.Context, departmentID string, fillGaps bool) (*models.DepartmentStats, error) {
	if _, err := s.departments.FindByID(ctx, departmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to resolve department")
	}

	key := departmentStatsKey(departmentID, fillGaps)
	var cached models.DepartmentStats
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	total, avgImpact, err := s.repo.Summary(ctx, departmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to compute department summary")
	}
	quartiles, err := s.repo.QuartileDistribution(ctx, departmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to compute quartile distribution")
	}
	trend, err := s.repo.YearlyTrend(ctx, departmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to compute yearly trend")
	}
	if fillGaps {
		trend = fillTrendGaps(trend)
	}

	stats := &models.DepartmentStats{
		DepartmentID:        departmentID,
		TotalPublications:   total,
		AverageImpactFactor: round2(avgImpact),
		QuartileDist:        quartiles,
		YearlyTrend:         trend,
		GeneratedAt:         s.now().UTC(),
	}
	s.cacheSet(ctx, key, stats)
	return stats, nil
}

// Overview aggregates metrics across all departments.
func (s *StatisticsService) Overview(ctx context.Context, fillGaps bool) (*models.OverviewStats, error) {
	key := overviewStatsKey(fillGaps)
	var cached models.OverviewStats
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	total, avgImpact, err := s.repo.Summary(ctx, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to compute overview summary")
	}
	departments, err := s.repo.CountDepartments(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to count departments")
	}
	top, err := s.repo.TopDepartments(ctx, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to rank departments")
	}
	trend, err := s.repo.YearlyTrend(ctx, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to compute yearly trend")
	}
	if fillGaps {
		trend = fillTrendGaps(trend)
	}

	stats := &models.OverviewStats{
		TotalPublications:   total,
		TotalDepartments:    departments,
		AverageImpactFactor: round2(avgImpact),
		TopDepartments:      top,
		YearlyTrend:         trend,
		GeneratedAt:         s.now().UTC(),
	}
	s.cacheSet(ctx, key, stats)
	return stats, nil
}

// ExportDepartment renders the department's publication list in the given
// format. Supported formats are csv and pdf.
func (s *StatisticsService) ExportDepartment(ctx context.Context, actor *models.JWTClaims, departmentID, format string) ([]byte, string, error) {
	if actor.Role == models.RoleDepartmentAdmin {
		if actor.DepartmentID == nil || *actor.DepartmentID != departmentID {
			return nil, "", appErrors.Clone(appErrors.ErrForbidden, "export is limited to your own department")
		}
	}

	dept, err := s.departments.FindByID(ctx, departmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to resolve department")
	}

	publications, err := s.publications.ListByDepartment(ctx, departmentID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to list publications for export")
	}

	dataset := buildPublicationDataset(publications)
	switch strings.ToLower(format) {
	case "", "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to render csv export")
		}
		return payload, "text/csv", nil
	case "pdf":
		payload, err := s.pdf.Render(dataset, fmt.Sprintf("%s publications", dept.Name))
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to render pdf export")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// Invalidate drops cached statistics touched by a change in the given
// department. Overview keys always go since every department feeds them.
func (s *StatisticsService) Invalidate(ctx context.Context, departmentID string) {
	if s.cache == nil || !s.cache.Enabled() {
		return
	}
	if departmentID != "" {
		if err := s.cache.Invalidate(ctx, "stats:department:"+departmentID+":*"); err != nil {
			s.logger.Warn("failed to invalidate department statistics cache", zap.String("department_id", departmentID), zap.Error(err))
		}
	}
	if err := s.cache.Invalidate(ctx, "stats:overview:*"); err != nil {
		s.logger.Warn("failed to invalidate overview statistics cache", zap.Error(err))
	}
}

func (s *StatisticsService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		return false
	}
	return hit
}

func (s *StatisticsService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache statistics payload", zap.String("key", key), zap.Error(err))
	}
}

func departmentStatsKey(departmentID string, fillGaps bool) string {
	return "stats:department:" + departmentID + ":" + strconv.FormatBool(fillGaps)
}

func overviewStatsKey(fillGaps bool) string {
	return "stats:overview:" + strconv.FormatBool(fillGaps)
}

// fillTrendGaps inserts zero counts for years missing between the first and
// last observed year. The input is assumed sorted ascending.
func fillTrendGaps(trend []models.YearCount) []models.YearCount {
	if len(trend) < 2 {
		return trend
	}
	filled := make([]models.YearCount, 0, trend[len(trend)-1].Year-trend[0].Year+1)
	next := trend[0].Year
	for _, point := range trend {
		for next < point.Year {
			filled = append(filled, models.YearCount{Year: next})
			next++
		}
		filled = append(filled, point)
		next = point.Year + 1
	}
	return filled
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func buildPublicationDataset(publications []models.PublicationDetail) export.Dataset {
	headers := []string{"Title", "Authors", "Journal", "Impact Factor", "Quartile", "Year", "Volume", "Issue", "Pages", "DOI"}
	rows := make([]map[string]string, 0, len(publications))
	for _, pub := range publications {
		rows = append(rows, map[string]string{
			"Title":         pub.Title,
			"Authors":       pub.Authors,
			"Journal":       pub.JournalName,
			"Impact Factor": strconv.FormatFloat(pub.ImpactFactor, 'f', 3, 64),
			"Quartile":      string(pub.Quartile),
			"Year":          strconv.Itoa(pub.PublishYear),
			"Volume":        derefOrEmpty(pub.Volume),
			"Issue":         derefOrEmpty(pub.Issue),
			"Pages":         derefOrEmpty(pub.Pages),
			"DOI":           derefOrEmpty(pub.DOI),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func derefOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
