package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/models"
	appErrors "github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/pkg/errors"
)

type deptData struct {
	total     int
	avgImpact float64
	quartiles map[string]int
	trend     []models.YearCount
}

type mockStatsRepo struct {
	departments map[string]deptData
	overall     deptData
	ranks       []models.DepartmentRank
}

func (m *mockStatsRepo) Summary(ctx context.Context, departmentID string) (int, float64, error) {
	if departmentID == "" {
		return m.overall.total, m.overall.avgImpact, nil
	}
	d := m.departments[departmentID]
	return d.total, d.avgImpact, nil
}

func (m *mockStatsRepo) QuartileDistribution(ctx context.Context, departmentID string) (map[string]int, error) {
	if departmentID == "" {
		return m.overall.quartiles, nil
	}
	return m.departments[departmentID].quartiles, nil
}

func (m *mockStatsRepo) YearlyTrend(ctx context.Context, departmentID string) ([]models.YearCount, error) {
	if departmentID == "" {
		return m.overall.trend, nil
	}
	return m.departments[departmentID].trend, nil
}

func (m *mockStatsRepo) TopDepartments(ctx context.Context, limit int) ([]models.DepartmentRank, error) {
	return m.ranks, nil
}

func (m *mockStatsRepo) CountDepartments(ctx context.Context) (int, error) {
	return len(m.departments), nil
}

type mockExportRepo struct {
	publications []models.PublicationDetail
}

func (m *mockExportRepo) ListByDepartment(ctx context.Context, departmentID string) ([]models.PublicationDetail, error) {
	return m.publications, nil
}

type mockDeptLookup struct {
	departments map[string]*models.Department
}

func (m *mockDeptLookup) FindByID(ctx context.Context, id string) (*models.Department, error) {
	if d, ok := m.departments[id]; ok {
		return d, nil
	}
	return nil, sql.ErrNoRows
}

func newStatsFixture() (*StatisticsService, *mockStatsRepo) {
	repo := &mockStatsRepo{
		departments: map[string]deptData{
			"dept-1": {
				total:     3,
				avgImpact: 7.4366,
				quartiles: map[string]int{"Q1": 2, "Q2": 1, "Q3": 0, "Q4": 0},
				trend:     []models.YearCount{{Year: 2019, Count: 1}, {Year: 2022, Count: 2}},
			},
			"dept-2": {
				total:     2,
				avgImpact: 3.1,
				quartiles: map[string]int{"Q1": 0, "Q2": 0, "Q3": 1, "Q4": 1},
				trend:     []models.YearCount{{Year: 2021, Count: 2}},
			},
		},
		overall: deptData{
			total:     5,
			avgImpact: 5.702,
			trend:     []models.YearCount{{Year: 2019, Count: 1}, {Year: 2021, Count: 2}, {Year: 2022, Count: 2}},
		},
		ranks: []models.DepartmentRank{
			{DepartmentID: "dept-1", Name: "Cardiology", Publications: 3},
			{DepartmentID: "dept-2", Name: "Radiology", Publications: 2},
		},
	}
	depts := &mockDeptLookup{departments: map[string]*models.Department{
		"dept-1": {ID: "dept-1", Name: "Cardiology"},
		"dept-2": {ID: "dept-2", Name: "Radiology"},
	}}
	svc := NewStatisticsService(repo, &mockExportRepo{}, depts, nil, 0, zap.NewNop())
	return svc, repo
}

func TestDepartmentStatsRoundsAverage(t *testing.T) {
	svc, _ := newStatsFixture()

	stats, err := svc.DepartmentStats(context.Background(), "dept-1", false)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalPublications)
	assert.Equal(t, 7.44, stats.AverageImpactFactor)
	assert.Equal(t, 2, stats.QuartileDist["Q1"])
	assert.Equal(t, []models.YearCount{{Year: 2019, Count: 1}, {Year: 2022, Count: 2}}, stats.YearlyTrend)
}

func TestDepartmentStatsUnknownDepartment(t *testing.T) {
	svc, _ := newStatsFixture()

	_, err := svc.DepartmentStats(context.Background(), "dept-9", false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDepartmentStatsFillsGaps(t *testing.T) {
	svc, _ := newStatsFixture()

	stats, err := svc.DepartmentStats(context.Background(), "dept-1", true)
	require.NoError(t, err)
	assert.Equal(t, []models.YearCount{
		{Year: 2019, Count: 1},
		{Year: 2020, Count: 0},
		{Year: 2021, Count: 0},
		{Year: 2022, Count: 2},
	}, stats.YearlyTrend)
}

func TestOverviewTotalsMatchDepartmentSum(t *testing.T) {
	svc, repo := newStatsFixture()

	overview, err := svc.Overview(context.Background(), false)
	require.NoError(t, err)

	sum := 0
	for id := range repo.departments {
		stats, err := svc.DepartmentStats(context.Background(), id, false)
		require.NoError(t, err)
		sum += stats.TotalPublications
	}
	assert.Equal(t, overview.TotalPublications, sum)
	assert.Equal(t, 2, overview.TotalDepartments)
	assert.Equal(t, 5.7, overview.AverageImpactFactor)
	require.Len(t, overview.TopDepartments, 2)
	assert.Equal(t, "Cardiology", overview.TopDepartments[0].Name)
}

func TestExportDepartmentCSV(t *testing.T) {
	svc, _ := newStatsFixture()
	doi := "10.1000/xyz"
	svc.publications = &mockExportRepo{publications: []models.PublicationDetail{
		{
			Publication:  models.Publication{Title: "Study A", Authors: "Alice", PublishYear: 2022, DOI: &doi},
			JournalName:  "Nature",
			ImpactFactor: 42.5,
			Quartile:     models.QuartileQ1,
		},
	}}

	payload, contentType, err := svc.ExportDepartment(context.Background(), adminClaims(), "dept-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	body := string(payload)
	assert.Contains(t, body, "Title,Authors,Journal")
	assert.Contains(t, body, "Study A")
	assert.Contains(t, body, "10.1000/xyz")
	assert.True(t, strings.HasPrefix(body, "\xEF\xBB\xBF"))
}

func TestExportDepartmentPDF(t *testing.T) {
	svc, _ := newStatsFixture()

	payload, contentType, err := svc.ExportDepartment(context.Background(), adminClaims(), "dept-1", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))
}

func TestExportDepartmentScopedToOwn(t *testing.T) {
	svc, _ := newStatsFixture()

	_, _, err := svc.ExportDepartment(context.Background(), deptAdminClaims("dept-2"), "dept-1", "csv")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportDepartmentBadFormat(t *testing.T) {
	svc, _ := newStatsFixture()

	_, _, err := svc.ExportDepartment(context.Background(), adminClaims(), "dept-1", "xml")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFillTrendGapsEdgeCases(t *testing.T) {
	assert.Empty(t, fillTrendGaps(nil))
	single := []models.YearCount{{Year: 2020, Count: 3}}
	assert.Equal(t, single, fillTrendGaps(single))
}
