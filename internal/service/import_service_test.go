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

type mockImportPubRepo struct {
	existing  map[string]bool
	created   []*models.Publication
	createErr error
}

func (m *mockImportPubRepo) Exists(ctx context.Context, title, journalID string, publishYear int) (bool, error) {
	return m.existing[strings.ToLower(title)], nil
}

func (m *mockImportPubRepo) Create(ctx context.Context, pub *models.Publication) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, pub)
	return nil
}

type mockImportJournalRepo struct {
	byName  map[string]*models.Journal
	byYear  map[string]*models.Journal
	created []*models.Journal
}

func (m *mockImportJournalRepo) FindByName(ctx context.Context, name string) (*models.Journal, error) {
	if j, ok := m.byName[strings.ToLower(name)]; ok {
		return j, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockImportJournalRepo) FindByNameYear(ctx context.Context, name string, year int) (*models.Journal, error) {
	if j, ok := m.byYear[strings.ToLower(name)]; ok && j.Year == year {
		return j, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockImportJournalRepo) Create(ctx context.Context, journal *models.Journal) error {
	m.created = append(m.created, journal)
	return nil
}

type mockImportDeptRepo struct {
	byID   map[string]*models.Department
	byName map[string]*models.Department
}

func (m *mockImportDeptRepo) FindByID(ctx context.Context, id string) (*models.Department, error) {
	if d, ok := m.byID[id]; ok {
		return d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockImportDeptRepo) FindByName(ctx context.Context, name string) (*models.Department, error) {
	if d, ok := m.byName[strings.ToLower(name)]; ok {
		return d, nil
	}
	return nil, sql.ErrNoRows
}

type mockAuditor struct {
	logs []*models.AuditLog
}

func (m *mockAuditor) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

type mockInvalidator struct {
	departments []string
}

func (m *mockInvalidator) Invalidate(ctx context.Context, departmentID string) {
	m.departments = append(m.departments, departmentID)
}

func newImportFixture() (*ImportService, *mockImportPubRepo, *mockImportJournalRepo, *mockInvalidator) {
	pubs := &mockImportPubRepo{existing: map[string]bool{}}
	journals := &mockImportJournalRepo{
		byName: map[string]*models.Journal{
			"nature": {ID: "journal-1", Name: "Nature", Year: 2023, ImpactFactor: 42.5, Quartile: models.QuartileQ1},
		},
		byYear: map[string]*models.Journal{},
	}
	depts := &mockImportDeptRepo{
		byID: map[string]*models.Department{
			"dept-1": {ID: "dept-1", Code: "CARD", Name: "Cardiology"},
		},
		byName: map[string]*models.Department{
			"cardiology": {ID: "dept-1", Code: "CARD", Name: "Cardiology"},
		},
	}
	stats := &mockInvalidator{}
	svc := NewImportService(pubs, journals, depts, &mockAuditor{}, stats, ImportConfig{}, zap.NewNop())
	return svc, pubs, journals, stats
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Username: "admin", Role: models.RoleAdmin}
}

func deptAdminClaims(dept string) *models.JWTClaims {
	return &models.JWTClaims{UserID: "da-1", Username: "da", Role: models.RoleDepartmentAdmin, DepartmentID: &dept}
}

const pubHeader = "title,authors,journal,year\n"

func TestImportPublicationsAllValid(t *testing.T) {
	svc, pubs, _, stats := newImportFixture()
	csv := pubHeader +
		"Study A,Alice; Bob,Nature,2022\n" +
		"Study B,Carol,Nature,2023\n"

	result, err := svc.ImportPublications(context.Background(), adminClaims(), strings.NewReader(csv), "batch.csv", int64(len(csv)), "dept-1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Success)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 0, result.Duplicates)
	assert.Empty(t, result.Errors)
	require.Len(t, pubs.created, 2)
	assert.Equal(t, "journal-1", pubs.created[0].JournalID)
	assert.Equal(t, "dept-1", pubs.created[0].DepartmentID)
	assert.Contains(t, stats.departments, "dept-1")
}

func TestImportPublicationsMultiByteTitleWithinBounds(t *testing.T) {
	svc, pubs, _, _ := newImportFixture()
	// 180 CJK characters, 540 bytes: within the 500-character title bound.
	title := strings.Repeat("心血管研究", 36)
	csv := pubHeader + title + ",Alice; Bob,Nature,2022\n"

	result, err := svc.ImportPublications(context.Background(), adminClaims(), strings.NewReader(csv), "batch.csv", int64(len(csv)), "dept-1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.Errors)
	require.Len(t, pubs.created, 1)
	assert.Equal(t, title, pubs.created[0].Title)
}

func TestImportPublicationsOneBadRowDoesNotAbort(t *testing.T) {
	svc, pubs, _, _ := newImportFixture()
	csv := pubHeader +
		"Study A,Alice,Nature,2022\n" +
		",Bob,Nature,2022\n" +
		"Study C,Carol,Nature,1850\n" +
		"Study D,Dan,Unknown Journal,2022\n" +
		"Study E,Eve,Nature,2021\n"

	result, err := svc.ImportPublications(context.Background(), adminClaims(), strings.NewReader(csv), "batch.csv", int64(len(csv)), "dept-1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Success)
	assert.Equal(t, 3, result.Failed)
	require.Len(t, result.Errors, 3)
	assert.Equal(t, 2, result.Errors[0].Row)
	assert.Equal(t, "title", result.Errors[0].Field)
	assert.Equal(t, 3, result.Errors[1].Row)
	assert.Equal(t, "year", result.Errors[1].Field)
	assert.Equal(t, 4, result.Errors[2].Row)
	assert.Equal(t, "journal", result.Errors[2].Field)
	assert.Len(t, pubs.created, 2)
}

func TestImportPublicationsDuplicateWithinBatch(t *testing.T) {
	svc, pubs, _, _ := newImportFixture()
	csv := pubHeader +
		"Study A,Alice,Nature,2022\n" +
		"Study A,Alice,Nature,2022\n"

	result, err := svc.ImportPublications(context.Background(), adminClaims(), strings.NewReader(csv), "batch.csv", int64(len(csv)), "dept-1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 1, result.Duplicates)
	assert.Empty(t, result.Errors)
	assert.Len(t, pubs.created, 1)
}

func TestImportPublicationsDuplicateAgainstStore(t *testing.T) {
	svc, pubs, _, _ := newImportFixture()
	pubs.existing["study a"] = true
	csv := pubHeader + "Study A,Alice,Nature,2022\n"

	result, err := svc.ImportPublications(context.Background(), adminClaims(), strings.NewReader(csv), "batch.csv", int64(len(csv)), "dept-1")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Success)
	assert.Equal(t, 1, result.Duplicates)
	assert.Empty(t, pubs.created)
}

func TestImportPublicationsDepartmentColumn(t *testing.T) {
	svc, pubs, _, _ := newImportFixture()
	csv := "title,authors,journal,year,department\n" +
		"Study A,Alice,Nature,2022,Cardiology\n" +
		"Study B,Bob,Nature,2022,Radiology\n"

	result, err := svc.ImportPublications(context.Background(), adminClaims(), strings.NewReader(csv), "batch.csv", int64(len(csv)), "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "department", result.Errors[0].Field)
	require.Len(t, pubs.created, 1)
	assert.Equal(t, "dept-1", pubs.created[0].DepartmentID)
}

func TestImportPublicationsDeptAdminScope(t *testing.T) {
	svc, _, _, _ := newImportFixture()
	csv := pubHeader + "Study A,Alice,Nature,2022\n"

	_, err := svc.ImportPublications(context.Background(), deptAdminClaims("dept-2"), strings.NewReader(csv), "batch.csv", int64(len(csv)), "dept-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestImportPublicationsDeptAdminDefaultsToOwnDepartment(t *testing.T) {
	svc, pubs, _, _ := newImportFixture()
	csv := pubHeader + "Study A,Alice,Nature,2022\n"

	result, err := svc.ImportPublications(context.Background(), deptAdminClaims("dept-1"), strings.NewReader(csv), "batch.csv", int64(len(csv)), "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
	require.Len(t, pubs.created, 1)
	assert.Equal(t, "dept-1", pubs.created[0].DepartmentID)
}

func TestImportRejectsUnsupportedExtension(t *testing.T) {
	svc, _, _, _ := newImportFixture()

	_, err := svc.ImportPublications(context.Background(), adminClaims(), strings.NewReader("x"), "batch.txt", 1, "dept-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrFileUpload.Code, appErrors.FromError(err).Code)
}

func TestImportRejectsOversizedFile(t *testing.T) {
	pubs := &mockImportPubRepo{existing: map[string]bool{}}
	svc := NewImportService(pubs, &mockImportJournalRepo{}, &mockImportDeptRepo{}, nil, nil, ImportConfig{MaxFileSizeBytes: 16}, zap.NewNop())

	_, err := svc.ImportPublications(context.Background(), adminClaims(), strings.NewReader("x"), "batch.csv", 64, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrFileUpload.Code, appErrors.FromError(err).Code)
}

func TestImportRejectsMissingColumns(t *testing.T) {
	svc, _, _, _ := newImportFixture()
	csv := "title,authors\nStudy A,Alice\n"

	_, err := svc.ImportPublications(context.Background(), adminClaims(), strings.NewReader(csv), "batch.csv", int64(len(csv)), "dept-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrFileUpload.Code, appErrors.FromError(err).Code)
}

func TestImportJournals(t *testing.T) {
	svc, _, journals, _ := newImportFixture()
	journals.byYear["lancet"] = &models.Journal{ID: "journal-2", Name: "Lancet", Year: 2023}
	csv := "name,year,impact factor,quartile\n" +
		"BMJ,2023,9.1,Q1\n" +
		"Lancet,2023,45.0,Q1\n" +
		"Bad One,2023,99.9,Q1\n" +
		"Other,2023,3.3,Q7\n"

	result, err := svc.ImportJournals(context.Background(), adminClaims(), strings.NewReader(csv), "journals.csv", int64(len(csv)))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
	assert.Equal(t, 1, result.Duplicates)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, journals.created, 1)
	assert.Equal(t, "BMJ", journals.created[0].Name)
}
