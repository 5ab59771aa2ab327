package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/dto"
	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/models"
	appErrors "github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/pkg/errors"
)

type mockJournalRepo struct {
	byID       map[string]*models.Journal
	byNameYear map[string]*models.Journal
	created    *models.Journal
	updated    *models.Journal
	deleted    []string
	deleteErr  error
}

func journalKey(name string, year int) string {
	return fmt.Sprintf("%s|%d", name, year)
}

func (m *mockJournalRepo) FindByID(ctx context.Context, id string) (*models.Journal, error) {
	if j, ok := m.byID[id]; ok {
		return j, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockJournalRepo) FindByNameYear(ctx context.Context, name string, year int) (*models.Journal, error) {
	if j, ok := m.byNameYear[journalKey(name, year)]; ok {
		return j, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockJournalRepo) List(ctx context.Context, filter models.JournalFilter) ([]models.Journal, int, error) {
	return nil, 0, nil
}

func (m *mockJournalRepo) Create(ctx context.Context, journal *models.Journal) error {
	journal.ID = "journal-new"
	m.created = journal
	return nil
}

func (m *mockJournalRepo) Update(ctx context.Context, journal *models.Journal) error {
	m.updated = journal
	return nil
}

func (m *mockJournalRepo) Delete(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func newJournalFixture() (*JournalService, *mockJournalRepo) {
	repo := &mockJournalRepo{
		byID: map[string]*models.Journal{
			"journal-1": {ID: "journal-1", Name: "Nature Medicine", Year: 2023, ImpactFactor: 45.9, Quartile: models.QuartileQ1},
		},
		byNameYear: map[string]*models.Journal{},
	}
	repo.byNameYear[journalKey("Nature Medicine", 2023)] = repo.byID["journal-1"]
	return NewJournalService(repo, nil, nil), repo
}

func TestJournalCreate(t *testing.T) {
	svc, repo := newJournalFixture()

	journal, err := svc.Create(context.Background(), dto.CreateJournalRequest{
		Name: "The Lancet", Year: 2023, ImpactFactor: 45.0, Quartile: models.QuartileQ1,
	})
	require.NoError(t, err)
	assert.Equal(t, "journal-new", journal.ID)
	require.NotNil(t, repo.created)
	assert.Equal(t, "The Lancet", repo.created.Name)
}

func TestJournalCreateDuplicateNameYear(t *testing.T) {
	svc, _ := newJournalFixture()

	_, err := svc.Create(context.Background(), dto.CreateJournalRequest{
		Name: "Nature Medicine", Year: 2023, ImpactFactor: 45.9, Quartile: models.QuartileQ1,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicate.Code, appErrors.FromError(err).Code)
}

func TestJournalCreateImpactFactorOutOfRange(t *testing.T) {
	svc, _ := newJournalFixture()

	_, err := svc.Create(context.Background(), dto.CreateJournalRequest{
		Name: "Bad Metrics Weekly", Year: 2023, ImpactFactor: 51.0, Quartile: models.QuartileQ2,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestJournalCreateFutureYearRejected(t *testing.T) {
	svc, _ := newJournalFixture()

	_, err := svc.Create(context.Background(), dto.CreateJournalRequest{
		Name: "Far Future", Year: time.Now().Year() + 2, ImpactFactor: 3.0, Quartile: models.QuartileQ3,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestJournalUpdateRevalidatesMergedFields(t *testing.T) {
	svc, repo := newJournalFixture()

	badImpact := 99.0
	_, err := svc.Update(context.Background(), "journal-1", dto.UpdateJournalRequest{ImpactFactor: &badImpact})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.updated)
	assert.InDelta(t, 45.9, repo.byID["journal-1"].ImpactFactor, 0.001, "rejected update must not touch the stored record")

	quartile := models.QuartileQ2
	updated, err := svc.Update(context.Background(), "journal-1", dto.UpdateJournalRequest{Quartile: &quartile})
	require.NoError(t, err)
	assert.Equal(t, models.QuartileQ2, updated.Quartile)
	assert.InDelta(t, 45.9, updated.ImpactFactor, 0.001)
}

func TestJournalDeleteStillReferenced(t *testing.T) {
	svc, repo := newJournalFixture()
	repo.deleteErr = &pq.Error{Code: "23503"}

	err := svc.Delete(context.Background(), "journal-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestJournalGetNotFound(t *testing.T) {
	svc, _ := newJournalFixture()

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
