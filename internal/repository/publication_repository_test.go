package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestPublicationExists(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPublicationRepository(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("Study A", "journal-1", 2022).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.Exists(context.Background(), "Study A", "journal-1", 2022)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicationFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPublicationRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "title", "authors", "journal_id", "department_id", "user_id", "publish_year", "volume", "issue", "pages", "doi", "created_at", "updated_at"}).
		AddRow("pub-1", "Study A", "Alice", "journal-1", "dept-1", "user-1", 2022, nil, nil, nil, nil, now, now)
	mock.ExpectQuery("SELECT .+ FROM publications p WHERE p.id =").
		WithArgs("pub-1").
		WillReturnRows(rows)

	pub, err := repo.FindByID(context.Background(), "pub-1")
	require.NoError(t, err)
	assert.Equal(t, "Study A", pub.Title)
	assert.Equal(t, 2022, pub.PublishYear)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicationListFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPublicationRepository(db)

	now := time.Now()
	listRows := sqlmock.NewRows([]string{"id", "title", "authors", "journal_id", "department_id", "user_id", "publish_year", "volume", "issue", "pages", "doi", "created_at", "updated_at", "journal_name", "impact_factor", "quartile", "department_name"}).
		AddRow("pub-1", "Study A", "Alice", "journal-1", "dept-1", "user-1", 2022, nil, nil, nil, nil, now, now, "Nature", 42.5, "Q1", "Cardiology")
	mock.ExpectQuery("SELECT .+ FROM publications p").
		WithArgs("dept-1", "%study%").
		WillReturnRows(listRows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM publications p`).
		WithArgs("dept-1", "%study%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	publications, total, err := repo.List(context.Background(), models.PublicationFilter{DepartmentID: "dept-1", Search: "Study"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, publications, 1)
	assert.Equal(t, "Nature", publications[0].JournalName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicationCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPublicationRepository(db)

	mock.ExpectExec("INSERT INTO publications").WillReturnResult(sqlmock.NewResult(1, 1))

	pub := &models.Publication{Title: "Study A", Authors: "Alice", JournalID: "journal-1", DepartmentID: "dept-1", UserID: "user-1", PublishYear: 2022}
	err := repo.Create(context.Background(), pub)
	require.NoError(t, err)
	assert.NotEmpty(t, pub.ID)
	assert.False(t, pub.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicationDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPublicationRepository(db)

	mock.ExpectExec("DELETE FROM publications").WithArgs("pub-1").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "pub-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
