package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/dto"
	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/models"
	appErrors "github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/pkg/errors"
)

type mockUserRepo struct {
	byID      map[string]*models.User
	createErr error
	created   []*models.User
	updated   []*models.User
	deleted   []string
	auditLogs []*models.AuditLog
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	users := make([]models.User, 0, len(m.byID))
	for _, u := range m.byID {
		users = append(users, *u)
	}
	return users, len(users), nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, user)
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	m.updated = append(m.updated, user)
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func newUserFixture() (*UserService, *mockUserRepo) {
	repo := &mockUserRepo{byID: map[string]*models.User{}}
	depts := &mockDeptLookup{departments: map[string]*models.Department{
		"dept-1": {ID: "dept-1", Name: "Cardiology"},
	}}
	svc := NewUserService(repo, depts, validator.New(), zap.NewNop())
	return svc, repo
}

func TestUserCreateHashesPassword(t *testing.T) {
	svc, repo := newUserFixture()
	deptID := "dept-1"

	user, err := svc.Create(context.Background(), "admin-1", dto.CreateUserRequest{
		Username:     "jdoe",
		Email:        "jdoe@example.com",
		Password:     "secret123",
		FullName:     "J. Doe",
		Role:         models.RoleUser,
		DepartmentID: &deptID,
	})
	require.NoError(t, err)
	assert.True(t, user.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")))
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionUserCreate, repo.auditLogs[0].Action)
}

func TestUserCreateNonAdminRequiresDepartment(t *testing.T) {
	svc, _ := newUserFixture()

	_, err := svc.Create(context.Background(), "admin-1", dto.CreateUserRequest{
		Username: "jdoe",
		Email:    "jdoe@example.com",
		Password: "secret123",
		FullName: "J. Doe",
		Role:     models.RoleDepartmentAdmin,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserCreateUnknownRole(t *testing.T) {
	svc, _ := newUserFixture()
	deptID := "dept-1"

	_, err := svc.Create(context.Background(), "admin-1", dto.CreateUserRequest{
		Username:     "jdoe",
		Email:        "jdoe@example.com",
		Password:     "secret123",
		FullName:     "J. Doe",
		Role:         models.UserRole("SUPERUSER"),
		DepartmentID: &deptID,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserCreateDuplicateUsername(t *testing.T) {
	svc, repo := newUserFixture()
	repo.createErr = &pq.Error{Code: "23505"}
	deptID := "dept-1"

	_, err := svc.Create(context.Background(), "admin-1", dto.CreateUserRequest{
		Username:     "jdoe",
		Email:        "jdoe@example.com",
		Password:     "secret123",
		FullName:     "J. Doe",
		Role:         models.RoleUser,
		DepartmentID: &deptID,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicate.Code, appErrors.FromError(err).Code)
}

func TestUserUpdatePartial(t *testing.T) {
	svc, repo := newUserFixture()
	deptID := "dept-1"
	repo.byID["user-1"] = &models.User{ID: "user-1", Username: "jdoe", Email: "old@example.com", FullName: "J. Doe", Role: models.RoleUser, DepartmentID: &deptID, Active: true}

	email := "new@example.com"
	user, err := svc.Update(context.Background(), "admin-1", "user-1", dto.UpdateUserRequest{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, "J. Doe", user.FullName)
}

func TestUserDeleteSoft(t *testing.T) {
	svc, repo := newUserFixture()
	repo.byID["user-1"] = &models.User{ID: "user-1", Role: models.RoleAdmin, Active: true}

	err := svc.Delete(context.Background(), "admin-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"user-1"}, repo.deleted)
}

func TestUserDeleteSelfRejected(t *testing.T) {
	svc, repo := newUserFixture()
	repo.byID["admin-1"] = &models.User{ID: "admin-1", Role: models.RoleAdmin, Active: true}

	err := svc.Delete(context.Background(), "admin-1", "admin-1")
	require.Error(t, err)
	assert.Empty(t, repo.deleted)
}
