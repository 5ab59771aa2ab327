package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/models"
	appErrors "github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/pkg/errors"
)

type mockAuthRepo struct {
	user              *models.User
	findByUsernameErr error
	findByIDErr       error
	updatePasswordErr error
	auditLogs         []*models.AuditLog
	lastLoginUpdated  bool
}

func (m *mockAuthRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.findByUsernameErr != nil {
		return nil, m.findByUsernameErr
	}
	return m.user, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.findByIDErr != nil {
		return nil, m.findByIDErr
	}
	return m.user, nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if m.updatePasswordErr != nil {
		return m.updatePasswordErr
	}
	if m.user != nil && m.user.ID == id {
		m.user.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func testUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	deptID := "dept-1"
	return &models.User{
		ID:           "user-1",
		Username:     "jdoe",
		Email:        "jdoe@example.com",
		PasswordHash: string(hash),
		FullName:     "J. Doe",
		Role:         models.RoleDepartmentAdmin,
		DepartmentID: &deptID,
		Active:       true,
	}
}

func newAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		Secret:     "test-secret",
		Issuer:     "test",
		Expiration: 2 * time.Hour,
	})
}

func TestLoginIssuesTokenCarryingRole(t *testing.T) {
	repo := &mockAuthRepo{user: testUser(t, "secret123")}
	svc := newAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "jdoe", Password: "secret123"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	assert.Equal(t, int64(7200), res.ExpiresIn)
	assert.True(t, repo.lastLoginUpdated)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionLogin, repo.auditLogs[0].Action)

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, repo.user.Role, claims.Role)
	assert.Equal(t, repo.user.ID, claims.UserID)
	require.NotNil(t, claims.DepartmentID)
	assert.Equal(t, "dept-1", *claims.DepartmentID)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := &mockAuthRepo{user: testUser(t, "secret123")}
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "jdoe", Password: "wrong"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	user := testUser(t, "secret123")
	user.Active = false
	svc := newAuthService(&mockAuthRepo{user: user})

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "jdoe", Password: "secret123"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestValidateTokenExpiredIsNotInvalid(t *testing.T) {
	repo := &mockAuthRepo{user: testUser(t, "secret123")}
	svc := newAuthService(repo)
	svc.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "jdoe", Password: "secret123"})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(res.Token)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrTokenExpired.Code, appErr.Code)
	assert.NotEqual(t, appErrors.ErrTokenInvalid.Code, appErr.Code)
}

func TestValidateTokenGarbage(t *testing.T) {
	svc := newAuthService(&mockAuthRepo{})

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrTokenInvalid.Code, appErr.Code)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	repo := &mockAuthRepo{user: testUser(t, "secret123")}
	issuer := newAuthService(repo)
	res, err := issuer.Login(context.Background(), models.LoginRequest{Username: "jdoe", Password: "secret123"})
	require.NoError(t, err)

	other := NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{Secret: "different", Expiration: time.Hour})
	_, err = other.ValidateToken(res.Token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTokenInvalid.Code, appErrors.FromError(err).Code)
}

func TestRefreshWhileValid(t *testing.T) {
	repo := &mockAuthRepo{user: testUser(t, "secret123")}
	svc := newAuthService(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{Username: "jdoe", Password: "secret123"})
	require.NoError(t, err)

	res, err := svc.Refresh(context.Background(), login.Token, "127.0.0.1", "test-agent")
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestRefreshExpiredToken(t *testing.T) {
	repo := &mockAuthRepo{user: testUser(t, "secret123")}
	svc := newAuthService(repo)
	svc.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }

	login, err := svc.Login(context.Background(), models.LoginRequest{Username: "jdoe", Password: "secret123"})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Refresh(context.Background(), login.Token, "", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTokenExpired.Code, appErrors.FromError(err).Code)
}

func TestChangePassword(t *testing.T) {
	repo := &mockAuthRepo{user: testUser(t, "secret123")}
	svc := newAuthService(repo)

	err := svc.ChangePassword(context.Background(), "user-1", models.ChangePasswordRequest{
		OldPassword: "secret123",
		NewPassword: "newsecret",
	})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.user.PasswordHash), []byte("newsecret")))
}

func TestChangePasswordWrongOld(t *testing.T) {
	repo := &mockAuthRepo{user: testUser(t, "secret123")}
	svc := newAuthService(repo)

	err := svc.ChangePassword(context.Background(), "user-1", models.ChangePasswordRequest{
		OldPassword: "nope",
		NewPassword: "newsecret",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
