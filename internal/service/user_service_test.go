package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/seims-dev/seims-api/internal/dto"
	"github.com/seims-dev/seims-api/internal/models"
	appErrors "github.com/seims-dev/seims-api/pkg/errors"
)

type mockUserStore struct {
	users        map[string]models.User
	revokedUsers []string
	auditLogs    []models.AuditLog
}

func (m *mockUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		return &user, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserStore) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, user := range m.users {
		out = append(out, user)
	}
	return out, len(out), nil
}

func (m *mockUserStore) Create(ctx context.Context, user *models.User) error {
	if m.users == nil {
		m.users = make(map[string]models.User)
	}
	user.ID = fmt.Sprintf("user-%d", len(m.users)+1)
	m.users[user.ID] = *user
	return nil
}

func (m *mockUserStore) Update(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	m.users[user.ID] = *user
	return nil
}

func (m *mockUserStore) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedUsers = append(m.revokedUsers, userID)
	return nil
}

func (m *mockUserStore) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, *log)
	return nil
}

func (m *mockUserStore) ListAuditLogs(ctx context.Context, limit, offset int) ([]models.AuditLog, error) {
	return m.auditLogs, nil
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func TestUserCreateHashesPassword(t *testing.T) {
	store := &mockUserStore{}
	svc := NewUserService(store, validator.New(), zap.NewNop())

	req := dto.CreateUserRequest{
		Email:    "Lead@School.org",
		Password: "sup3r-secret",
		FullName: "Lakshmi Menon",
		Role:     models.RoleSpecialEducator,
	}
	item, err := svc.Create(context.Background(), req, adminClaims())
	require.NoError(t, err)

	assert.Equal(t, "lead@school.org", item.Email)
	assert.Equal(t, "Special Educator (Lead)", item.RoleDisplay)
	assert.True(t, item.Active)

	stored := store.users[item.ID]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("sup3r-secret")))
	require.Len(t, store.auditLogs, 1)
	assert.Equal(t, models.AuditActionUserCreate, store.auditLogs[0].Action)
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	store := &mockUserStore{users: map[string]models.User{
		"user-1": {ID: "user-1", Email: "lead@school.org", Role: models.RoleTeacher, Active: true},
	}}
	svc := NewUserService(store, validator.New(), zap.NewNop())

	req := dto.CreateUserRequest{Email: "lead@school.org", Password: "sup3r-secret", FullName: "Dup", Role: models.RoleTeacher}
	_, err := svc.Create(context.Background(), req, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserCreateUnknownRole(t *testing.T) {
	svc := NewUserService(&mockUserStore{}, validator.New(), zap.NewNop())

	req := dto.CreateUserRequest{Email: "x@school.org", Password: "sup3r-secret", FullName: "X", Role: "superuser"}
	_, err := svc.Create(context.Background(), req, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserCreateRequiresUserManagement(t *testing.T) {
	svc := NewUserService(&mockUserStore{}, validator.New(), zap.NewNop())

	actor := &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher}
	req := dto.CreateUserRequest{Email: "x@school.org", Password: "sup3r-secret", FullName: "X", Role: models.RoleTeacher}
	_, err := svc.Create(context.Background(), req, actor)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestUserDeactivationRevokesSessions(t *testing.T) {
	store := &mockUserStore{users: map[string]models.User{
		"user-1": {ID: "user-1", Email: "t@school.org", FullName: "T", Role: models.RoleTeacher, Active: true},
	}}
	svc := NewUserService(store, validator.New(), zap.NewNop())

	inactive := false
	item, err := svc.Update(context.Background(), "user-1", dto.UpdateUserRequest{Active: &inactive}, adminClaims())
	require.NoError(t, err)

	assert.False(t, item.Active)
	assert.Equal(t, []string{"user-1"}, store.revokedUsers)
	require.Len(t, store.auditLogs, 1)
	assert.Equal(t, models.AuditActionUserDeactivate, store.auditLogs[0].Action)
}

func TestUserUpdatePartialFields(t *testing.T) {
	store := &mockUserStore{users: map[string]models.User{
		"user-1": {ID: "user-1", Email: "t@school.org", FullName: "Old Name", Role: models.RoleTeacher, Active: true},
	}}
	svc := NewUserService(store, validator.New(), zap.NewNop())

	name := "New Name"
	item, err := svc.Update(context.Background(), "user-1", dto.UpdateUserRequest{FullName: &name}, adminClaims())
	require.NoError(t, err)

	assert.Equal(t, "New Name", item.FullName)
	assert.Equal(t, models.RoleTeacher, item.Role)
	assert.True(t, item.Active)
	assert.Empty(t, store.revokedUsers)
}

func TestUserUpdateNotFound(t *testing.T) {
	svc := NewUserService(&mockUserStore{}, validator.New(), zap.NewNop())

	name := "X"
	_, err := svc.Update(context.Background(), "missing", dto.UpdateUserRequest{FullName: &name}, adminClaims())
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestAuditLogsRequireCapability(t *testing.T) {
	svc := NewUserService(&mockUserStore{}, validator.New(), zap.NewNop())

	actor := &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher}
	_, err := svc.AuditLogs(context.Background(), 50, 0, actor)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
