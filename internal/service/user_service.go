package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/seims-dev/seims-api/internal/dto"
	"github.com/seims-dev/seims-api/internal/models"
	"github.com/seims-dev/seims-api/internal/permissions"
	appErrors "github.com/seims-dev/seims-api/pkg/errors"
)

type userStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
	ListAuditLogs(ctx context.Context, limit, offset int) ([]models.AuditLog, error)
}

// UserService covers account administration: listing, creation, role
// changes, and deactivation.
type UserService struct {
	repo      userStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(repo userStore, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns accounts matching the filter, with role display labels.
func (s *UserService) List(ctx context.Context, filter models.UserFilter, actor *models.JWTClaims) ([]dto.UserItem, *models.Pagination, error) {
	if err := s.requireCapability(actor); err != nil {
		return nil, nil, err
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to list users")
	}
	items := make([]dto.UserItem, 0, len(users))
	for _, user := range users {
		items = append(items, toUserItem(&user))
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size < 1 {
		size = 20
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one account by ID.
func (s *UserService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.UserItem, error) {
	if err := s.requireCapability(actor); err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load user")
	}
	item := toUserItem(user)
	return &item, nil
}

// Create provisions a new staff account.
func (s *UserService) Create(ctx context.Context, req dto.CreateUserRequest, actor *models.JWTClaims) (*dto.UserItem, error) {
	if err := s.requireCapability(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	if _, ok := models.RoleDisplayNames[req.Role]; !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}

	if _, err := s.repo.FindByEmail(ctx, strings.ToLower(req.Email)); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an account with this email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to check email uniqueness")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		Role:         req.Role,
		Active:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to create user")
	}
	s.recordUserAudit(ctx, actor.UserID, models.AuditActionUserCreate, user.ID, map[string]interface{}{"role": user.Role})
	item := toUserItem(user)
	return &item, nil
}

// Update applies partial changes to an account. Deactivation revokes every
// outstanding refresh token so the account cannot keep a live session.
func (s *UserService) Update(ctx context.Context, id string, req dto.UpdateUserRequest, actor *models.JWTClaims) (*dto.UserItem, error) {
	if err := s.requireCapability(actor); err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load user")
	}

	deactivated := false
	if req.FullName != nil {
		if strings.TrimSpace(*req.FullName) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "full name cannot be blank")
		}
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Role != nil {
		if _, ok := models.RoleDisplayNames[*req.Role]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
		}
		user.Role = *req.Role
	}
	if req.Active != nil {
		deactivated = user.Active && !*req.Active
		user.Active = *req.Active
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to update user")
	}
	if deactivated {
		if err := s.repo.RevokeUserRefreshTokens(ctx, user.ID); err != nil {
			s.logger.Warn("failed to revoke tokens for deactivated user", zap.Error(err))
		}
		s.recordUserAudit(ctx, actor.UserID, models.AuditActionUserDeactivate, user.ID, nil)
	} else {
		s.recordUserAudit(ctx, actor.UserID, models.AuditActionUserUpdate, user.ID, nil)
	}
	item := toUserItem(user)
	return &item, nil
}

// AuditLogs returns the most recent audit trail entries.
func (s *UserService) AuditLogs(ctx context.Context, limit, offset int, actor *models.JWTClaims) ([]models.AuditLog, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !permissions.Can(actor.Role, permissions.AuditLogs) {
		return nil, appErrors.ErrForbidden
	}
	logs, err := s.repo.ListAuditLogs(ctx, limit, offset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to list audit logs")
	}
	return logs, nil
}

func (s *UserService) requireCapability(actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if !permissions.Can(actor.Role, permissions.UserManagement) {
		return appErrors.ErrForbidden
	}
	return nil
}

func (s *UserService) recordUserAudit(ctx context.Context, actorID, action, targetID string, details map[string]interface{}) {
	payload, _ := json.Marshal(details)
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "user",
		ResourceID: &targetID,
		NewValues:  payload,
		IPAddress:  "system",
		UserAgent:  "user-service",
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("failed to record user audit log", zap.Error(err))
	}
}

func toUserItem(user *models.User) dto.UserItem {
	return dto.UserItem{
		ID:          user.ID,
		Email:       user.Email,
		FullName:    user.FullName,
		Role:        user.Role,
		RoleDisplay: user.Role.DisplayName(),
		Active:      user.Active,
	}
}
