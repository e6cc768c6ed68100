package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/seims-dev/seims-api/internal/dto"
	"github.com/seims-dev/seims-api/internal/models"
	"github.com/seims-dev/seims-api/internal/permissions"
	appErrors "github.com/seims-dev/seims-api/pkg/errors"
)

// StudentService exposes the roster of enrolled students. The roster is the
// approved slice of the registrations table; nothing is copied anywhere on
// approval.
type StudentService struct {
	repo   registrationStore
	logger *zap.Logger
}

// NewStudentService constructs the service.
func NewStudentService(repo registrationStore, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, logger: logger}
}

// List returns approved students, optionally filtered by a name or admission
// number search.
func (s *StudentService) List(ctx context.Context, search string, limit, offset int, actor *models.JWTClaims) ([]dto.RegistrationSummary, error) {
	if err := s.requireRosterAccess(actor); err != nil {
		return nil, err
	}
	regs, err := s.repo.List(ctx, models.RegistrationFilter{
		StatusIn: []models.RegistrationStatus{models.RegistrationStatusApproved},
		Search:   search,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to list students")
	}
	summaries := make([]dto.RegistrationSummary, 0, len(regs))
	for i := range regs {
		summaries = append(summaries, toSummary(&regs[i]))
	}
	return summaries, nil
}

// Get loads one enrolled student with full detail.
func (s *StudentService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.RegistrationDetail, error) {
	if err := s.requireRosterAccess(actor); err != nil {
		return nil, err
	}
	reg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeNotFound(err, "failed to load student")
	}
	if reg.RegistrationStatus != models.RegistrationStatusApproved {
		return nil, appErrors.ErrNotFound
	}
	return buildDetail(reg)
}

// The roster is visible to everyone who works with student records, not
// just registration authors.
func (s *StudentService) requireRosterAccess(actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if permissions.Can(actor.Role, permissions.StudentManagement) ||
		permissions.Can(actor.Role, permissions.IEPManagement) ||
		permissions.Can(actor.Role, permissions.SessionLogging) {
		return nil
	}
	return appErrors.ErrForbidden
}

func storeNotFound(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.ErrNotFound
	}
	return appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, message)
}
