package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/seims-dev/seims-api/internal/dto"
	"github.com/seims-dev/seims-api/internal/models"
	"github.com/seims-dev/seims-api/internal/permissions"
	appErrors "github.com/seims-dev/seims-api/pkg/errors"
)

type sessionLogStore interface {
	Create(ctx context.Context, log *models.SessionLog) error
	GetByID(ctx context.Context, id string) (*models.SessionLog, error)
	List(ctx context.Context, filter models.SessionLogFilter) ([]models.SessionLog, error)
}

// SessionLogService records teaching and therapy sessions against students
// and their IEP goals.
type SessionLogService struct {
	repo      sessionLogStore
	students  iepStudentLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionLogService constructs the service.
func NewSessionLogService(repo sessionLogStore, students iepStudentLookup, validate *validator.Validate, logger *zap.Logger) *SessionLogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SessionLogService{repo: repo, students: students, validator: validate, logger: logger}
}

// Create records a session. The teacher on the log is always the actor.
func (s *SessionLogService) Create(ctx context.Context, req dto.CreateSessionLogRequest, actor *models.JWTClaims) (*models.SessionLog, error) {
	if err := s.requireCapability(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	sessionDate, err := time.Parse(dateLayout, req.SessionDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session date must be YYYY-MM-DD")
	}

	student, err := s.students.GetByID(ctx, req.StudentID)
	if err != nil {
		return nil, storeNotFound(err, "failed to load student")
	}
	if student.RegistrationStatus != models.RegistrationStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "sessions can only be logged for enrolled students")
	}

	goals, err := json.Marshal(req.GoalsAddressed)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode goals")
	}

	log := &models.SessionLog{
		StudentID:         req.StudentID,
		TeacherID:         actor.UserID,
		SessionDate:       sessionDate,
		StartTime:         req.StartTime,
		GoalsAddressed:    goals,
		EndTime:           optionalNote(req.EndTime),
		SessionType:       optionalNote(req.SessionType),
		Location:          optionalNote(req.Location),
		Observations:      optionalNote(req.Observations),
		StudentEngagement: optionalNote(req.StudentEngagement),
		Challenges:        optionalNote(req.Challenges),
		NextSteps:         optionalNote(req.NextSteps),
	}
	if req.IEPID != "" {
		log.IEPID = &req.IEPID
	}

	if err := s.repo.Create(ctx, log); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to create session log")
	}
	return log, nil
}

// Get loads one session log.
func (s *SessionLogService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.SessionLog, error) {
	if err := s.requireCapability(actor); err != nil {
		return nil, err
	}
	log, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeNotFound(err, "failed to load session log")
	}
	return log, nil
}

// List returns session logs matching the filter, newest first.
func (s *SessionLogService) List(ctx context.Context, filter models.SessionLogFilter, actor *models.JWTClaims) ([]models.SessionLog, error) {
	if err := s.requireCapability(actor); err != nil {
		return nil, err
	}
	logs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to list session logs")
	}
	return logs, nil
}

func (s *SessionLogService) requireCapability(actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if !permissions.Can(actor.Role, permissions.SessionLogging) {
		return appErrors.ErrForbidden
	}
	return nil
}
