package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/seims-dev/seims-api/internal/dto"
	"github.com/seims-dev/seims-api/internal/models"
	"github.com/seims-dev/seims-api/internal/permissions"
	appErrors "github.com/seims-dev/seims-api/pkg/errors"
)

type iepStore interface {
	Create(ctx context.Context, iep *models.IEP) error
	GetByID(ctx context.Context, id string) (*models.IEP, error)
	List(ctx context.Context, filter models.IEPFilter) ([]models.IEP, error)
	UpdateStatus(ctx context.Context, id string, status models.IEPStatus) error
	CreateGoal(ctx context.Context, goal *models.Goal) error
	ListGoals(ctx context.Context, iepID string) ([]models.Goal, error)
	UpdateGoalStatus(ctx context.Context, goalID string, status models.GoalStatus) error
}

type iepStudentLookup interface {
	GetByID(ctx context.Context, id string) (*models.Registration, error)
}

// IEPService manages individualized education programs and their goals.
type IEPService struct {
	repo      iepStore
	students  iepStudentLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewIEPService constructs the service.
func NewIEPService(repo iepStore, students iepStudentLookup, validate *validator.Validate, logger *zap.Logger) *IEPService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &IEPService{repo: repo, students: students, validator: validate, logger: logger}
}

// Create opens a new draft IEP for an enrolled student.
func (s *IEPService) Create(ctx context.Context, req dto.CreateIEPRequest, actor *models.JWTClaims) (*models.IEP, error) {
	if err := s.requireCapability(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid IEP payload")
	}

	student, err := s.students.GetByID(ctx, req.StudentID)
	if err != nil {
		return nil, storeNotFound(err, "failed to load student")
	}
	if student.RegistrationStatus != models.RegistrationStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "an IEP requires an enrolled student")
	}

	iep := &models.IEP{
		StudentID:     req.StudentID,
		AcademicYear:  req.AcademicYear,
		Status:        models.IEPStatusDraft,
		VersionNumber: 1,
		CreatedBy:     actor.UserID,
	}
	if q := strings.TrimSpace(req.Quarter); q != "" {
		iep.Quarter = &q
	}
	if req.EffectiveDate != nil {
		parsed, err := time.Parse(dateLayout, *req.EffectiveDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "effective date must be YYYY-MM-DD")
		}
		iep.EffectiveDate = &parsed
	}
	if req.ReviewDate != nil {
		parsed, err := time.Parse(dateLayout, *req.ReviewDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "review date must be YYYY-MM-DD")
		}
		iep.ReviewDate = &parsed
	}

	if err := s.repo.Create(ctx, iep); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to create IEP")
	}
	return iep, nil
}

// Get loads one IEP together with its goals.
func (s *IEPService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.IEP, []models.Goal, error) {
	if err := s.requireCapability(actor); err != nil {
		return nil, nil, err
	}
	iep, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, storeNotFound(err, "failed to load IEP")
	}
	goals, err := s.repo.ListGoals(ctx, id)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to list goals")
	}
	return iep, goals, nil
}

// List returns IEPs matching the filter.
func (s *IEPService) List(ctx context.Context, filter models.IEPFilter, actor *models.JWTClaims) ([]models.IEP, error) {
	if err := s.requireCapability(actor); err != nil {
		return nil, err
	}
	ieps, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to list IEPs")
	}
	return ieps, nil
}

// Activate moves a draft IEP into effect. Any currently active IEP for the
// same student is archived first so at most one is active at a time.
func (s *IEPService) Activate(ctx context.Context, id string, actor *models.JWTClaims) (*models.IEP, error) {
	if err := s.requireCapability(actor); err != nil {
		return nil, err
	}
	iep, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeNotFound(err, "failed to load IEP")
	}
	if iep.Status != models.IEPStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrConflict, "only a draft IEP can be activated")
	}

	active, err := s.repo.List(ctx, models.IEPFilter{
		StudentID: iep.StudentID,
		Status:    []models.IEPStatus{models.IEPStatusActive},
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to check active IEPs")
	}
	for _, prev := range active {
		if err := s.repo.UpdateStatus(ctx, prev.ID, models.IEPStatusArchived); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to archive previous IEP")
		}
	}

	if err := s.repo.UpdateStatus(ctx, iep.ID, models.IEPStatusActive); err != nil {
		return nil, storeNotFound(err, "failed to activate IEP")
	}
	iep.Status = models.IEPStatusActive
	return iep, nil
}

// AddGoal attaches a goal to a draft or active IEP.
func (s *IEPService) AddGoal(ctx context.Context, iepID string, req dto.CreateGoalRequest, actor *models.JWTClaims) (*models.Goal, error) {
	if err := s.requireCapability(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid goal payload")
	}
	iep, err := s.repo.GetByID(ctx, iepID)
	if err != nil {
		return nil, storeNotFound(err, "failed to load IEP")
	}
	if iep.Status == models.IEPStatusArchived {
		return nil, appErrors.Clone(appErrors.ErrConflict, "goals cannot be added to an archived IEP")
	}

	goal := &models.Goal{
		IEPID:       iep.ID,
		Category:    req.Category,
		Description: req.Description,
		Target:      req.Target,
		TimeFrame:   req.TimeFrame,
		Status:      models.GoalStatusActive,
	}
	goal.Baseline = optionalNote(req.Baseline)
	goal.MeasurementMethod = optionalNote(req.MeasurementMethod)
	goal.SuccessCriteria = optionalNote(req.SuccessCriteria)
	goal.AssignedTo = optionalNote(req.AssignedTo)

	if err := s.repo.CreateGoal(ctx, goal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to create goal")
	}
	return goal, nil
}

// UpdateGoalStatus marks a goal achieved or discarded.
func (s *IEPService) UpdateGoalStatus(ctx context.Context, goalID string, req dto.UpdateGoalStatusRequest, actor *models.JWTClaims) error {
	if err := s.requireCapability(actor); err != nil {
		return err
	}
	status := models.GoalStatus(req.Status)
	switch status {
	case models.GoalStatusActive, models.GoalStatusAchieved, models.GoalStatusDiscarded:
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown goal status")
	}
	if err := s.repo.UpdateGoalStatus(ctx, goalID, status); err != nil {
		return storeNotFound(err, "failed to update goal")
	}
	return nil
}

func (s *IEPService) requireCapability(actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if !permissions.Can(actor.Role, permissions.IEPManagement) {
		return appErrors.ErrForbidden
	}
	return nil
}
