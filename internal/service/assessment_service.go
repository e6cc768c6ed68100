package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/seims-dev/seims-api/internal/dto"
	"github.com/seims-dev/seims-api/internal/models"
	"github.com/seims-dev/seims-api/internal/permissions"
	appErrors "github.com/seims-dev/seims-api/pkg/errors"
)

type assessmentStore interface {
	Create(ctx context.Context, assessment *models.Assessment) error
	GetByID(ctx context.Context, id string) (*models.Assessment, error)
	List(ctx context.Context, filter models.AssessmentFilter) ([]models.Assessment, error)
	Finalize(ctx context.Context, id string, reportPath string) error
}

// AssessmentService records quarterly assessments and their finalization.
type AssessmentService struct {
	repo      assessmentStore
	students  iepStudentLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssessmentService constructs the service.
func NewAssessmentService(repo assessmentStore, students iepStudentLookup, validate *validator.Validate, logger *zap.Logger) *AssessmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AssessmentService{repo: repo, students: students, validator: validate, logger: logger}
}

// Create records a draft assessment for an enrolled student.
func (s *AssessmentService) Create(ctx context.Context, req dto.CreateAssessmentRequest, actor *models.JWTClaims) (*models.Assessment, error) {
	if err := s.requireCapability(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}
	date, err := time.Parse(dateLayout, req.AssessmentDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "assessment date must be YYYY-MM-DD")
	}

	student, err := s.students.GetByID(ctx, req.StudentID)
	if err != nil {
		return nil, storeNotFound(err, "failed to load student")
	}
	if student.RegistrationStatus != models.RegistrationStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "assessments can only be recorded for enrolled students")
	}

	assessment := &models.Assessment{
		StudentID:      req.StudentID,
		Quarter:        req.Quarter,
		AssessmentDate: date,
		AssessmentType: req.AssessmentType,
		Scores:         req.Scores,
		ConductedBy:    actor.UserID,
		Status:         models.AssessmentStatusDraft,
	}
	assessment.ReportPath = optionalNote(req.ReportPath)

	if err := s.repo.Create(ctx, assessment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to create assessment")
	}
	return assessment, nil
}

// Get loads one assessment.
func (s *AssessmentService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Assessment, error) {
	if err := s.requireCapability(actor); err != nil {
		return nil, err
	}
	assessment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeNotFound(err, "failed to load assessment")
	}
	return assessment, nil
}

// List returns assessments matching the filter.
func (s *AssessmentService) List(ctx context.Context, filter models.AssessmentFilter, actor *models.JWTClaims) ([]models.Assessment, error) {
	if err := s.requireCapability(actor); err != nil {
		return nil, err
	}
	assessments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to list assessments")
	}
	return assessments, nil
}

// Finalize locks an assessment. A finalized assessment cannot change.
func (s *AssessmentService) Finalize(ctx context.Context, id, reportPath string, actor *models.JWTClaims) error {
	if err := s.requireCapability(actor); err != nil {
		return err
	}
	assessment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return storeNotFound(err, "failed to load assessment")
	}
	if assessment.Status == models.AssessmentStatusFinalized {
		return appErrors.Clone(appErrors.ErrConflict, "assessment is already finalized")
	}
	if err := s.repo.Finalize(ctx, id, reportPath); err != nil {
		return storeNotFound(err, "failed to finalize assessment")
	}
	return nil
}

func (s *AssessmentService) requireCapability(actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if !permissions.Can(actor.Role, permissions.AssessmentReporting) {
		return appErrors.ErrForbidden
	}
	return nil
}
