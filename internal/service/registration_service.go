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

	"github.com/seims-dev/seims-api/internal/dto"
	"github.com/seims-dev/seims-api/internal/models"
	"github.com/seims-dev/seims-api/internal/permissions"
	"github.com/seims-dev/seims-api/internal/repository"
	appErrors "github.com/seims-dev/seims-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type registrationStore interface {
	Create(ctx context.Context, reg *models.Registration) error
	GetByID(ctx context.Context, id string) (*models.Registration, error)
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error)
	UpdateBasicInfo(ctx context.Context, reg *models.Registration) error
	SaveStepPayload(ctx context.Context, params repository.UpdateStepParams) error
	Submit(ctx context.Context, params repository.SubmitParams) error
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// RegistrationService drives the six-step registration wizard. The caller
// owns the conversation state (which step is on screen); the service only
// persists step payloads and the forward-only step ratchet.
type RegistrationService struct {
	repo      registrationStore
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRegistrationService constructs the service.
func NewRegistrationService(repo registrationStore, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RegistrationService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// ListMine returns all registrations authored by the actor, newest first,
// each annotated with its status/step badge.
func (s *RegistrationService) ListMine(ctx context.Context, actor *models.JWTClaims) ([]dto.RegistrationSummary, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !permissions.Can(actor.Role, permissions.StudentManagement) {
		return nil, appErrors.ErrForbidden
	}
	regs, err := s.repo.List(ctx, models.RegistrationFilter{CreatedBy: actor.UserID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to list registrations")
	}
	summaries := make([]dto.RegistrationSummary, 0, len(regs))
	for i := range regs {
		summaries = append(summaries, toSummary(&regs[i]))
	}
	return summaries, nil
}

// Get loads one registration with all step payloads decoded. Readable by the
// creator and by approval-capable reviewers.
func (s *RegistrationService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.RegistrationDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !permissions.Can(actor.Role, permissions.StudentManagement) && !permissions.CanApproveRegistrations(actor.Role) {
		return nil, appErrors.ErrForbidden
	}
	reg, err := s.loadRegistration(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg.CreatedBy != actor.UserID && !permissions.CanApproveRegistrations(actor.Role) {
		return nil, appErrors.ErrForbidden
	}
	return buildDetail(reg)
}

// SaveBasicInfo saves step 1, creating the registration when no ID is given.
// The admission number is assigned on first persistence and never changes.
func (s *RegistrationService) SaveBasicInfo(ctx context.Context, registrationID string, req dto.SaveBasicInfoRequest, actor *models.JWTClaims) (*dto.SaveStepResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !permissions.Can(actor.Role, permissions.StudentManagement) {
		return nil, appErrors.ErrForbidden
	}

	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	if firstName == "" || lastName == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "first name and last name are required")
	}
	dob, err := time.Parse(dateLayout, req.DateOfBirth)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date of birth must be YYYY-MM-DD")
	}
	enrollment, err := time.Parse(dateLayout, req.EnrollmentDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment date must be YYYY-MM-DD")
	}
	if strings.TrimSpace(req.Gender) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "gender is required")
	}

	var preferred *string
	if trimmed := strings.TrimSpace(req.PreferredName); trimmed != "" {
		preferred = &trimmed
	}

	if registrationID == "" {
		reg := &models.Registration{
			FirstName:          firstName,
			LastName:           lastName,
			PreferredName:      preferred,
			DateOfBirth:        dob,
			Gender:             req.Gender,
			EnrollmentDate:     enrollment,
			RegistrationStatus: models.RegistrationStatusDraft,
			RegistrationStep:   models.StepBasicInfo,
			CreatedBy:          actor.UserID,
		}
		if err := s.repo.Create(ctx, reg); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to create registration")
		}
		s.emitAudit(ctx, actor.UserID, models.AuditActionRegistrationSave, reg.ID, map[string]interface{}{"step": models.StepBasicInfo})
		return &dto.SaveStepResult{
			RegistrationID:  reg.ID,
			AdmissionNumber: reg.AdmissionNumber,
			NewStep:         reg.RegistrationStep,
			Status:          reg.RegistrationStatus,
		}, nil
	}

	reg, err := s.loadOwnedEditable(ctx, registrationID, actor)
	if err != nil {
		return nil, err
	}
	reg.FirstName = firstName
	reg.LastName = lastName
	reg.PreferredName = preferred
	reg.DateOfBirth = dob
	reg.Gender = req.Gender
	reg.EnrollmentDate = enrollment
	if err := s.repo.UpdateBasicInfo(ctx, reg); err != nil {
		return nil, s.storeError(err, "failed to save basic info")
	}
	s.emitAudit(ctx, actor.UserID, models.AuditActionRegistrationSave, reg.ID, map[string]interface{}{"step": models.StepBasicInfo})
	return &dto.SaveStepResult{
		RegistrationID:  reg.ID,
		AdmissionNumber: reg.AdmissionNumber,
		NewStep:         maxStep(reg.RegistrationStep, models.StepBasicInfo),
		Status:          reg.RegistrationStatus,
	}, nil
}

// SaveContactInfo saves step 2. Every listed guardian needs a full name,
// phone and email.
func (s *RegistrationService) SaveContactInfo(ctx context.Context, registrationID string, req dto.SaveContactInfoRequest, actor *models.JWTClaims) (*dto.SaveStepResult, error) {
	if len(req.Guardians) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one guardian is required")
	}
	for _, guardian := range req.Guardians {
		if strings.TrimSpace(guardian.FullName) == "" || strings.TrimSpace(guardian.Phone) == "" || strings.TrimSpace(guardian.Email) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "guardian full name, phone, and email are required")
		}
	}
	payload := models.ContactInfo{
		Guardians:         req.Guardians,
		Address:           req.Address,
		EmergencyContacts: req.EmergencyContacts,
	}
	return s.saveStep(ctx, registrationID, models.StepContactInfo, "contact_info", payload, nil, nil, actor)
}

// SaveAcademicInfo saves step 3 and mirrors grade/section onto the
// top-level roster columns.
func (s *RegistrationService) SaveAcademicInfo(ctx context.Context, registrationID string, req dto.SaveAcademicInfoRequest, actor *models.JWTClaims) (*dto.SaveStepResult, error) {
	grade := strings.TrimSpace(req.GradeLevel)
	if grade == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade level is required")
	}
	section := strings.TrimSpace(req.Section)
	payload := models.AcademicInfo{
		GradeLevel:          grade,
		Section:             section,
		AssignedTeacher:     req.AssignedTeacher,
		CaseManager:         req.CaseManager,
		PreviousSchool:      req.PreviousSchool,
		SchedulePreferences: req.SchedulePreferences,
	}
	return s.saveStep(ctx, registrationID, models.StepAcademicInfo, "academic_info", payload, &grade, &section, actor)
}

// SaveMedicalInfo saves step 4. All lists are optional.
func (s *RegistrationService) SaveMedicalInfo(ctx context.Context, registrationID string, req dto.SaveMedicalInfoRequest, actor *models.JWTClaims) (*dto.SaveStepResult, error) {
	payload := models.MedicalInfo{
		Conditions:  req.Conditions,
		Allergies:   req.Allergies,
		Medications: req.Medications,
		Physician:   req.Physician,
		Notes:       req.Notes,
	}
	return s.saveStep(ctx, registrationID, models.StepMedicalInfo, "medical_info", payload, nil, nil, actor)
}

// SaveLearningProfile saves step 5. A primary diagnosis selection is required.
func (s *RegistrationService) SaveLearningProfile(ctx context.Context, registrationID string, req dto.SaveLearningProfileRequest, actor *models.JWTClaims) (*dto.SaveStepResult, error) {
	if strings.TrimSpace(req.PrimaryDiagnosis) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "primary diagnosis is required")
	}
	payload := models.LearningProfile{
		PrimaryDiagnosis: req.PrimaryDiagnosis,
		ImpactLevel:      req.ImpactLevel,
		AffectedAreas:    req.AffectedAreas,
		Documents:        req.Documents,
		Notes:            req.Notes,
	}
	return s.saveStep(ctx, registrationID, models.StepLearningProfile, "learning_profile", payload, nil, nil, actor)
}

// Submit flips the registration to pending review. A record previously
// denied or put on hold is resubmitted: the reviewer bookkeeping is cleared
// and the caller is told so it can phrase the confirmation differently.
func (s *RegistrationService) Submit(ctx context.Context, registrationID string, req dto.SubmitRequest, actor *models.JWTClaims) (*dto.SubmitResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !permissions.Can(actor.Role, permissions.StudentManagement) {
		return nil, appErrors.ErrForbidden
	}
	if !req.ConfirmAccuracy || !req.ConfirmDocuments {
		return nil, appErrors.Clone(appErrors.ErrValidation, "both information accuracy and document verification must be confirmed")
	}

	reg, err := s.loadOwnedEditable(ctx, registrationID, actor)
	if err != nil {
		return nil, err
	}
	if reg.RegistrationStep < models.StepLearningProfile {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "all wizard steps must be completed before submission")
	}

	isResubmission := reg.RegistrationStatus == models.RegistrationStatusDenied ||
		reg.RegistrationStatus == models.RegistrationStatusOnHold

	if err := s.repo.Submit(ctx, repository.SubmitParams{ID: reg.ID, ClearReview: isResubmission}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "registration was approved concurrently")
		}
		return nil, s.storeError(err, "failed to submit registration")
	}
	s.emitAudit(ctx, actor.UserID, models.AuditActionRegistrationSubmit, reg.ID, map[string]interface{}{"resubmission": isResubmission})
	return &dto.SubmitResult{
		RegistrationID: reg.ID,
		Status:         models.RegistrationStatusPendingReview,
		IsResubmission: isResubmission,
	}, nil
}

func (s *RegistrationService) saveStep(ctx context.Context, registrationID string, step int, column string, payload interface{}, grade, section *string, actor *models.JWTClaims) (*dto.SaveStepResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !permissions.Can(actor.Role, permissions.StudentManagement) {
		return nil, appErrors.ErrForbidden
	}
	if registrationID == "" {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "complete step 1 (basic information) first")
	}
	reg, err := s.loadOwnedEditable(ctx, registrationID, actor)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode step payload")
	}
	params := repository.UpdateStepParams{
		ID:      reg.ID,
		Step:    step,
		Column:  column,
		Payload: raw,
		Grade:   grade,
		Section: section,
	}
	if err := s.repo.SaveStepPayload(ctx, params); err != nil {
		return nil, s.storeError(err, "failed to save step")
	}
	s.emitAudit(ctx, actor.UserID, models.AuditActionRegistrationSave, reg.ID, map[string]interface{}{"step": step})
	return &dto.SaveStepResult{
		RegistrationID:  reg.ID,
		AdmissionNumber: reg.AdmissionNumber,
		NewStep:         maxStep(reg.RegistrationStep, step),
		Status:          reg.RegistrationStatus,
	}, nil
}

func (s *RegistrationService) loadRegistration(ctx context.Context, id string) (*models.Registration, error) {
	reg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load registration")
	}
	return reg, nil
}

// loadOwnedEditable enforces that only the creator edits a record and that a
// terminal approved record stays untouched.
func (s *RegistrationService) loadOwnedEditable(ctx context.Context, id string, actor *models.JWTClaims) (*models.Registration, error) {
	reg, err := s.loadRegistration(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg.CreatedBy != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	if reg.RegistrationStatus == models.RegistrationStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an approved registration can no longer be edited")
	}
	return reg, nil
}

func (s *RegistrationService) storeError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.ErrNotFound
	}
	return appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, message)
}

func (s *RegistrationService) emitAudit(ctx context.Context, userID, action, registrationID string, details map[string]interface{}) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(details)
	log := &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "registration",
		ResourceID: &registrationID,
		NewValues:  payload,
		IPAddress:  "system",
		UserAgent:  "registration-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func toSummary(reg *models.Registration) dto.RegistrationSummary {
	return dto.RegistrationSummary{
		ID:                 reg.ID,
		AdmissionNumber:    reg.AdmissionNumber,
		FirstName:          reg.FirstName,
		LastName:           reg.LastName,
		RegistrationStatus: reg.RegistrationStatus,
		RegistrationStep:   reg.RegistrationStep,
		Badge:              reg.Badge(),
		CreatedBy:          reg.CreatedBy,
		CreatedAt:          reg.CreatedAt,
		UpdatedAt:          reg.UpdatedAt,
	}
}

func buildDetail(reg *models.Registration) (*dto.RegistrationDetail, error) {
	contact, err := reg.DecodeContactInfo()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "corrupt contact payload")
	}
	academic, err := reg.DecodeAcademicInfo()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "corrupt academic payload")
	}
	medical, err := reg.DecodeMedicalInfo()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "corrupt medical payload")
	}
	learning, err := reg.DecodeLearningProfile()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "corrupt learning profile payload")
	}
	return &dto.RegistrationDetail{
		Registration:    *reg,
		ContactInfo:     contact,
		AcademicInfo:    academic,
		MedicalInfo:     medical,
		LearningProfile: learning,
		Badge:           reg.Badge(),
	}, nil
}

func maxStep(current, step int) int {
	if current > step {
		return current
	}
	return step
}
