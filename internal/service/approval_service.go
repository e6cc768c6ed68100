package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seims-dev/seims-api/internal/dto"
	"github.com/seims-dev/seims-api/internal/models"
	"github.com/seims-dev/seims-api/internal/permissions"
	"github.com/seims-dev/seims-api/internal/repository"
	appErrors "github.com/seims-dev/seims-api/pkg/errors"
)

type approvalStore interface {
	GetByID(ctx context.Context, id string) (*models.Registration, error)
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error)
	Decide(ctx context.Context, params repository.DecideParams) error
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ApprovalService is the reviewer side of the registration workflow.
type ApprovalService struct {
	repo   approvalStore
	audit  auditLogger
	cache  cacheInvalidator
	logger *zap.Logger
	now    func() time.Time
}

// NewApprovalService constructs the service. cache may be nil.
func NewApprovalService(repo approvalStore, audit auditLogger, cache cacheInvalidator, logger *zap.Logger) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{repo: repo, audit: audit, cache: cache, logger: logger, now: time.Now}
}

// ListPending returns the review queue, newest submissions first. Records on
// hold stay in the queue so reviewers can revisit them.
func (s *ApprovalService) ListPending(ctx context.Context, actor *models.JWTClaims) ([]dto.RegistrationSummary, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !permissions.CanApproveRegistrations(actor.Role) {
		return nil, appErrors.ErrForbidden
	}
	regs, err := s.repo.List(ctx, models.RegistrationFilter{
		StatusIn: []models.RegistrationStatus{models.RegistrationStatusPendingReview, models.RegistrationStatusOnHold},
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to list pending registrations")
	}
	summaries := make([]dto.RegistrationSummary, 0, len(regs))
	for i := range regs {
		summaries = append(summaries, toSummary(&regs[i]))
	}
	return summaries, nil
}

// Decide records a review outcome. Approve promotes the student onto the
// active roster; deny and on_hold send the record back to its creator for
// editing; save_notes updates reviewer notes without moving the status.
func (s *ApprovalService) Decide(ctx context.Context, registrationID string, req dto.DecideRequest, actor *models.JWTClaims) (*dto.DecideResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !permissions.CanApproveRegistrations(actor.Role) {
		return nil, appErrors.ErrForbidden
	}

	reg, err := s.repo.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load registration")
	}

	params := repository.DecideParams{
		ID:            reg.ID,
		InternalNotes: optionalNote(req.InternalNotes),
		ParentNotes:   optionalNote(req.ParentNotes),
		ReviewedBy:    actor.UserID,
		ReviewedAt:    s.now().UTC(),
	}

	newStatus := reg.RegistrationStatus
	switch req.Decision {
	case dto.DecisionSaveNotes:
		params.NotesOnly = true
	case dto.DecisionApprove, dto.DecisionDeny, dto.DecisionOnHold:
		if !reg.Decidable() {
			return nil, appErrors.Clone(appErrors.ErrConflict, "registration is not awaiting review")
		}
		switch req.Decision {
		case dto.DecisionApprove:
			newStatus = models.RegistrationStatusApproved
			active := models.StudentStatusActive
			params.StudentStatus = &active
		case dto.DecisionDeny:
			newStatus = models.RegistrationStatusDenied
		case dto.DecisionOnHold:
			newStatus = models.RegistrationStatusOnHold
		}
		params.NewStatus = newStatus
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown decision")
	}

	if err := s.repo.Decide(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// A notes-only update has no status guard, so zero rows means
			// the registration itself is gone.
			if params.NotesOnly {
				return nil, appErrors.ErrNotFound
			}
			return nil, appErrors.Clone(appErrors.ErrConflict, "registration was decided concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to record decision")
	}

	s.emitAudit(ctx, actor.UserID, reg.ID, req.Decision, newStatus)
	s.invalidateDashboard(ctx)

	return &dto.DecideResult{RegistrationID: reg.ID, NewStatus: newStatus}, nil
}

func (s *ApprovalService) emitAudit(ctx context.Context, userID, registrationID string, decision dto.Decision, status models.RegistrationStatus) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{"decision": decision, "status": status})
	log := &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionRegistrationDecide,
		Resource:   "registration",
		ResourceID: &registrationID,
		NewValues:  payload,
		IPAddress:  "system",
		UserAgent:  "approval-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func (s *ApprovalService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

func optionalNote(note string) *string {
	trimmed := strings.TrimSpace(note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
