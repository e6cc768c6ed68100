package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seims-dev/seims-api/internal/dto"
	"github.com/seims-dev/seims-api/internal/models"
	"github.com/seims-dev/seims-api/internal/repository"
	appErrors "github.com/seims-dev/seims-api/pkg/errors"
)

type mockApprovalStore struct {
	regs      map[string]models.Registration
	decided   *repository.DecideParams
	decideErr error
}

func (m *mockApprovalStore) GetByID(ctx context.Context, id string) (*models.Registration, error) {
	if reg, ok := m.regs[id]; ok {
		return &reg, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockApprovalStore) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error) {
	var out []models.Registration
	for _, reg := range m.regs {
		for _, status := range filter.StatusIn {
			if reg.RegistrationStatus == status {
				out = append(out, reg)
				break
			}
		}
	}
	return out, nil
}

func (m *mockApprovalStore) Decide(ctx context.Context, params repository.DecideParams) error {
	if m.decideErr != nil {
		return m.decideErr
	}
	m.decided = &params
	return nil
}

type mockInvalidator struct {
	patterns []string
}

func (m *mockInvalidator) DeleteByPattern(ctx context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	return nil
}

func reviewerClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "hod-1", Role: models.RoleHOD}
}

func pendingRegistration(id string) models.Registration {
	return models.Registration{ID: id, CreatedBy: "u1", RegistrationStatus: models.RegistrationStatusPendingReview, RegistrationStep: 6}
}

func TestListPendingIncludesOnHold(t *testing.T) {
	store := &mockApprovalStore{regs: map[string]models.Registration{
		"reg-1": pendingRegistration("reg-1"),
		"reg-2": {ID: "reg-2", RegistrationStatus: models.RegistrationStatusOnHold, RegistrationStep: 6},
		"reg-3": {ID: "reg-3", RegistrationStatus: models.RegistrationStatusDraft, RegistrationStep: 2},
	}}
	svc := NewApprovalService(store, nil, nil, zap.NewNop())

	queue, err := svc.ListPending(context.Background(), reviewerClaims())
	require.NoError(t, err)
	assert.Len(t, queue, 2)
}

func TestListPendingForbiddenRole(t *testing.T) {
	svc := NewApprovalService(&mockApprovalStore{}, nil, nil, zap.NewNop())

	actor := &models.JWTClaims{UserID: "t1", Role: models.RoleTherapist}
	_, err := svc.ListPending(context.Background(), actor)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestDecideApproveActivatesStudent(t *testing.T) {
	store := &mockApprovalStore{regs: map[string]models.Registration{"reg-1": pendingRegistration("reg-1")}}
	audit := &mockAuditStore{}
	cache := &mockInvalidator{}
	svc := NewApprovalService(store, audit, cache, zap.NewNop())

	req := dto.DecideRequest{Decision: dto.DecisionApprove, ParentNotes: "welcome aboard"}
	result, err := svc.Decide(context.Background(), "reg-1", req, reviewerClaims())
	require.NoError(t, err)

	assert.Equal(t, models.RegistrationStatusApproved, result.NewStatus)
	require.NotNil(t, store.decided)
	assert.Equal(t, models.RegistrationStatusApproved, store.decided.NewStatus)
	require.NotNil(t, store.decided.StudentStatus)
	assert.Equal(t, models.StudentStatusActive, *store.decided.StudentStatus)
	assert.Equal(t, "hod-1", store.decided.ReviewedBy)
	require.NotNil(t, store.decided.ParentNotes)
	assert.Equal(t, "welcome aboard", *store.decided.ParentNotes)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionRegistrationDecide, audit.logs[0].Action)
	assert.Equal(t, []string{"dashboard:*"}, cache.patterns)
}

func TestDecideDenyKeepsStudentStatus(t *testing.T) {
	store := &mockApprovalStore{regs: map[string]models.Registration{"reg-1": pendingRegistration("reg-1")}}
	svc := NewApprovalService(store, nil, nil, zap.NewNop())

	req := dto.DecideRequest{Decision: dto.DecisionDeny, InternalNotes: "incomplete documents"}
	result, err := svc.Decide(context.Background(), "reg-1", req, reviewerClaims())
	require.NoError(t, err)

	assert.Equal(t, models.RegistrationStatusDenied, result.NewStatus)
	assert.Nil(t, store.decided.StudentStatus)
}

func TestDecideRejectsUndecidableStatus(t *testing.T) {
	store := &mockApprovalStore{regs: map[string]models.Registration{
		"reg-1": {ID: "reg-1", RegistrationStatus: models.RegistrationStatusDraft, RegistrationStep: 3},
	}}
	svc := NewApprovalService(store, nil, nil, zap.NewNop())

	req := dto.DecideRequest{Decision: dto.DecisionApprove}
	_, err := svc.Decide(context.Background(), "reg-1", req, reviewerClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, store.decided)
}

func TestDecideSaveNotesWorksInAnyStatus(t *testing.T) {
	store := &mockApprovalStore{regs: map[string]models.Registration{
		"reg-1": {ID: "reg-1", RegistrationStatus: models.RegistrationStatusApproved, RegistrationStep: 6},
	}}
	svc := NewApprovalService(store, nil, nil, zap.NewNop())

	req := dto.DecideRequest{Decision: dto.DecisionSaveNotes, InternalNotes: "follow up in Q3"}
	result, err := svc.Decide(context.Background(), "reg-1", req, reviewerClaims())
	require.NoError(t, err)

	assert.Equal(t, models.RegistrationStatusApproved, result.NewStatus)
	require.NotNil(t, store.decided)
	assert.True(t, store.decided.NotesOnly)
}

func TestDecideConcurrentLoss(t *testing.T) {
	store := &mockApprovalStore{
		regs:      map[string]models.Registration{"reg-1": pendingRegistration("reg-1")},
		decideErr: sql.ErrNoRows,
	}
	svc := NewApprovalService(store, nil, nil, zap.NewNop())

	req := dto.DecideRequest{Decision: dto.DecisionDeny}
	_, err := svc.Decide(context.Background(), "reg-1", req, reviewerClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestDecideSaveNotesOnDeletedRegistration(t *testing.T) {
	store := &mockApprovalStore{
		regs:      map[string]models.Registration{"reg-1": pendingRegistration("reg-1")},
		decideErr: sql.ErrNoRows,
	}
	svc := NewApprovalService(store, nil, nil, zap.NewNop())

	req := dto.DecideRequest{Decision: dto.DecisionSaveNotes, InternalNotes: "follow up"}
	_, err := svc.Decide(context.Background(), "reg-1", req, reviewerClaims())
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestDecideUnknownDecision(t *testing.T) {
	store := &mockApprovalStore{regs: map[string]models.Registration{"reg-1": pendingRegistration("reg-1")}}
	svc := NewApprovalService(store, nil, nil, zap.NewNop())

	req := dto.DecideRequest{Decision: "escalate"}
	_, err := svc.Decide(context.Background(), "reg-1", req, reviewerClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDecideNotFound(t *testing.T) {
	svc := NewApprovalService(&mockApprovalStore{}, nil, nil, zap.NewNop())

	req := dto.DecideRequest{Decision: dto.DecisionApprove}
	_, err := svc.Decide(context.Background(), "missing", req, reviewerClaims())
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
