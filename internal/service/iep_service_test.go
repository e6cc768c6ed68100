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

	"github.com/seims-dev/seims-api/internal/dto"
	"github.com/seims-dev/seims-api/internal/models"
	appErrors "github.com/seims-dev/seims-api/pkg/errors"
)

type mockIEPStore struct {
	ieps          map[string]models.IEP
	goals         map[string][]models.Goal
	statusUpdates map[string]models.IEPStatus
	goalUpdates   map[string]models.GoalStatus
}

func (m *mockIEPStore) Create(ctx context.Context, iep *models.IEP) error {
	if m.ieps == nil {
		m.ieps = make(map[string]models.IEP)
	}
	iep.ID = fmt.Sprintf("iep-%d", len(m.ieps)+1)
	m.ieps[iep.ID] = *iep
	return nil
}

func (m *mockIEPStore) GetByID(ctx context.Context, id string) (*models.IEP, error) {
	if iep, ok := m.ieps[id]; ok {
		return &iep, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockIEPStore) List(ctx context.Context, filter models.IEPFilter) ([]models.IEP, error) {
	var out []models.IEP
	for _, iep := range m.ieps {
		if filter.StudentID != "" && iep.StudentID != filter.StudentID {
			continue
		}
		if len(filter.Status) > 0 {
			matched := false
			for _, status := range filter.Status {
				if iep.Status == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, iep)
	}
	return out, nil
}

func (m *mockIEPStore) UpdateStatus(ctx context.Context, id string, status models.IEPStatus) error {
	iep, ok := m.ieps[id]
	if !ok {
		return sql.ErrNoRows
	}
	iep.Status = status
	m.ieps[id] = iep
	if m.statusUpdates == nil {
		m.statusUpdates = make(map[string]models.IEPStatus)
	}
	m.statusUpdates[id] = status
	return nil
}

func (m *mockIEPStore) CreateGoal(ctx context.Context, goal *models.Goal) error {
	if m.goals == nil {
		m.goals = make(map[string][]models.Goal)
	}
	goal.ID = fmt.Sprintf("goal-%d", len(m.goals[goal.IEPID])+1)
	m.goals[goal.IEPID] = append(m.goals[goal.IEPID], *goal)
	return nil
}

func (m *mockIEPStore) ListGoals(ctx context.Context, iepID string) ([]models.Goal, error) {
	return m.goals[iepID], nil
}

func (m *mockIEPStore) UpdateGoalStatus(ctx context.Context, goalID string, status models.GoalStatus) error {
	if m.goalUpdates == nil {
		m.goalUpdates = make(map[string]models.GoalStatus)
	}
	m.goalUpdates[goalID] = status
	return nil
}

type mockStudentLookup struct {
	regs map[string]models.Registration
}

func (m *mockStudentLookup) GetByID(ctx context.Context, id string) (*models.Registration, error) {
	if reg, ok := m.regs[id]; ok {
		return &reg, nil
	}
	return nil, sql.ErrNoRows
}

func enrolledLookup() *mockStudentLookup {
	return &mockStudentLookup{regs: map[string]models.Registration{
		"stu-1": {ID: "stu-1", RegistrationStatus: models.RegistrationStatusApproved, Status: models.StudentStatusActive},
		"stu-2": {ID: "stu-2", RegistrationStatus: models.RegistrationStatusPendingReview},
	}}
}

func newIEPService(store *mockIEPStore) *IEPService {
	return NewIEPService(store, enrolledLookup(), validator.New(), zap.NewNop())
}

func TestIEPCreateForEnrolledStudent(t *testing.T) {
	store := &mockIEPStore{}
	svc := newIEPService(store)

	effective := "2026-09-01"
	req := dto.CreateIEPRequest{StudentID: "stu-1", AcademicYear: "2026-2027", Quarter: "Q1", EffectiveDate: &effective}
	iep, err := svc.Create(context.Background(), req, educatorClaims("u1"))
	require.NoError(t, err)

	assert.Equal(t, models.IEPStatusDraft, iep.Status)
	assert.Equal(t, 1, iep.VersionNumber)
	assert.Equal(t, "u1", iep.CreatedBy)
	require.NotNil(t, iep.Quarter)
	assert.Equal(t, "Q1", *iep.Quarter)
	require.NotNil(t, iep.EffectiveDate)
}

func TestIEPCreateRequiresEnrolledStudent(t *testing.T) {
	svc := newIEPService(&mockIEPStore{})

	req := dto.CreateIEPRequest{StudentID: "stu-2", AcademicYear: "2026-2027"}
	_, err := svc.Create(context.Background(), req, educatorClaims("u1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestIEPCreateUnknownStudent(t *testing.T) {
	svc := newIEPService(&mockIEPStore{})

	req := dto.CreateIEPRequest{StudentID: "missing", AcademicYear: "2026-2027"}
	_, err := svc.Create(context.Background(), req, educatorClaims("u1"))
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestIEPActivateArchivesPreviousActive(t *testing.T) {
	store := &mockIEPStore{ieps: map[string]models.IEP{
		"iep-1": {ID: "iep-1", StudentID: "stu-1", Status: models.IEPStatusActive},
		"iep-2": {ID: "iep-2", StudentID: "stu-1", Status: models.IEPStatusDraft},
	}}
	svc := newIEPService(store)

	iep, err := svc.Activate(context.Background(), "iep-2", educatorClaims("u1"))
	require.NoError(t, err)

	assert.Equal(t, models.IEPStatusActive, iep.Status)
	assert.Equal(t, models.IEPStatusArchived, store.statusUpdates["iep-1"])
	assert.Equal(t, models.IEPStatusActive, store.statusUpdates["iep-2"])
}

func TestIEPActivateRejectsNonDraft(t *testing.T) {
	store := &mockIEPStore{ieps: map[string]models.IEP{
		"iep-1": {ID: "iep-1", StudentID: "stu-1", Status: models.IEPStatusArchived},
	}}
	svc := newIEPService(store)

	_, err := svc.Activate(context.Background(), "iep-1", educatorClaims("u1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAddGoalToArchivedIEPFails(t *testing.T) {
	store := &mockIEPStore{ieps: map[string]models.IEP{
		"iep-1": {ID: "iep-1", StudentID: "stu-1", Status: models.IEPStatusArchived},
	}}
	svc := newIEPService(store)

	req := dto.CreateGoalRequest{Category: "communication", Description: "d", Target: "t", TimeFrame: "quarterly"}
	_, err := svc.AddGoal(context.Background(), "iep-1", req, educatorClaims("u1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAddGoalDefaultsToActive(t *testing.T) {
	store := &mockIEPStore{ieps: map[string]models.IEP{
		"iep-1": {ID: "iep-1", StudentID: "stu-1", Status: models.IEPStatusDraft},
	}}
	svc := newIEPService(store)

	req := dto.CreateGoalRequest{
		Category:    "motor_skills",
		Description: "improve fine motor control",
		Baseline:    "holds pencil for 30 seconds",
		Target:      "writes name independently",
		TimeFrame:   "quarterly",
	}
	goal, err := svc.AddGoal(context.Background(), "iep-1", req, educatorClaims("u1"))
	require.NoError(t, err)

	assert.Equal(t, models.GoalStatusActive, goal.Status)
	require.NotNil(t, goal.Baseline)
	assert.Equal(t, "holds pencil for 30 seconds", *goal.Baseline)
	assert.Nil(t, goal.AssignedTo)
}

func TestUpdateGoalStatusValidatesValue(t *testing.T) {
	store := &mockIEPStore{}
	svc := newIEPService(store)

	err := svc.UpdateGoalStatus(context.Background(), "goal-1", dto.UpdateGoalStatusRequest{Status: "paused"}, educatorClaims("u1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	err = svc.UpdateGoalStatus(context.Background(), "goal-1", dto.UpdateGoalStatusRequest{Status: "achieved"}, educatorClaims("u1"))
	require.NoError(t, err)
	assert.Equal(t, models.GoalStatusAchieved, store.goalUpdates["goal-1"])
}

func TestIEPRequiresManagementCapability(t *testing.T) {
	svc := newIEPService(&mockIEPStore{})

	actor := &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher}
	_, err := svc.List(context.Background(), models.IEPFilter{}, actor)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
