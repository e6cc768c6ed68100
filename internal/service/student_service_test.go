package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seims-dev/seims-api/internal/models"
	appErrors "github.com/seims-dev/seims-api/pkg/errors"
)

func rosterStore() *mockRegistrationStore {
	return &mockRegistrationStore{regs: map[string]models.Registration{
		"reg-1": {ID: "reg-1", AdmissionNumber: "S-2026-0001", RegistrationStatus: models.RegistrationStatusApproved, Status: models.StudentStatusActive},
		"reg-2": {ID: "reg-2", RegistrationStatus: models.RegistrationStatusPendingReview},
	}}
}

func TestStudentListOnlyApproved(t *testing.T) {
	svc := NewStudentService(rosterStore(), zap.NewNop())

	students, err := svc.List(context.Background(), "", 50, 0, educatorClaims("u1"))
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "reg-1", students[0].ID)
	assert.Equal(t, "Approved", students[0].Badge)
}

func TestStudentGetHidesUnapproved(t *testing.T) {
	svc := NewStudentService(rosterStore(), zap.NewNop())

	_, err := svc.Get(context.Background(), "reg-2", educatorClaims("u1"))
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestStudentRosterOpenToSessionLoggers(t *testing.T) {
	svc := NewStudentService(rosterStore(), zap.NewNop())

	therapist := &models.JWTClaims{UserID: "t1", Role: models.RoleTherapist}
	students, err := svc.List(context.Background(), "", 50, 0, therapist)
	require.NoError(t, err)
	assert.Len(t, students, 1)
}

func TestStudentRosterClosedToParents(t *testing.T) {
	svc := NewStudentService(rosterStore(), zap.NewNop())

	parent := &models.JWTClaims{UserID: "p1", Role: models.RoleParent}
	_, err := svc.List(context.Background(), "", 50, 0, parent)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
