package service

import (
	"context"
	"database/sql"
	"encoding/json"
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

type mockAssessmentStore struct {
	assessments map[string]models.Assessment
	finalized   map[string]string
}

func (m *mockAssessmentStore) Create(ctx context.Context, assessment *models.Assessment) error {
	if m.assessments == nil {
		m.assessments = make(map[string]models.Assessment)
	}
	assessment.ID = fmt.Sprintf("asm-%d", len(m.assessments)+1)
	m.assessments[assessment.ID] = *assessment
	return nil
}

func (m *mockAssessmentStore) GetByID(ctx context.Context, id string) (*models.Assessment, error) {
	if assessment, ok := m.assessments[id]; ok {
		return &assessment, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAssessmentStore) List(ctx context.Context, filter models.AssessmentFilter) ([]models.Assessment, error) {
	var out []models.Assessment
	for _, assessment := range m.assessments {
		if filter.StudentID != "" && assessment.StudentID != filter.StudentID {
			continue
		}
		out = append(out, assessment)
	}
	return out, nil
}

func (m *mockAssessmentStore) Finalize(ctx context.Context, id string, reportPath string) error {
	assessment, ok := m.assessments[id]
	if !ok {
		return sql.ErrNoRows
	}
	assessment.Status = models.AssessmentStatusFinalized
	m.assessments[id] = assessment
	if m.finalized == nil {
		m.finalized = make(map[string]string)
	}
	m.finalized[id] = reportPath
	return nil
}

func psychologistClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "psy-1", Role: models.RolePsychologist}
}

func newAssessmentService(store *mockAssessmentStore) *AssessmentService {
	return NewAssessmentService(store, enrolledLookup(), validator.New(), zap.NewNop())
}

func TestAssessmentCreateDraft(t *testing.T) {
	store := &mockAssessmentStore{}
	svc := newAssessmentService(store)

	req := dto.CreateAssessmentRequest{
		StudentID:      "stu-1",
		Quarter:        "Q1",
		AssessmentDate: "2026-08-15",
		AssessmentType: "quarterly_progress",
		Scores:         json.RawMessage(`{"reading": 72}`),
	}
	assessment, err := svc.Create(context.Background(), req, psychologistClaims())
	require.NoError(t, err)

	assert.Equal(t, models.AssessmentStatusDraft, assessment.Status)
	assert.Equal(t, "psy-1", assessment.ConductedBy)
	assert.Nil(t, assessment.ReportPath)
}

func TestAssessmentCreateRequiresEnrolledStudent(t *testing.T) {
	svc := newAssessmentService(&mockAssessmentStore{})

	req := dto.CreateAssessmentRequest{StudentID: "stu-2", Quarter: "Q1", AssessmentDate: "2026-08-15", AssessmentType: "quarterly_progress"}
	_, err := svc.Create(context.Background(), req, psychologistClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestAssessmentFinalizeLocksRecord(t *testing.T) {
	store := &mockAssessmentStore{assessments: map[string]models.Assessment{
		"asm-1": {ID: "asm-1", StudentID: "stu-1", Status: models.AssessmentStatusDraft},
	}}
	svc := newAssessmentService(store)

	err := svc.Finalize(context.Background(), "asm-1", "/reports/asm-1.pdf", psychologistClaims())
	require.NoError(t, err)
	assert.Equal(t, "/reports/asm-1.pdf", store.finalized["asm-1"])

	err = svc.Finalize(context.Background(), "asm-1", "/reports/asm-1-v2.pdf", psychologistClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAssessmentForbiddenWithoutReportingCapability(t *testing.T) {
	svc := newAssessmentService(&mockAssessmentStore{})

	therapist := &models.JWTClaims{UserID: "th-1", Role: models.RoleTherapist}
	_, err := svc.List(context.Background(), models.AssessmentFilter{}, therapist)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
