package service

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seims-dev/seims-api/internal/dto"
	"github.com/seims-dev/seims-api/internal/models"
	"github.com/seims-dev/seims-api/internal/repository"
	appErrors "github.com/seims-dev/seims-api/pkg/errors"
	"github.com/seims-dev/seims-api/pkg/jobs"
	"github.com/seims-dev/seims-api/pkg/storage"
)

type mockReportJobStore struct {
	mu   sync.Mutex
	jobs map[string]models.ReportJob
}

func (m *mockReportJobStore) Create(ctx context.Context, job *models.ReportJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.jobs == nil {
		m.jobs = make(map[string]models.ReportJob)
	}
	job.CreatedAt = time.Now().UTC()
	m.jobs[job.ID] = *job
	return nil
}

func (m *mockReportJobStore) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[id]; ok {
		return &job, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockReportJobStore) Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	m.jobs[id] = job
	return nil
}

func (m *mockReportJobStore) ListByCreator(ctx context.Context, createdBy string, limit int) ([]models.ReportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ReportJob
	for _, job := range m.jobs {
		if job.CreatedBy == createdBy {
			out = append(out, job)
		}
	}
	return out, nil
}

func newTestReportService(t *testing.T, repo *mockReportJobStore, source reportDataSource) *ReportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewReportService(ReportServiceParams{
		Repo:   repo,
		Source: source,
		Store:  store,
		Signer: storage.NewSignedURLSigner("report-secret", 15*time.Minute),
		Logger: zap.NewNop(),
		Queue:  jobs.QueueConfig{Workers: 1},
	})
}

func grade(v string) *string { return &v }

func reportSource() *mockRegistrationStore {
	return &mockRegistrationStore{regs: map[string]models.Registration{
		"reg-1": {
			ID: "reg-1", AdmissionNumber: "S-2026-0001",
			FirstName: "Asha", LastName: "Rao",
			Grade: grade("Grade 4"), Section: grade("B"),
			RegistrationStatus: models.RegistrationStatusApproved,
			EnrollmentDate:     time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		},
	}}
}

func TestReportQueueValidatesType(t *testing.T) {
	svc := newTestReportService(t, &mockReportJobStore{}, reportSource())

	req := dto.CreateReportRequest{Type: "attendance", Format: models.ReportFormatCSV}
	_, err := svc.Queue(context.Background(), req, psychologistClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReportQueueRequiresRegistrationID(t *testing.T) {
	svc := newTestReportService(t, &mockReportJobStore{}, reportSource())

	req := dto.CreateReportRequest{Type: models.ReportTypeRegistrationSummary, Format: models.ReportFormatPDF}
	_, err := svc.Queue(context.Background(), req, psychologistClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReportQueueAndProcessRosterCSV(t *testing.T) {
	repo := &mockReportJobStore{}
	svc := newTestReportService(t, repo, reportSource())
	svc.Start(context.Background())
	defer svc.Stop()

	item, err := svc.Queue(context.Background(), dto.CreateReportRequest{
		Type:   models.ReportTypeRoster,
		Format: models.ReportFormatCSV,
	}, psychologistClaims())
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, item.Status)

	require.Eventually(t, func() bool {
		job, err := repo.GetByID(context.Background(), item.ID)
		return err == nil && job.Status == models.ReportStatusFinished
	}, 5*time.Second, 20*time.Millisecond)

	job, err := repo.GetByID(context.Background(), item.ID)
	require.NoError(t, err)
	require.NotNil(t, job.ResultURL)
	require.True(t, strings.HasPrefix(*job.ResultURL, "/api/v1/reports/download?token="))

	token := strings.TrimPrefix(*job.ResultURL, "/api/v1/reports/download?token=")
	path, err := svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Admission Number")
	assert.Contains(t, string(content), "S-2026-0001")
}

func TestReportProcessRegistrationSummaryPDF(t *testing.T) {
	regID := "reg-1"
	repo := &mockReportJobStore{jobs: map[string]models.ReportJob{
		"job-1": {
			ID: "job-1", Type: models.ReportTypeRegistrationSummary,
			Status: models.ReportStatusQueued, CreatedBy: "psy-1",
			Params: models.ReportJobParams{Format: models.ReportFormatPDF, RegistrationID: &regID},
		},
	}}
	svc := newTestReportService(t, repo, reportSource())

	err := svc.process(context.Background(), jobs.Job{ID: "job-1", Type: string(models.ReportTypeRegistrationSummary)})
	require.NoError(t, err)

	job, err := repo.GetByID(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFinished, job.Status)
	require.NotNil(t, job.ResultURL)
	require.NotNil(t, job.FinishedAt)
}

func TestReportProcessMarksFailureOnMissingRegistration(t *testing.T) {
	regID := "missing"
	repo := &mockReportJobStore{jobs: map[string]models.ReportJob{
		"job-1": {
			ID: "job-1", Type: models.ReportTypeRegistrationSummary,
			Status: models.ReportStatusQueued, CreatedBy: "psy-1",
			Params: models.ReportJobParams{Format: models.ReportFormatCSV, RegistrationID: &regID},
		},
	}}
	svc := newTestReportService(t, repo, reportSource())

	err := svc.process(context.Background(), jobs.Job{ID: "job-1"})
	require.Error(t, err)

	job, err := repo.GetByID(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
}

func TestReportGetRestrictedToCreatorOrAdmin(t *testing.T) {
	repo := &mockReportJobStore{jobs: map[string]models.ReportJob{
		"job-1": {ID: "job-1", Type: models.ReportTypeRoster, Status: models.ReportStatusQueued, CreatedBy: "psy-1"},
	}}
	svc := newTestReportService(t, repo, reportSource())

	other := &models.JWTClaims{UserID: "psy-2", Role: models.RolePsychologist}
	_, err := svc.Get(context.Background(), "job-1", other)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	admin := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	item, err := svc.Get(context.Background(), "job-1", admin)
	require.NoError(t, err)
	assert.Equal(t, "job-1", item.ID)
}

func TestReportDownloadRejectsForgedToken(t *testing.T) {
	svc := newTestReportService(t, &mockReportJobStore{}, reportSource())

	_, err := svc.ResolveDownload(context.Background(), "job.123.cGF0aA.deadbeef")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
