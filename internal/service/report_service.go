package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seims-dev/seims-api/internal/dto"
	"github.com/seims-dev/seims-api/internal/models"
	"github.com/seims-dev/seims-api/internal/permissions"
	"github.com/seims-dev/seims-api/internal/repository"
	appErrors "github.com/seims-dev/seims-api/pkg/errors"
	"github.com/seims-dev/seims-api/pkg/export"
	"github.com/seims-dev/seims-api/pkg/jobs"
	"github.com/seims-dev/seims-api/pkg/storage"
)

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error
	ListByCreator(ctx context.Context, createdBy string, limit int) ([]models.ReportJob, error)
}

type reportDataSource interface {
	GetByID(ctx context.Context, id string) (*models.Registration, error)
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error)
}

// ReportService runs asynchronous roster and registration exports. Files are
// written to local storage and handed out through short-lived signed URLs.
type ReportService struct {
	repo    reportJobStore
	source  reportDataSource
	store   *storage.LocalStorage
	signer  *storage.SignedURLSigner
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	metrics *MetricsService
	logger  *zap.Logger
	queue   *jobs.Queue
}

// ReportServiceParams groups constructor dependencies.
type ReportServiceParams struct {
	Repo    reportJobStore
	Source  reportDataSource
	Store   *storage.LocalStorage
	Signer  *storage.SignedURLSigner
	Metrics *MetricsService
	Logger  *zap.Logger
	Queue   jobs.QueueConfig
}

// NewReportService constructs the service and its worker queue. Call Start
// before enqueueing and Stop on shutdown.
func NewReportService(params ReportServiceParams) *ReportService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ReportService{
		repo:    params.Repo,
		source:  params.Source,
		store:   params.Store,
		signer:  params.Signer,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		metrics: params.Metrics,
		logger:  logger,
	}
	cfg := params.Queue
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	s.queue = jobs.NewQueue("reports", s.process, cfg)
	return s
}

// Start launches the worker pool.
func (s *ReportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker pool.
func (s *ReportService) Stop() {
	s.queue.Stop()
}

// Queue validates the request, persists the job row, and enqueues it.
func (s *ReportService) Queue(ctx context.Context, req dto.CreateReportRequest, actor *models.JWTClaims) (*dto.ReportJobItem, error) {
	if err := s.requireCapability(actor); err != nil {
		return nil, err
	}
	switch req.Type {
	case models.ReportTypeRoster, models.ReportTypeRegistrationSummary:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown report type")
	}
	switch req.Format {
	case models.ReportFormatCSV, models.ReportFormatPDF:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown report format")
	}
	if req.Type == models.ReportTypeRegistrationSummary && req.RegistrationID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "registration_id is required for a registration summary")
	}

	job := &models.ReportJob{
		ID:        uuid.NewString(),
		Type:      req.Type,
		Status:    models.ReportStatusQueued,
		CreatedBy: actor.UserID,
		Params:    models.ReportJobParams{Format: req.Format},
	}
	if req.RegistrationID != "" {
		job.Params.RegistrationID = &req.RegistrationID
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to persist report job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
		s.markFailed(context.Background(), job.ID, "queue is full")
		return nil, appErrors.Clone(appErrors.ErrStorageUnavailable, "report queue is full, try again later")
	}
	return toReportItem(job), nil
}

// Get returns the job state. Only the creator or an administrator may poll.
func (s *ReportService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.ReportJobItem, error) {
	if err := s.requireCapability(actor); err != nil {
		return nil, err
	}
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeNotFound(err, "failed to load report job")
	}
	if job.CreatedBy != actor.UserID && actor.Role != models.RoleAdmin {
		return nil, appErrors.ErrForbidden
	}
	return toReportItem(job), nil
}

// List returns the actor's recent jobs.
func (s *ReportService) List(ctx context.Context, actor *models.JWTClaims) ([]dto.ReportJobItem, error) {
	if err := s.requireCapability(actor); err != nil {
		return nil, err
	}
	found, err := s.repo.ListByCreator(ctx, actor.UserID, 50)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to list report jobs")
	}
	items := make([]dto.ReportJobItem, 0, len(found))
	for i := range found {
		items = append(items, *toReportItem(&found[i]))
	}
	return items, nil
}

// ResolveDownload validates a signed token and returns the stored file path.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (string, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "download link is invalid or expired")
	}
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return "", storeNotFound(err, "failed to load report job")
	}
	if job.Status != models.ReportStatusFinished {
		return "", appErrors.Clone(appErrors.ErrConflict, "report is not ready")
	}
	return s.store.Path(relPath), nil
}

func (s *ReportService) process(ctx context.Context, item jobs.Job) error {
	start := time.Now()
	job, err := s.repo.GetByID(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("load report job %s: %w", item.ID, err)
	}

	processing := models.ReportStatusProcessing
	if err := s.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{Status: &processing}); err != nil {
		s.logger.Warn("failed to mark report job processing", zap.String("job_id", job.ID), zap.Error(err))
	}

	data, title, err := s.buildDataset(ctx, job)
	if err != nil {
		s.markFailed(ctx, job.ID, err.Error())
		return err
	}

	var rendered []byte
	ext := "csv"
	if job.Params.Format == models.ReportFormatPDF {
		rendered, err = s.pdf.Render(data, title)
		ext = "pdf"
	} else {
		rendered, err = s.csv.Render(data)
	}
	if err != nil {
		s.markFailed(ctx, job.ID, err.Error())
		return err
	}

	filename := fmt.Sprintf("%s-%s.%s", job.Type, job.ID, ext)
	relPath, err := s.store.Save(filename, rendered)
	if err != nil {
		s.markFailed(ctx, job.ID, err.Error())
		return err
	}

	token, _, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		s.markFailed(ctx, job.ID, err.Error())
		return err
	}
	resultURL := "/api/v1/reports/download?token=" + token
	finished := models.ReportStatusFinished
	now := time.Now().UTC()
	if err := s.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{
		Status:     &finished,
		ResultURL:  &resultURL,
		FinishedAt: &now,
	}); err != nil {
		return fmt.Errorf("finalize report job %s: %w", job.ID, err)
	}
	if s.metrics != nil {
		s.metrics.ObserveReportJob(string(job.Type), string(job.Params.Format), time.Since(start))
	}
	s.logger.Info("report job finished",
		zap.String("job_id", job.ID),
		zap.String("type", string(job.Type)),
		zap.Duration("took", time.Since(start)))
	return nil
}

func (s *ReportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeRoster:
		return s.rosterDataset(ctx)
	case models.ReportTypeRegistrationSummary:
		if job.Params.RegistrationID == nil {
			return export.Dataset{}, "", fmt.Errorf("registration id missing from job params")
		}
		return s.registrationDataset(ctx, *job.Params.RegistrationID)
	default:
		return export.Dataset{}, "", fmt.Errorf("unknown report type %q", job.Type)
	}
}

func (s *ReportService) rosterDataset(ctx context.Context) (export.Dataset, string, error) {
	regs, err := s.source.List(ctx, models.RegistrationFilter{
		StatusIn: []models.RegistrationStatus{models.RegistrationStatusApproved},
		Limit:    200,
	})
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("load roster: %w", err)
	}
	data := export.Dataset{
		Headers: []string{"Admission Number", "First Name", "Last Name", "Grade", "Section", "Enrollment Date"},
	}
	for _, reg := range regs {
		data.Rows = append(data.Rows, map[string]string{
			"Admission Number": reg.AdmissionNumber,
			"First Name":       reg.FirstName,
			"Last Name":        reg.LastName,
			"Grade":            deref(reg.Grade),
			"Section":          deref(reg.Section),
			"Enrollment Date":  reg.EnrollmentDate.Format(dateLayout),
		})
	}
	return data, "Active Student Roster", nil
}

func (s *ReportService) registrationDataset(ctx context.Context, id string) (export.Dataset, string, error) {
	reg, err := s.source.GetByID(ctx, id)
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("load registration %s: %w", id, err)
	}
	data := export.Dataset{
		Headers: []string{"Field", "Value"},
		Rows: []map[string]string{
			{"Field": "Admission Number", "Value": reg.AdmissionNumber},
			{"Field": "Name", "Value": reg.FirstName + " " + reg.LastName},
			{"Field": "Date of Birth", "Value": reg.DateOfBirth.Format(dateLayout)},
			{"Field": "Status", "Value": reg.Badge()},
			{"Field": "Grade", "Value": deref(reg.Grade)},
			{"Field": "Section", "Value": deref(reg.Section)},
			{"Field": "Enrollment Date", "Value": reg.EnrollmentDate.Format(dateLayout)},
		},
	}
	title := fmt.Sprintf("Registration Summary %s", reg.AdmissionNumber)
	return data, title, nil
}

func (s *ReportService) markFailed(ctx context.Context, jobID, message string) {
	failed := models.ReportStatusFailed
	now := time.Now().UTC()
	if err := s.repo.Update(ctx, jobID, repository.UpdateReportJobParams{
		Status:       &failed,
		ErrorMessage: &message,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Error("failed to mark report job failed", zap.String("job_id", jobID), zap.Error(err))
	}
}

func (s *ReportService) requireCapability(actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if !permissions.Can(actor.Role, permissions.AssessmentReporting) {
		return appErrors.ErrForbidden
	}
	return nil
}

func toReportItem(job *models.ReportJob) *dto.ReportJobItem {
	return &dto.ReportJobItem{
		ID:        job.ID,
		Type:      job.Type,
		Status:    job.Status,
		ResultURL: job.ResultURL,
		Error:     job.ErrorMessage,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
