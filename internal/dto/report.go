package dto

import "github.com/seims-dev/seims-api/internal/models"

// CreateReportRequest queues an asynchronous export job.
type CreateReportRequest struct {
	Type           models.ReportType   `json:"type" validate:"required"`
	Format         models.ReportFormat `json:"format" validate:"required"`
	RegistrationID string              `json:"registration_id"`
}

// ReportJobItem describes a queued or finished export.
type ReportJobItem struct {
	ID        string              `json:"id"`
	Type      models.ReportType   `json:"type"`
	Status    models.ReportStatus `json:"status"`
	ResultURL *string             `json:"result_url,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
