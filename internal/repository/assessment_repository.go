package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/seims-dev/seims-api/internal/models"
)

const assessmentColumns = `id, student_id, quarter, assessment_date, assessment_type, scores, report_path, conducted_by, status, created_at`

// AssessmentRepository persists quarterly assessment records.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository constructs the repository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// Create inserts a new assessment.
func (r *AssessmentRepository) Create(ctx context.Context, assessment *models.Assessment) error {
	if assessment.ID == "" {
		assessment.ID = uuid.NewString()
	}
	if assessment.CreatedAt.IsZero() {
		assessment.CreatedAt = time.Now().UTC()
	}
	if assessment.Status == "" {
		assessment.Status = models.AssessmentStatusDraft
	}
	const query = `INSERT INTO assessments (id, student_id, quarter, assessment_date, assessment_type, scores, report_path, conducted_by, status, created_at)
        VALUES (:id, :student_id, :quarter, :assessment_date, :assessment_type, :scores, :report_path, :conducted_by, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assessment); err != nil {
		return fmt.Errorf("create assessment: %w", err)
	}
	return nil
}

// GetByID fetches one assessment.
func (r *AssessmentRepository) GetByID(ctx context.Context, id string) (*models.Assessment, error) {
	query := fmt.Sprintf("SELECT %s FROM assessments WHERE id = $1", assessmentColumns)
	var assessment models.Assessment
	if err := r.db.GetContext(ctx, &assessment, query, id); err != nil {
		return nil, err
	}
	return &assessment, nil
}

// List returns assessments matching the filter, newest first.
func (r *AssessmentRepository) List(ctx context.Context, filter models.AssessmentFilter) ([]models.Assessment, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 2)
	builder.WriteString(fmt.Sprintf("SELECT %s FROM assessments", assessmentColumns))

	conditions := make([]string, 0, 2)
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.Quarter != "" {
		args = append(args, filter.Quarter)
		conditions = append(conditions, fmt.Sprintf("quarter = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY assessment_date DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var assessments []models.Assessment
	if err := r.db.SelectContext(ctx, &assessments, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return assessments, nil
}

// Finalize marks the assessment report complete and records its file path.
func (r *AssessmentRepository) Finalize(ctx context.Context, id string, reportPath string) error {
	const query = `UPDATE assessments SET status = $2, report_path = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, models.AssessmentStatusFinalized, reportPath)
	if err != nil {
		return fmt.Errorf("finalize assessment: %w", err)
	}
	return requireRowsAffected(result)
}
