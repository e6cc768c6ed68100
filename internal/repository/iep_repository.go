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

const iepColumns = `id, student_id, academic_year, quarter, status, effective_date, review_date, version_number, created_by, created_at, updated_at`

// IEPRepository persists IEP documents and their goals.
type IEPRepository struct {
	db *sqlx.DB
}

// NewIEPRepository constructs the repository.
func NewIEPRepository(db *sqlx.DB) *IEPRepository {
	return &IEPRepository{db: db}
}

// Create inserts a new IEP document.
func (r *IEPRepository) Create(ctx context.Context, iep *models.IEP) error {
	if iep.ID == "" {
		iep.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if iep.CreatedAt.IsZero() {
		iep.CreatedAt = now
	}
	iep.UpdatedAt = now
	if iep.VersionNumber <= 0 {
		iep.VersionNumber = 1
	}
	if iep.Status == "" {
		iep.Status = models.IEPStatusDraft
	}
	const query = `INSERT INTO ieps (id, student_id, academic_year, quarter, status, effective_date, review_date, version_number, created_by, created_at, updated_at)
        VALUES (:id, :student_id, :academic_year, :quarter, :status, :effective_date, :review_date, :version_number, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, iep); err != nil {
		return fmt.Errorf("create iep: %w", err)
	}
	return nil
}

// GetByID fetches one IEP document.
func (r *IEPRepository) GetByID(ctx context.Context, id string) (*models.IEP, error) {
	query := fmt.Sprintf("SELECT %s FROM ieps WHERE id = $1", iepColumns)
	var iep models.IEP
	if err := r.db.GetContext(ctx, &iep, query, id); err != nil {
		return nil, err
	}
	return &iep, nil
}

// List returns IEPs matching the filter, newest first.
func (r *IEPRepository) List(ctx context.Context, filter models.IEPFilter) ([]models.IEP, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 3)
	builder.WriteString(fmt.Sprintf("SELECT %s FROM ieps", iepColumns))

	conditions := make([]string, 0, 3)
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.AcademicYear != "" {
		args = append(args, filter.AcademicYear)
		conditions = append(conditions, fmt.Sprintf("academic_year = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var ieps []models.IEP
	if err := r.db.SelectContext(ctx, &ieps, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list ieps: %w", err)
	}
	return ieps, nil
}

// UpdateStatus transitions an IEP document's lifecycle state.
func (r *IEPRepository) UpdateStatus(ctx context.Context, id string, status models.IEPStatus) error {
	const query = `UPDATE ieps SET status = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update iep status: %w", err)
	}
	return requireRowsAffected(result)
}

// CreateGoal attaches a goal to an IEP.
func (r *IEPRepository) CreateGoal(ctx context.Context, goal *models.Goal) error {
	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}
	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = time.Now().UTC()
	}
	if goal.Status == "" {
		goal.Status = models.GoalStatusActive
	}
	const query = `INSERT INTO goals (id, iep_id, category, description, baseline, target, measurement_method, success_criteria, time_frame, assigned_to, status, created_at)
        VALUES (:id, :iep_id, :category, :description, :baseline, :target, :measurement_method, :success_criteria, :time_frame, :assigned_to, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, goal); err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

// ListGoals returns all goals on one IEP.
func (r *IEPRepository) ListGoals(ctx context.Context, iepID string) ([]models.Goal, error) {
	const query = `SELECT id, iep_id, category, description, baseline, target, measurement_method, success_criteria, time_frame, assigned_to, status, created_at
        FROM goals WHERE iep_id = $1 ORDER BY created_at ASC`
	var goals []models.Goal
	if err := r.db.SelectContext(ctx, &goals, query, iepID); err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

// UpdateGoalStatus transitions one goal's progress state.
func (r *IEPRepository) UpdateGoalStatus(ctx context.Context, goalID string, status models.GoalStatus) error {
	const query = `UPDATE goals SET status = $2 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, goalID, status)
	if err != nil {
		return fmt.Errorf("update goal status: %w", err)
	}
	return requireRowsAffected(result)
}

// CountByStatus returns how many IEPs sit in the given state.
func (r *IEPRepository) CountByStatus(ctx context.Context, status models.IEPStatus) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM ieps WHERE status = $1", status); err != nil {
		return 0, fmt.Errorf("count ieps: %w", err)
	}
	return count, nil
}
