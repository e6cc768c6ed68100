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

const sessionLogColumns = `id, student_id, teacher_id, iep_id, session_date, start_time, end_time, session_type,
       location, goals_addressed, observations, student_engagement, challenges, next_steps, created_at`

// SessionLogRepository persists teaching and therapy session records.
type SessionLogRepository struct {
	db *sqlx.DB
}

// NewSessionLogRepository constructs the repository.
func NewSessionLogRepository(db *sqlx.DB) *SessionLogRepository {
	return &SessionLogRepository{db: db}
}

// Create inserts a new session log.
func (r *SessionLogRepository) Create(ctx context.Context, log *models.SessionLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO session_logs
        (id, student_id, teacher_id, iep_id, session_date, start_time, end_time, session_type,
         location, goals_addressed, observations, student_engagement, challenges, next_steps, created_at)
        VALUES (:id, :student_id, :teacher_id, :iep_id, :session_date, :start_time, :end_time, :session_type,
         :location, :goals_addressed, :observations, :student_engagement, :challenges, :next_steps, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create session log: %w", err)
	}
	return nil
}

// GetByID fetches one session log.
func (r *SessionLogRepository) GetByID(ctx context.Context, id string) (*models.SessionLog, error) {
	query := fmt.Sprintf("SELECT %s FROM session_logs WHERE id = $1", sessionLogColumns)
	var log models.SessionLog
	if err := r.db.GetContext(ctx, &log, query, id); err != nil {
		return nil, err
	}
	return &log, nil
}

// List returns session logs matching the filter, newest first.
func (r *SessionLogRepository) List(ctx context.Context, filter models.SessionLogFilter) ([]models.SessionLog, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(fmt.Sprintf("SELECT %s FROM session_logs", sessionLogColumns))

	conditions := make([]string, 0, 4)
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("session_date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("session_date <= $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY session_date DESC, start_time DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var logs []models.SessionLog
	if err := r.db.SelectContext(ctx, &logs, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list session logs: %w", err)
	}
	return logs, nil
}

// CountSince returns the number of sessions on or after the given date.
func (r *SessionLogRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM session_logs WHERE session_date >= $1", since); err != nil {
		return 0, fmt.Errorf("count session logs: %w", err)
	}
	return count, nil
}
