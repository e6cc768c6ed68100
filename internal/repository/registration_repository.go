package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/seims-dev/seims-api/internal/models"
)

const registrationColumns = `id, seq, admission_number, first_name, last_name, preferred_name,
       date_of_birth, gender, enrollment_date, grade, section, status,
       registration_status, registration_step, contact_info, academic_info,
       medical_info, learning_profile, internal_notes, parent_notes,
       reviewed_by, reviewed_at, created_by, created_at, updated_at`

// RegistrationRepository persists wizard and approval workflow data.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Create inserts a fresh draft and assigns the admission number from the
// row's own sequence inside the same transaction. The number never changes
// afterwards.
func (r *RegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = now
	}
	reg.UpdatedAt = now
	if reg.RegistrationStatus == "" {
		reg.RegistrationStatus = models.RegistrationStatusDraft
	}
	if reg.Status == "" {
		reg.Status = models.StudentStatusPending
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create registration: %w", err)
	}
	const insert = `INSERT INTO registrations
        (id, first_name, last_name, preferred_name, date_of_birth, gender, enrollment_date,
         status, registration_status, registration_step, created_by, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        RETURNING seq`
	if err := tx.GetContext(ctx, &reg.Seq, insert,
		reg.ID, reg.FirstName, reg.LastName, reg.PreferredName, reg.DateOfBirth, reg.Gender,
		reg.EnrollmentDate, reg.Status, reg.RegistrationStatus, reg.RegistrationStep,
		reg.CreatedBy, reg.CreatedAt, reg.UpdatedAt,
	); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create registration: %w", err)
	}

	reg.AdmissionNumber = fmt.Sprintf("S-%d-%04d", reg.CreatedAt.Year(), reg.Seq)
	const assign = `UPDATE registrations SET admission_number = $1 WHERE id = $2 AND admission_number IS NULL`
	if _, err := tx.ExecContext(ctx, assign, reg.AdmissionNumber, reg.ID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("assign admission number: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create registration: %w", err)
	}
	return nil
}

// GetByID fetches a registration by identifier.
func (r *RegistrationRepository) GetByID(ctx context.Context, id string) (*models.Registration, error) {
	query := fmt.Sprintf("SELECT %s FROM registrations WHERE id = $1", registrationColumns)
	var reg models.Registration
	if err := r.db.GetContext(ctx, &reg, query, id); err != nil {
		return nil, err
	}
	return &reg, nil
}

// List returns registrations matching the filter, newest first.
func (r *RegistrationRepository) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(fmt.Sprintf("SELECT %s FROM registrations", registrationColumns))

	conditions := make([]string, 0, 3)
	if filter.CreatedBy != "" {
		args = append(args, filter.CreatedBy)
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", len(args)))
	}
	if len(filter.StatusIn) > 0 {
		placeholders := make([]string, len(filter.StatusIn))
		for i, status := range filter.StatusIn {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("registration_status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf(
			"(LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d OR LOWER(admission_number) LIKE $%d)",
			len(args), len(args), len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	// Callers that page (the roster) set a limit; queue and wizard listings
	// read everything.
	if filter.Limit > 0 {
		limit := filter.Limit
		if limit > 200 {
			limit = 200
		}
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))
	}

	var regs []models.Registration
	if err := r.db.SelectContext(ctx, &regs, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

// UpdateBasicInfo re-saves the step 1 fields on an existing draft. The step
// ratchet never moves backwards.
func (r *RegistrationRepository) UpdateBasicInfo(ctx context.Context, reg *models.Registration) error {
	const query = `UPDATE registrations SET
        first_name = $1, last_name = $2, preferred_name = $3, date_of_birth = $4,
        gender = $5, enrollment_date = $6,
        registration_step = GREATEST(registration_step, $7),
        updated_at = $8
        WHERE id = $9`
	result, err := r.db.ExecContext(ctx, query,
		reg.FirstName, reg.LastName, reg.PreferredName, reg.DateOfBirth,
		reg.Gender, reg.EnrollmentDate, models.StepBasicInfo, time.Now().UTC(), reg.ID)
	if err != nil {
		return fmt.Errorf("update basic info: %w", err)
	}
	return requireRowsAffected(result)
}

// UpdateStepParams groups the columns written by a step 2-5 save.
type UpdateStepParams struct {
	ID      string
	Step    int
	Column  string
	Payload []byte
	// Grade/Section are mirrored from the academic payload on step 3 only.
	Grade   *string
	Section *string
}

var stepPayloadColumns = map[string]struct{}{
	"contact_info":     {},
	"academic_info":    {},
	"medical_info":     {},
	"learning_profile": {},
}

// SaveStepPayload replaces one step's JSON block wholesale and advances the
// step ratchet in a single statement.
func (r *RegistrationRepository) SaveStepPayload(ctx context.Context, params UpdateStepParams) error {
	if _, ok := stepPayloadColumns[params.Column]; !ok {
		return fmt.Errorf("unknown step payload column: %s", params.Column)
	}
	setParts := []string{
		fmt.Sprintf("%s = $1", params.Column),
		"registration_step = GREATEST(registration_step, $2)",
		"updated_at = $3",
	}
	args := []interface{}{params.Payload, params.Step, time.Now().UTC()}
	if params.Grade != nil {
		args = append(args, *params.Grade)
		setParts = append(setParts, fmt.Sprintf("grade = $%d", len(args)))
	}
	if params.Section != nil {
		args = append(args, *params.Section)
		setParts = append(setParts, fmt.Sprintf("section = $%d", len(args)))
	}
	args = append(args, params.ID)
	query := fmt.Sprintf("UPDATE registrations SET %s WHERE id = $%d", strings.Join(setParts, ", "), len(args))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save step payload: %w", err)
	}
	return requireRowsAffected(result)
}

// SubmitParams groups the columns written by a submission.
type SubmitParams struct {
	ID string
	// ClearReview nulls the reviewer bookkeeping on resubmission.
	ClearReview bool
}

// Submit flips the record to pending review. The guard on registration_status
// keeps a terminal approved record unmodified even under a racing decide.
func (r *RegistrationRepository) Submit(ctx context.Context, params SubmitParams) error {
	setParts := []string{
		"registration_status = $1",
		"status = $2",
		"registration_step = GREATEST(registration_step, $3)",
		"updated_at = $4",
	}
	if params.ClearReview {
		setParts = append(setParts,
			"internal_notes = NULL", "parent_notes = NULL",
			"reviewed_by = NULL", "reviewed_at = NULL")
	}
	query := fmt.Sprintf(`UPDATE registrations SET %s WHERE id = $5 AND registration_status <> $6`,
		strings.Join(setParts, ", "))
	result, err := r.db.ExecContext(ctx, query,
		models.RegistrationStatusPendingReview, models.StudentStatusPending,
		models.StepReviewSubmit, time.Now().UTC(), params.ID, models.RegistrationStatusApproved)
	if err != nil {
		return fmt.Errorf("submit registration: %w", err)
	}
	return requireRowsAffected(result)
}

// DecideParams groups the columns written by a reviewer decision.
type DecideParams struct {
	ID            string
	NewStatus     models.RegistrationStatus
	StudentStatus *models.StudentStatus
	InternalNotes *string
	ParentNotes   *string
	ReviewedBy    string
	ReviewedAt    time.Time
	// NotesOnly leaves registration_status untouched.
	NotesOnly bool
}

// Decide persists the review outcome. Status-changing decisions are guarded
// so only a record still awaiting review is moved.
func (r *RegistrationRepository) Decide(ctx context.Context, params DecideParams) error {
	setParts := []string{
		"internal_notes = $1",
		"parent_notes = $2",
		"reviewed_by = $3",
		"reviewed_at = $4",
		"updated_at = $5",
	}
	args := []interface{}{
		params.InternalNotes, params.ParentNotes, params.ReviewedBy, params.ReviewedAt, time.Now().UTC(),
	}
	if !params.NotesOnly {
		args = append(args, params.NewStatus)
		setParts = append(setParts, fmt.Sprintf("registration_status = $%d", len(args)))
		if params.StudentStatus != nil {
			args = append(args, *params.StudentStatus)
			setParts = append(setParts, fmt.Sprintf("status = $%d", len(args)))
		}
	}
	args = append(args, params.ID)
	query := fmt.Sprintf("UPDATE registrations SET %s WHERE id = $%d", strings.Join(setParts, ", "), len(args))
	if !params.NotesOnly {
		args = append(args, models.RegistrationStatusPendingReview)
		args = append(args, models.RegistrationStatusOnHold)
		query += fmt.Sprintf(" AND registration_status IN ($%d, $%d)", len(args)-1, len(args))
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("decide registration: %w", err)
	}
	return requireRowsAffected(result)
}

// CountByRegistrationStatus returns how many registrations sit in each of the
// provided workflow states.
func (r *RegistrationRepository) CountByRegistrationStatus(ctx context.Context, statuses ...models.RegistrationStatus) (int, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	placeholders := make([]string, len(statuses))
	args := make([]interface{}, len(statuses))
	for i, status := range statuses {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = status
	}
	query := fmt.Sprintf("SELECT COUNT(*) FROM registrations WHERE registration_status IN (%s)", strings.Join(placeholders, ","))
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}

// CountActiveStudents returns the current active roster size.
func (r *RegistrationRepository) CountActiveStudents(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM registrations WHERE status = $1", models.StudentStatusActive); err != nil {
		return 0, fmt.Errorf("count active students: %w", err)
	}
	return count, nil
}

func requireRowsAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
