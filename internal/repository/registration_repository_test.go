package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/seims-dev/seims-api/internal/models"
)

func newRegistrationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRegistrationRepositoryCreateAssignsAdmissionNumber(t *testing.T) {
	db, mock, cleanup := newRegistrationRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO registrations").
		WithArgs(sqlmock.AnyArg(), "Asha", "Rao", nil, sqlmock.AnyArg(), "female", sqlmock.AnyArg(),
			models.StudentStatusPending, models.RegistrationStatusDraft, models.StepBasicInfo,
			"u1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(42))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE registrations SET admission_number = $1 WHERE id = $2 AND admission_number IS NULL")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	reg := &models.Registration{
		FirstName:          "Asha",
		LastName:           "Rao",
		DateOfBirth:        time.Date(2015, 4, 12, 0, 0, 0, 0, time.UTC),
		Gender:             "female",
		EnrollmentDate:     time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		RegistrationStatus: models.RegistrationStatusDraft,
		RegistrationStep:   models.StepBasicInfo,
		CreatedBy:          "u1",
	}
	require.NoError(t, repo.Create(context.Background(), reg))
	require.NotEmpty(t, reg.ID)
	require.Equal(t, int64(42), reg.Seq)
	require.Regexp(t, `^S-\d{4}-0042$`, reg.AdmissionNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositorySaveStepPayloadMirrorsGrade(t *testing.T) {
	db, mock, cleanup := newRegistrationRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	grade := "Grade 4"
	section := "B"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE registrations SET academic_info = $1, registration_step = GREATEST(registration_step, $2), updated_at = $3, grade = $4, section = $5 WHERE id = $6")).
		WithArgs([]byte(`{"grade_level":"Grade 4"}`), models.StepAcademicInfo, sqlmock.AnyArg(), grade, section, "reg-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveStepPayload(context.Background(), UpdateStepParams{
		ID:      "reg-1",
		Step:    models.StepAcademicInfo,
		Column:  "academic_info",
		Payload: []byte(`{"grade_level":"Grade 4"}`),
		Grade:   &grade,
		Section: &section,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositorySaveStepPayloadRejectsUnknownColumn(t *testing.T) {
	db, _, cleanup := newRegistrationRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	err := repo.SaveStepPayload(context.Background(), UpdateStepParams{ID: "reg-1", Step: 2, Column: "internal_notes"})
	require.Error(t, err)
}

func TestRegistrationRepositorySubmitGuardsApproved(t *testing.T) {
	db, mock, cleanup := newRegistrationRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE registrations SET registration_status = $1, status = $2, registration_step = GREATEST(registration_step, $3), updated_at = $4 WHERE id = $5 AND registration_status <> $6")).
		WithArgs(models.RegistrationStatusPendingReview, models.StudentStatusPending,
			models.StepReviewSubmit, sqlmock.AnyArg(), "reg-1", models.RegistrationStatusApproved).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Submit(context.Background(), SubmitParams{ID: "reg-1"})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositorySubmitClearsReviewFields(t *testing.T) {
	db, mock, cleanup := newRegistrationRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE registrations SET registration_status = $1, status = $2, registration_step = GREATEST(registration_step, $3), updated_at = $4, internal_notes = NULL, parent_notes = NULL, reviewed_by = NULL, reviewed_at = NULL WHERE id = $5 AND registration_status <> $6")).
		WithArgs(models.RegistrationStatusPendingReview, models.StudentStatusPending,
			models.StepReviewSubmit, sqlmock.AnyArg(), "reg-1", models.RegistrationStatusApproved).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Submit(context.Background(), SubmitParams{ID: "reg-1", ClearReview: true})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryDecideGuardsAwaitingReview(t *testing.T) {
	db, mock, cleanup := newRegistrationRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	active := models.StudentStatusActive
	reviewedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE registrations SET internal_notes = $1, parent_notes = $2, reviewed_by = $3, reviewed_at = $4, updated_at = $5, registration_status = $6, status = $7 WHERE id = $8 AND registration_status IN ($9, $10)")).
		WithArgs(nil, nil, "hod-1", reviewedAt, sqlmock.AnyArg(),
			models.RegistrationStatusApproved, active, "reg-1",
			models.RegistrationStatusPendingReview, models.RegistrationStatusOnHold).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Decide(context.Background(), DecideParams{
		ID:            "reg-1",
		NewStatus:     models.RegistrationStatusApproved,
		StudentStatus: &active,
		ReviewedBy:    "hod-1",
		ReviewedAt:    reviewedAt,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryDecideNotesOnlySkipsStatus(t *testing.T) {
	db, mock, cleanup := newRegistrationRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	notes := "follow up"
	reviewedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE registrations SET internal_notes = $1, parent_notes = $2, reviewed_by = $3, reviewed_at = $4, updated_at = $5 WHERE id = $6")).
		WithArgs(&notes, nil, "hod-1", reviewedAt, sqlmock.AnyArg(), "reg-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Decide(context.Background(), DecideParams{
		ID:            "reg-1",
		InternalNotes: &notes,
		ReviewedBy:    "hod-1",
		ReviewedAt:    reviewedAt,
		NotesOnly:     true,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryListWithoutLimitReadsEverything(t *testing.T) {
	db, mock, cleanup := newRegistrationRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC") + "$").
		WithArgs(models.RegistrationStatusPendingReview, models.RegistrationStatusOnHold).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.List(context.Background(), models.RegistrationFilter{
		StatusIn: []models.RegistrationStatus{models.RegistrationStatusPendingReview, models.RegistrationStatusOnHold},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryListPagesWhenLimited(t *testing.T) {
	db, mock, cleanup := newRegistrationRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT 25 OFFSET 50")).
		WithArgs(models.RegistrationStatusApproved).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.List(context.Background(), models.RegistrationFilter{
		StatusIn: []models.RegistrationStatus{models.RegistrationStatusApproved},
		Limit:    25,
		Offset:   50,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
