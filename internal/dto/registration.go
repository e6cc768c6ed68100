package dto

import (
	"time"

	"github.com/seims-dev/seims-api/internal/models"
)

// SaveBasicInfoRequest is the step 1 payload. Saving it creates the
// registration when no ID is supplied.
type SaveBasicInfoRequest struct {
	FirstName      string `json:"first_name" validate:"required"`
	LastName       string `json:"last_name" validate:"required"`
	PreferredName  string `json:"preferred_name"`
	DateOfBirth    string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Gender         string `json:"gender" validate:"required"`
	EnrollmentDate string `json:"enrollment_date" validate:"required,datetime=2006-01-02"`
}

// SaveContactInfoRequest is the step 2 payload.
type SaveContactInfoRequest struct {
	Guardians         []models.Guardian         `json:"guardians" validate:"required,min=1"`
	Address           models.Address            `json:"address"`
	EmergencyContacts []models.EmergencyContact `json:"emergency_contacts"`
}

// SaveAcademicInfoRequest is the step 3 payload.
type SaveAcademicInfoRequest struct {
	GradeLevel          string                     `json:"grade_level" validate:"required"`
	Section             string                     `json:"section"`
	AssignedTeacher     string                     `json:"assigned_teacher"`
	CaseManager         string                     `json:"case_manager"`
	PreviousSchool      string                     `json:"previous_school"`
	SchedulePreferences models.SchedulePreferences `json:"schedule_preferences"`
}

// SaveMedicalInfoRequest is the step 4 payload.
type SaveMedicalInfoRequest struct {
	Conditions  []models.MedicalCondition `json:"conditions"`
	Allergies   []models.Allergy          `json:"allergies"`
	Medications []models.Medication       `json:"medications"`
	Physician   string                    `json:"physician"`
	Notes       string                    `json:"notes"`
}

// SaveLearningProfileRequest is the step 5 payload.
type SaveLearningProfileRequest struct {
	PrimaryDiagnosis string   `json:"primary_diagnosis" validate:"required"`
	ImpactLevel      string   `json:"impact_level"`
	AffectedAreas    []string `json:"affected_areas"`
	Documents        []string `json:"documents"`
	Notes            string   `json:"notes"`
}

// SaveStepResult reports the outcome of a wizard step save.
type SaveStepResult struct {
	RegistrationID  string                    `json:"registration_id"`
	AdmissionNumber string                    `json:"admission_number,omitempty"`
	NewStep         int                       `json:"new_step"`
	Status          models.RegistrationStatus `json:"status"`
}

// SubmitRequest carries the step 6 confirmations.
type SubmitRequest struct {
	ConfirmAccuracy  bool `json:"confirm_accuracy"`
	ConfirmDocuments bool `json:"confirm_documents"`
}

// SubmitResult reports the submission outcome.
type SubmitResult struct {
	RegistrationID string                    `json:"registration_id"`
	Status         models.RegistrationStatus `json:"status"`
	IsResubmission bool                      `json:"is_resubmission"`
}

// RegistrationSummary is one row in a draft or pending list.
type RegistrationSummary struct {
	ID                 string                    `json:"id"`
	AdmissionNumber    string                    `json:"admission_number,omitempty"`
	FirstName          string                    `json:"first_name"`
	LastName           string                    `json:"last_name"`
	RegistrationStatus models.RegistrationStatus `json:"registration_status"`
	RegistrationStep   int                       `json:"registration_step"`
	Badge              string                    `json:"badge"`
	CreatedBy          string                    `json:"created_by"`
	CreatedAt          time.Time                 `json:"created_at"`
	UpdatedAt          time.Time                 `json:"updated_at"`
}

// RegistrationDetail is the full read-only view opened for review.
type RegistrationDetail struct {
	models.Registration
	ContactInfo     *models.ContactInfo     `json:"contact_info,omitempty"`
	AcademicInfo    *models.AcademicInfo    `json:"academic_info,omitempty"`
	MedicalInfo     *models.MedicalInfo     `json:"medical_info,omitempty"`
	LearningProfile *models.LearningProfile `json:"learning_profile,omitempty"`
	Badge           string                  `json:"badge"`
}
