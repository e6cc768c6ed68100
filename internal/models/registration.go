package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// RegistrationStatus captures where a registration sits in the approval workflow.
type RegistrationStatus string

const (
	RegistrationStatusDraft         RegistrationStatus = "draft"
	RegistrationStatusPendingReview RegistrationStatus = "pending_review"
	RegistrationStatusApproved      RegistrationStatus = "approved"
	RegistrationStatusDenied        RegistrationStatus = "denied"
	RegistrationStatusOnHold        RegistrationStatus = "on_hold"
)

// StudentStatus is the roster-facing status mirrored onto the record.
type StudentStatus string

const (
	StudentStatusActive   StudentStatus = "active"
	StudentStatusPending  StudentStatus = "pending"
	StudentStatusInactive StudentStatus = "inactive"
)

// Wizard step numbers. RegistrationStep on a record is the highest step saved
// so far and only ever moves forward.
const (
	StepBasicInfo       = 1
	StepContactInfo     = 2
	StepAcademicInfo    = 3
	StepMedicalInfo     = 4
	StepLearningProfile = 5
	StepReviewSubmit    = 6
)

// Registration is the evolving student record built by the six-step wizard
// and routed through the approval workflow.
type Registration struct {
	ID              string `db:"id" json:"id"`
	Seq             int64  `db:"seq" json:"-"`
	AdmissionNumber string `db:"admission_number" json:"admission_number"`

	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	PreferredName  *string   `db:"preferred_name" json:"preferred_name,omitempty"`
	DateOfBirth    time.Time `db:"date_of_birth" json:"date_of_birth"`
	Gender         string    `db:"gender" json:"gender"`
	EnrollmentDate time.Time `db:"enrollment_date" json:"enrollment_date"`

	// Grade and Section mirror the academic payload once step 3 is saved.
	Grade   *string       `db:"grade" json:"grade,omitempty"`
	Section *string       `db:"section" json:"section,omitempty"`
	Status  StudentStatus `db:"status" json:"status"`

	RegistrationStatus RegistrationStatus `db:"registration_status" json:"registration_status"`
	RegistrationStep   int                `db:"registration_step" json:"registration_step"`

	ContactInfo     []byte `db:"contact_info" json:"-"`
	AcademicInfo    []byte `db:"academic_info" json:"-"`
	MedicalInfo     []byte `db:"medical_info" json:"-"`
	LearningProfile []byte `db:"learning_profile" json:"-"`

	InternalNotes *string    `db:"internal_notes" json:"internal_notes,omitempty"`
	ParentNotes   *string    `db:"parent_notes" json:"parent_notes,omitempty"`
	ReviewedBy    *string    `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`

	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Decidable reports whether a reviewer decision may change the status.
func (r *Registration) Decidable() bool {
	return r.RegistrationStatus == RegistrationStatusPendingReview ||
		r.RegistrationStatus == RegistrationStatusOnHold
}

// Badge renders the human-readable status/step label shown in draft lists.
func (r *Registration) Badge() string {
	switch r.RegistrationStatus {
	case RegistrationStatusDraft:
		return fmt.Sprintf("Draft · Step %d/6", r.RegistrationStep)
	case RegistrationStatusPendingReview:
		return fmt.Sprintf("Pending Review · Step %d/6", r.RegistrationStep)
	case RegistrationStatusApproved:
		return "Approved"
	case RegistrationStatusDenied:
		return "Denied (Edit & Resubmit)"
	case RegistrationStatusOnHold:
		return "On Hold (Edit & Resubmit)"
	default:
		return string(r.RegistrationStatus)
	}
}

// RegistrationFilter constrains listing queries.
type RegistrationFilter struct {
	CreatedBy string
	StatusIn  []RegistrationStatus
	Search    string
	Limit     int
	Offset    int
}

// Guardian is one parent/guardian entry on the contact step.
type Guardian struct {
	FullName     string `json:"full_name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	IsPrimary    bool   `json:"is_primary"`
}

// Address is the student's home address.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// EmergencyContact is a person to reach when guardians are unavailable.
type EmergencyContact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
}

// ContactInfo is the step 2 payload.
type ContactInfo struct {
	Guardians         []Guardian         `json:"guardians"`
	Address           Address            `json:"address"`
	EmergencyContacts []EmergencyContact `json:"emergency_contacts"`
}

// SchedulePreferences captures preferred session timing on the academic step.
type SchedulePreferences struct {
	PreferredDays  []string `json:"preferred_days,omitempty"`
	PreferredTimes []string `json:"preferred_times,omitempty"`
	Notes          string   `json:"notes,omitempty"`
}

// AcademicInfo is the step 3 payload.
type AcademicInfo struct {
	GradeLevel          string              `json:"grade_level"`
	Section             string              `json:"section,omitempty"`
	AssignedTeacher     string              `json:"assigned_teacher,omitempty"`
	CaseManager         string              `json:"case_manager,omitempty"`
	PreviousSchool      string              `json:"previous_school,omitempty"`
	SchedulePreferences SchedulePreferences `json:"schedule_preferences"`
}

// MedicalCondition is one diagnosed condition entry.
type MedicalCondition struct {
	Name  string `json:"name"`
	Notes string `json:"notes,omitempty"`
}

// Allergy is one allergy entry.
type Allergy struct {
	Allergen string `json:"allergen"`
	Severity string `json:"severity,omitempty"`
	Reaction string `json:"reaction,omitempty"`
}

// Medication is one current-medication entry.
type Medication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage,omitempty"`
	Frequency string `json:"frequency,omitempty"`
}

// MedicalInfo is the step 4 payload.
type MedicalInfo struct {
	Conditions  []MedicalCondition `json:"conditions"`
	Allergies   []Allergy          `json:"allergies"`
	Medications []Medication       `json:"medications"`
	Physician   string             `json:"physician,omitempty"`
	Notes       string             `json:"notes,omitempty"`
}

// LearningProfile is the step 5 payload.
type LearningProfile struct {
	PrimaryDiagnosis string   `json:"primary_diagnosis"`
	ImpactLevel      string   `json:"impact_level,omitempty"`
	AffectedAreas    []string `json:"affected_areas,omitempty"`
	Documents        []string `json:"documents,omitempty"`
	Notes            string   `json:"notes,omitempty"`
}

// DecodeContactInfo unmarshals the stored contact payload, nil when unset.
func (r *Registration) DecodeContactInfo() (*ContactInfo, error) {
	return decodePayload[ContactInfo](r.ContactInfo)
}

// DecodeAcademicInfo unmarshals the stored academic payload, nil when unset.
func (r *Registration) DecodeAcademicInfo() (*AcademicInfo, error) {
	return decodePayload[AcademicInfo](r.AcademicInfo)
}

// DecodeMedicalInfo unmarshals the stored medical payload, nil when unset.
func (r *Registration) DecodeMedicalInfo() (*MedicalInfo, error) {
	return decodePayload[MedicalInfo](r.MedicalInfo)
}

// DecodeLearningProfile unmarshals the stored learning profile, nil when unset.
func (r *Registration) DecodeLearningProfile() (*LearningProfile, error) {
	return decodePayload[LearningProfile](r.LearningProfile)
}

func decodePayload[T any](raw []byte) (*T, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode step payload: %w", err)
	}
	return &out, nil
}
