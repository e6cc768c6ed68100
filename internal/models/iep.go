package models

import "time"

// IEPStatus captures the IEP document lifecycle.
type IEPStatus string

const (
	IEPStatusDraft    IEPStatus = "draft"
	IEPStatusActive   IEPStatus = "active"
	IEPStatusArchived IEPStatus = "archived"
)

// IEP is an individualized education program document for one student.
type IEP struct {
	ID            string     `db:"id" json:"id"`
	StudentID     string     `db:"student_id" json:"student_id"`
	AcademicYear  string     `db:"academic_year" json:"academic_year"`
	Quarter       *string    `db:"quarter" json:"quarter,omitempty"`
	Status        IEPStatus  `db:"status" json:"status"`
	EffectiveDate *time.Time `db:"effective_date" json:"effective_date,omitempty"`
	ReviewDate    *time.Time `db:"review_date" json:"review_date,omitempty"`
	VersionNumber int        `db:"version_number" json:"version_number"`
	CreatedBy     string     `db:"created_by" json:"created_by"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// GoalStatus captures goal progress states.
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusAchieved  GoalStatus = "achieved"
	GoalStatusDiscarded GoalStatus = "discarded"
)

// Goal is one measurable objective attached to an IEP.
type Goal struct {
	ID                string     `db:"id" json:"id"`
	IEPID             string     `db:"iep_id" json:"iep_id"`
	Category          string     `db:"category" json:"category"`
	Description       string     `db:"description" json:"description"`
	Baseline          *string    `db:"baseline" json:"baseline,omitempty"`
	Target            string     `db:"target" json:"target"`
	MeasurementMethod *string    `db:"measurement_method" json:"measurement_method,omitempty"`
	SuccessCriteria   *string    `db:"success_criteria" json:"success_criteria,omitempty"`
	TimeFrame         string     `db:"time_frame" json:"time_frame"`
	AssignedTo        *string    `db:"assigned_to" json:"assigned_to,omitempty"`
	Status            GoalStatus `db:"status" json:"status"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

// IEPFilter constrains IEP listing queries.
type IEPFilter struct {
	StudentID    string
	AcademicYear string
	Status       []IEPStatus
	Limit        int
	Offset       int
}
