package models

import "time"

// AssessmentStatus captures the assessment report lifecycle.
type AssessmentStatus string

const (
	AssessmentStatusDraft     AssessmentStatus = "draft"
	AssessmentStatusFinalized AssessmentStatus = "finalized"
)

// Assessment is a quarterly assessment record for one student.
type Assessment struct {
	ID             string           `db:"id" json:"id"`
	StudentID      string           `db:"student_id" json:"student_id"`
	Quarter        string           `db:"quarter" json:"quarter"`
	AssessmentDate time.Time        `db:"assessment_date" json:"assessment_date"`
	AssessmentType string           `db:"assessment_type" json:"assessment_type"`
	Scores         []byte           `db:"scores" json:"-"`
	ReportPath     *string          `db:"report_path" json:"report_path,omitempty"`
	ConductedBy    string           `db:"conducted_by" json:"conducted_by"`
	Status         AssessmentStatus `db:"status" json:"status"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
}

// AssessmentFilter constrains assessment listing queries.
type AssessmentFilter struct {
	StudentID string
	Quarter   string
	Limit     int
	Offset    int
}
