package dto

import "encoding/json"

// CreateAssessmentRequest payload for recording a quarterly assessment.
type CreateAssessmentRequest struct {
	StudentID      string          `json:"student_id" validate:"required"`
	Quarter        string          `json:"quarter" validate:"required"`
	AssessmentDate string          `json:"assessment_date" validate:"required,datetime=2006-01-02"`
	AssessmentType string          `json:"assessment_type" validate:"required"`
	Scores         json.RawMessage `json:"scores"`
	ReportPath     string          `json:"report_path"`
}
