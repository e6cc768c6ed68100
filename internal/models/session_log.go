package models

import "time"

// SessionLog records one teaching or therapy session with a student.
type SessionLog struct {
	ID                string     `db:"id" json:"id"`
	StudentID         string     `db:"student_id" json:"student_id"`
	TeacherID         string     `db:"teacher_id" json:"teacher_id"`
	IEPID             *string    `db:"iep_id" json:"iep_id,omitempty"`
	SessionDate       time.Time  `db:"session_date" json:"session_date"`
	StartTime         string     `db:"start_time" json:"start_time"`
	EndTime           *string    `db:"end_time" json:"end_time,omitempty"`
	SessionType       *string    `db:"session_type" json:"session_type,omitempty"`
	Location          *string    `db:"location" json:"location,omitempty"`
	GoalsAddressed    []byte     `db:"goals_addressed" json:"-"`
	Observations      *string    `db:"observations" json:"observations,omitempty"`
	StudentEngagement *string    `db:"student_engagement" json:"student_engagement,omitempty"`
	Challenges        *string    `db:"challenges" json:"challenges,omitempty"`
	NextSteps         *string    `db:"next_steps" json:"next_steps,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

// SessionLogFilter constrains session listing queries.
type SessionLogFilter struct {
	StudentID string
	TeacherID string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}
