package dto

// CreateSessionLogRequest payload for recording a teaching/therapy session.
type CreateSessionLogRequest struct {
	StudentID         string   `json:"student_id" validate:"required"`
	IEPID             string   `json:"iep_id"`
	SessionDate       string   `json:"session_date" validate:"required,datetime=2006-01-02"`
	StartTime         string   `json:"start_time" validate:"required"`
	EndTime           string   `json:"end_time"`
	SessionType       string   `json:"session_type"`
	Location          string   `json:"location"`
	GoalsAddressed    []string `json:"goals_addressed"`
	Observations      string   `json:"observations"`
	StudentEngagement string   `json:"student_engagement"`
	Challenges        string   `json:"challenges"`
	NextSteps         string   `json:"next_steps"`
}
