package dto

// CreateIEPRequest payload for opening a new IEP document.
type CreateIEPRequest struct {
	StudentID     string  `json:"student_id" validate:"required"`
	AcademicYear  string  `json:"academic_year" validate:"required"`
	Quarter       string  `json:"quarter"`
	EffectiveDate *string `json:"effective_date"`
	ReviewDate    *string `json:"review_date"`
}

// CreateGoalRequest payload for attaching a goal to an IEP.
type CreateGoalRequest struct {
	Category          string `json:"category" validate:"required"`
	Description       string `json:"description" validate:"required"`
	Baseline          string `json:"baseline"`
	Target            string `json:"target" validate:"required"`
	MeasurementMethod string `json:"measurement_method"`
	SuccessCriteria   string `json:"success_criteria"`
	TimeFrame         string `json:"time_frame" validate:"required"`
	AssignedTo        string `json:"assigned_to"`
}

// UpdateGoalStatusRequest toggles a goal's progress state.
type UpdateGoalStatusRequest struct {
	Status string `json:"status" validate:"required"`
}
