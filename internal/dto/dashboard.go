package dto

// DashboardSummary aggregates the landing-page counters.
type DashboardSummary struct {
	ActiveStudents   int `json:"active_students"`
	PendingApprovals int `json:"pending_approvals"`
	ActiveIEPs       int `json:"active_ieps"`
	SessionsThisWeek int `json:"sessions_this_week"`
}
