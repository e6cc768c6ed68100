package dto

import "github.com/seims-dev/seims-api/internal/models"

// Decision enumerates reviewer actions on a submitted registration.
type Decision string

const (
	DecisionApprove   Decision = "approve"
	DecisionDeny      Decision = "deny"
	DecisionOnHold    Decision = "on_hold"
	DecisionSaveNotes Decision = "save_notes"
)

// DecideRequest carries the reviewer's decision and notes.
type DecideRequest struct {
	Decision      Decision `json:"decision" validate:"required"`
	InternalNotes string   `json:"internal_notes"`
	ParentNotes   string   `json:"parent_notes"`
}

// DecideResult reports the status after a decision.
type DecideResult struct {
	RegistrationID string                    `json:"registration_id"`
	NewStatus      models.RegistrationStatus `json:"new_status"`
}
