// Package permissions is the single enforcement point for role capabilities.
// Both the HTTP middleware and the services consult Can; no other code
// compares role strings directly.
package permissions

import "github.com/seims-dev/seims-api/internal/models"

// Capability names an action a role may or may not perform.
type Capability string

const (
	UserManagement       Capability = "user_management"
	StudentManagement    Capability = "student_management"
	IEPManagement        Capability = "iep_management"
	SessionLogging       Capability = "session_logging"
	AssessmentReporting  Capability = "assessment_reporting"
	RegistrationApproval Capability = "registration_approval"
	SystemConfig         Capability = "system_config"
	AuditLogs            Capability = "audit_logs"
)

var matrix = map[models.UserRole]map[Capability]bool{
	models.RoleAdmin: {
		UserManagement:       true,
		StudentManagement:    true,
		IEPManagement:        true,
		SessionLogging:       true,
		AssessmentReporting:  true,
		RegistrationApproval: true,
		SystemConfig:         true,
		AuditLogs:            true,
	},
	models.RoleHOD: {
		StudentManagement:    true,
		IEPManagement:        true,
		SessionLogging:       true,
		AssessmentReporting:  true,
		RegistrationApproval: true,
		AuditLogs:            true,
	},
	models.RoleSpecialEducator: {
		StudentManagement:    true,
		IEPManagement:        true,
		SessionLogging:       true,
		AssessmentReporting:  true,
		RegistrationApproval: true,
	},
	models.RoleJuniorStaff: {
		StudentManagement: true,
	},
	models.RoleTeacher: {
		SessionLogging: true,
	},
	models.RoleTherapist: {
		SessionLogging: true,
	},
	models.RolePsychologist: {
		SessionLogging:      true,
		AssessmentReporting: true,
	},
	models.RoleParent:           {},
	models.RoleClassroomTeacher: {},
	models.RoleParaprofessional: {},
}

// Can reports whether the role holds the capability. Unknown roles hold none.
func Can(role models.UserRole, capability Capability) bool {
	caps, ok := matrix[role]
	if !ok {
		return false
	}
	return caps[capability]
}

// CanApproveRegistrations is a convenience wrapper for the approval gate.
func CanApproveRegistrations(role models.UserRole) bool {
	return Can(role, RegistrationApproval)
}
