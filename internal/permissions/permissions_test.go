package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seims-dev/seims-api/internal/models"
)

func TestApprovalCapableRoles(t *testing.T) {
	assert.True(t, CanApproveRegistrations(models.RoleAdmin))
	assert.True(t, CanApproveRegistrations(models.RoleHOD))
	assert.True(t, CanApproveRegistrations(models.RoleSpecialEducator))

	assert.False(t, CanApproveRegistrations(models.RoleJuniorStaff))
	assert.False(t, CanApproveRegistrations(models.RoleTeacher))
	assert.False(t, CanApproveRegistrations(models.RoleParent))
}

func TestJuniorStaffLimitedToStudentManagement(t *testing.T) {
	assert.True(t, Can(models.RoleJuniorStaff, StudentManagement))
	assert.False(t, Can(models.RoleJuniorStaff, IEPManagement))
	assert.False(t, Can(models.RoleJuniorStaff, SessionLogging))
	assert.False(t, Can(models.RoleJuniorStaff, AuditLogs))
}

func TestUnknownRoleHasNoCapabilities(t *testing.T) {
	assert.False(t, Can(models.UserRole("intruder"), StudentManagement))
	assert.False(t, Can(models.UserRole("intruder"), RegistrationApproval))
}
