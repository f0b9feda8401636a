package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	role, err := ParseRole(" Facilitator ")
	require.NoError(t, err)
	require.Equal(t, RoleFacilitator, role)

	_, err = ParseRole("teacher")
	require.Error(t, err)
}

func TestRoleCapabilities(t *testing.T) {
	require.True(t, RoleSuperAdmin.Can(CapabilityManageRoles))
	require.False(t, RoleAdmin.Can(CapabilityManageRoles))
	require.True(t, RoleAdmin.Can(CapabilityViewInstitutionProgress))
	require.True(t, RoleFacilitator.Can(CapabilityManageOwnPortions))
	require.False(t, RoleFacilitator.Can(CapabilityManageAllPortions))
	require.True(t, RoleStudent.Can(CapabilitySubmitWork))
	require.False(t, RoleStudent.Can(CapabilityVerifySubmissions))
	require.False(t, Role("guest").Can(CapabilityViewLeaderboard))
}

func TestParseSubmissionKind(t *testing.T) {
	kind, err := ParseSubmissionKind("Assessments")
	require.NoError(t, err)
	require.Equal(t, SubmissionKindAssessment, kind)

	kind, err = ParseSubmissionKind("project")
	require.NoError(t, err)
	require.Equal(t, SubmissionKindProject, kind)

	_, err = ParseSubmissionKind("quiz")
	require.Error(t, err)
}
