package models

import (
	"fmt"
	"strings"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleAdmin       Role = "admin"
	RoleFacilitator Role = "facilitator"
	RoleStudent     Role = "student"
)

// Capability names an action or view a role may be granted.
type Capability string

const (
	CapabilityViewInstitutionProgress Capability = "view_institution_progress"
	CapabilityManageDepartments       Capability = "manage_departments"
	CapabilityManageUsers             Capability = "manage_users"
	CapabilityManageRoles             Capability = "manage_roles"
	CapabilityManageAcademicYears     Capability = "manage_academic_years"
	CapabilityManageAllPortions       Capability = "manage_all_portions"
	CapabilityManageOwnPortions       Capability = "manage_own_portions"
	CapabilityViewFacilitatorDash     Capability = "view_facilitator_dashboard"
	CapabilityViewStudentDash         Capability = "view_student_dashboard"
	CapabilityManageCoursework        Capability = "manage_coursework"
	CapabilityVerifySubmissions       Capability = "verify_submissions"
	CapabilitySubmitWork              Capability = "submit_work"
	CapabilityViewLeaderboard         Capability = "view_leaderboard"
	CapabilityManageAnnouncements     Capability = "manage_announcements"
	CapabilityViewAuditLog            Capability = "view_audit_log"
)

var roleCapabilities = map[Role]map[Capability]struct{}{
	RoleSuperAdmin: capabilitySet(
		CapabilityViewInstitutionProgress,
		CapabilityManageDepartments,
		CapabilityManageUsers,
		CapabilityManageRoles,
		CapabilityManageAcademicYears,
		CapabilityManageAllPortions,
		CapabilityManageCoursework,
		CapabilityVerifySubmissions,
		CapabilityViewLeaderboard,
		CapabilityManageAnnouncements,
		CapabilityViewAuditLog,
	),
	RoleAdmin: capabilitySet(
		CapabilityViewInstitutionProgress,
		CapabilityManageDepartments,
		CapabilityManageUsers,
		CapabilityManageAcademicYears,
		CapabilityManageAllPortions,
		CapabilityManageCoursework,
		CapabilityVerifySubmissions,
		CapabilityViewLeaderboard,
		CapabilityManageAnnouncements,
		CapabilityViewAuditLog,
	),
	RoleFacilitator: capabilitySet(
		CapabilityManageOwnPortions,
		CapabilityViewFacilitatorDash,
		CapabilityManageCoursework,
		CapabilityVerifySubmissions,
		CapabilityViewLeaderboard,
		CapabilityManageAnnouncements,
	),
	RoleStudent: capabilitySet(
		CapabilityViewStudentDash,
		CapabilitySubmitWork,
		CapabilityViewLeaderboard,
	),
}

func capabilitySet(capabilities ...Capability) map[Capability]struct{} {
	set := make(map[Capability]struct{}, len(capabilities))
	for _, capability := range capabilities {
		set[capability] = struct{}{}
	}
	return set
}

// ParseRole normalises a role string and rejects anything outside the closed set.
func ParseRole(value string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := roleCapabilities[role]; !ok {
		return "", fmt.Errorf("unknown role %q", value)
	}
	return role, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Can reports whether the role holds the capability.
func (r Role) Can(capability Capability) bool {
	_, ok := roleCapabilities[r][capability]
	return ok
}

func (r Role) String() string {
	return string(r)
}
