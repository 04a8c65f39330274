package auth

import "strings"

// Role names recognised by the service. SuperAdmin operates outside any
// tenant; every other role is tenant-scoped.
const (
	RoleSuperAdmin    = "superadmin"
	RoleAdmin         = "admin"
	RoleManager       = "manager"
	RoleMember        = "member"
	RoleSpecialMember = "specialmember"
)

// AllRoles lists every role accepted at registration time.
var AllRoles = []string{
	RoleSuperAdmin,
	RoleAdmin,
	RoleManager,
	RoleMember,
	RoleSpecialMember,
}

// AssignableRoles are the roles that may be assigned as task or project
// workers. Administrative roles are deliberately excluded.
var AssignableRoles = []string{
	RoleManager,
	RoleMember,
	RoleSpecialMember,
}

// NormalizeRole lower-cases and trims a role name.
func NormalizeRole(role string) string {
	return strings.TrimSpace(strings.ToLower(role))
}

// ValidRole reports whether the role is one the service recognises.
func ValidRole(role string) bool {
	role = NormalizeRole(role)
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// AssignableRole reports whether a user holding the role may be assigned
// to a task or project.
func AssignableRole(role string) bool {
	role = NormalizeRole(role)
	for _, r := range AssignableRoles {
		if r == role {
			return true
		}
	}
	return false
}
