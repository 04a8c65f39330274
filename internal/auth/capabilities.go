package auth

// Capability is a closed, enumerable permission attached to a principal when
// its session is issued. Policy checks match against this set instead of
// dynamic string-keyed claims, so the full capability surface is visible at
// compile time.
type Capability string

const (
	CapViewTasks      Capability = "view_tasks"
	CapManageTasks    Capability = "manage_tasks"
	CapManageProjects Capability = "manage_projects"
	CapManageUsers    Capability = "manage_users"
	CapManageTenant   Capability = "manage_tenant"  // the principal's own tenant
	CapManageTenants  Capability = "manage_tenants" // all tenants (super-admin)
)

// capabilitiesByRole fixes which capabilities each role grants. Tokens embed
// the union over the user's roles.
var capabilitiesByRole = map[string][]Capability{
	RoleSuperAdmin:    {CapManageTenants},
	RoleAdmin:         {CapManageTenant, CapManageUsers, CapManageProjects},
	RoleManager:       {CapManageProjects, CapManageTasks, CapViewTasks},
	RoleSpecialMember: {CapManageTasks, CapViewTasks},
	RoleMember:        {CapViewTasks},
}

// CapabilitiesForRoles returns the deduplicated union of capabilities granted
// by the given roles.
func CapabilitiesForRoles(roles []string) []Capability {
	seen := make(map[Capability]struct{})
	var out []Capability
	for _, role := range roles {
		for _, cap := range capabilitiesByRole[NormalizeRole(role)] {
			if _, ok := seen[cap]; ok {
				continue
			}
			seen[cap] = struct{}{}
			out = append(out, cap)
		}
	}
	return out
}
