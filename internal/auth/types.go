package auth

import (
	"time"

	"github.com/google/uuid"
)

// User is a human account. Super-admin users carry a nil TenantID because
// they live outside any tenant's scope.
type User struct {
	ID           string     `json:"id"`
	TenantID     *uuid.UUID `json:"tenant_id,omitempty"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	Roles        []string   `json:"roles"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	IsDeleted    bool       `json:"is_deleted,omitempty"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Principal is the authenticated caller: identity plus the roles and
// capabilities resolved at token issuance.
type Principal struct {
	UserID        string
	Email         string
	Name          string
	Roles         []string
	Capabilities  map[Capability]struct{}
	TenantID      *uuid.UUID
	Authenticated bool
}

// NewPrincipal builds a principal with a preloaded capability set.
func NewPrincipal(userID, email, name string, roles []string, tenantID *uuid.UUID) Principal {
	caps := CapabilitiesForRoles(roles)
	set := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return Principal{
		UserID:        userID,
		Email:         email,
		Name:          name,
		Roles:         roles,
		Capabilities:  set,
		TenantID:      tenantID,
		Authenticated: userID != "",
	}
}

// Can reports whether the principal holds the capability.
func (p Principal) Can(cap Capability) bool {
	_, ok := p.Capabilities[cap]
	return ok
}

// HasRole reports whether the principal holds the role.
func (p Principal) HasRole(role string) bool {
	role = NormalizeRole(role)
	for _, r := range p.Roles {
		if NormalizeRole(r) == role {
			return true
		}
	}
	return false
}

// IsSuperAdmin reports whether the principal operates outside tenant scope.
func (p Principal) IsSuperAdmin() bool {
	return p.HasRole(RoleSuperAdmin)
}
