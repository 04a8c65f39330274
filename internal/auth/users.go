package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ListUsers returns the tenant's active users.
func (s *Service) ListUsers(ctx context.Context, tenantID uuid.UUID) ([]*User, error) {
	return s.store.ListUsersByTenant(ctx, tenantID)
}

// GetUser loads one user, pinned to the tenant. A user in another tenant is
// indistinguishable from an absent one.
func (s *Service) GetUser(ctx context.Context, tenantID uuid.UUID, id string) (*User, error) {
	user, err := s.store.FindUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.TenantID == nil || *user.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return user, nil
}

// UpdateUserRole replaces the user's role set with the single given role.
// Super-admin is not assignable here: that role lives outside tenant scope.
func (s *Service) UpdateUserRole(ctx context.Context, tenantID uuid.UUID, id, role string) (*User, error) {
	role = NormalizeRole(role)
	if !ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	if role == RoleSuperAdmin {
		return nil, fmt.Errorf("%w: cannot grant super-admin to a tenant user", ErrInvalidInput)
	}
	if _, err := s.GetUser(ctx, tenantID, id); err != nil {
		return nil, err
	}
	return s.store.UpdateUserRoles(ctx, tenantID, id, []string{role})
}

// DeleteUser soft-deletes a tenant's user.
func (s *Service) DeleteUser(ctx context.Context, tenantID uuid.UUID, id string) error {
	return s.store.SoftDeleteUser(ctx, tenantID, id)
}
