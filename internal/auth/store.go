package auth

import (
	"context"

	"github.com/google/uuid"
)

// UserStore describes persistence operations required by the auth subsystem.
type UserStore interface {
	CreateUser(ctx context.Context, u *User) error
	FindUser(ctx context.Context, id string) (*User, error)
	// FindUserByEmail looks the email up across all tenants. Email uniqueness
	// is only per tenant, so this lookup is reserved for the null-tenant
	// super-admin path, where registration does guarantee a globally unique
	// email.
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	// FindUserByEmailInTenant scopes the lookup to a single tenant. Tenant
	// logins must use it: the same email may exist in several tenants.
	FindUserByEmailInTenant(ctx context.Context, email string, tenantID uuid.UUID) (*User, error)
	ListUsersByTenant(ctx context.Context, tenantID uuid.UUID) ([]*User, error)
	UpdateUserRoles(ctx context.Context, tenantID uuid.UUID, id string, roles []string) (*User, error)
	SoftDeleteUser(ctx context.Context, tenantID uuid.UUID, id string) error
}
