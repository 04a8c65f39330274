package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tenant is an isolated customer organization. All task and project data is
// partitioned by tenant id; nothing may cross that boundary.
type Tenant struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Domain    string     `json:"domain,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	IsDeleted bool       `json:"is_deleted,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Update carries optional field changes for a tenant.
type Update struct {
	Name   *string
	Domain *string
}

// Store manages tenant records.
type Store interface {
	CreateTenant(ctx context.Context, t *Tenant) error
	GetTenant(ctx context.Context, id uuid.UUID) (*Tenant, error)
	ListTenants(ctx context.Context, page, pageSize int) ([]*Tenant, error)
	UpdateTenant(ctx context.Context, id uuid.UUID, upd Update) (*Tenant, error)
	SoftDeleteTenant(ctx context.Context, id uuid.UUID) error
	// TenantExists ignores soft-deleted tenants: a deleted tenant must not
	// resolve.
	TenantExists(ctx context.Context, id uuid.UUID) (bool, error)
}
