package tenant

import (
	"context"

	"github.com/google/uuid"
)

// Context is the per-request cell holding the resolved tenant. It is created
// empty when request handling starts, written at most once by the resolver,
// and discarded with the request. It must never be shared across requests;
// one request is the unit of isolation, so no locking is needed.
type Context struct {
	resolved   bool
	superAdmin bool
	tenantID   uuid.UUID
}

// NewContext returns an unresolved context.
func NewContext() *Context {
	return &Context{}
}

// Resolved reports whether resolution has run for this request.
func (c *Context) Resolved() bool {
	return c.resolved
}

// IsSuperAdmin reports whether the request operates outside tenant scope.
func (c *Context) IsSuperAdmin() bool {
	return c.resolved && c.superAdmin
}

// SetTenant records the resolved tenant id. The first successful set wins;
// later calls within the same request are ignored.
func (c *Context) SetTenant(id uuid.UUID) {
	if c.resolved {
		return
	}
	c.tenantID = id
	c.resolved = true
}

// SetSuperAdmin marks the request as operating outside any tenant. This is
// distinct from an empty tenant id: a super-admin is never coerced into a
// default tenant.
func (c *Context) SetSuperAdmin() {
	if c.resolved {
		return
	}
	c.superAdmin = true
	c.resolved = true
}

// TenantID returns the resolved tenant id. Reads are memoized and repeatable
// within a request. A super-admin context fails with ErrNoTenantContext; an
// unresolved context fails with ErrNotResolved.
func (c *Context) TenantID() (uuid.UUID, error) {
	if !c.resolved {
		return uuid.Nil, ErrNotResolved
	}
	if c.superAdmin {
		return uuid.Nil, ErrNoTenantContext
	}
	return c.tenantID, nil
}

type contextKey struct{}

// WithContext threads the per-request tenant context through ctx.
func WithContext(ctx context.Context, tc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// FromContext returns the tenant context attached to ctx, or an unresolved
// one if the request never went through resolution.
func FromContext(ctx context.Context) *Context {
	if ctx != nil {
		if tc, ok := ctx.Value(contextKey{}).(*Context); ok && tc != nil {
			return tc
		}
	}
	return NewContext()
}
