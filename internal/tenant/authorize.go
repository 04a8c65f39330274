package tenant

import "taskgrid.org/internal/auth"

// Authorize enforces the same-tenant invariant: the principal's tenant claim
// must equal the resolved tenant id. Super-admins pass only when the request
// itself was resolved as super-admin scoped; a super-admin reaching into a
// tenant-scoped path gets ErrNoTenantContext, which is distinct from a
// mismatch. Callers map any failure here to a forbidden outcome, never to
// not-found, so boundary violations stay observable.
func Authorize(p auth.Principal, tc *Context) error {
	if !p.Authenticated {
		return ErrCrossTenant
	}
	if p.IsSuperAdmin() && tc.IsSuperAdmin() {
		return nil
	}
	id, err := tc.TenantID()
	if err != nil {
		return err
	}
	if p.TenantID == nil || *p.TenantID != id {
		return ErrCrossTenant
	}
	return nil
}
