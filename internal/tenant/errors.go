package tenant

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("tenant: not found")
	ErrConflict = errors.New("tenant: already exists")

	// ErrResolution is the base class for every resolution failure. All of
	// them abort the request before business logic runs.
	ErrResolution = errors.New("tenant: resolution failed")

	ErrMissingTenant       = fmt.Errorf("%w: missing tenant identifier", ErrResolution)
	ErrInvalidClaimTenant  = fmt.Errorf("%w: invalid tenant in credential", ErrResolution)
	ErrInvalidHeaderTenant = fmt.Errorf("%w: invalid tenant identifier", ErrResolution)

	// ErrNoTenantContext is returned when a super-admin touches a
	// tenant-scoped resource. Deliberately distinct from ErrCrossTenant so a
	// missing scope is never reported as a mismatch.
	ErrNoTenantContext = errors.New("tenant: super-admin has no tenant context")

	// ErrNotResolved is returned when the context is read before resolution
	// ran (an exempt route reaching tenant-scoped code is a wiring bug).
	ErrNotResolved = errors.New("tenant: context not resolved")

	// ErrCrossTenant is the same-tenant invariant violation. Callers must map
	// it to a forbidden outcome, never to not-found.
	ErrCrossTenant = errors.New("tenant: cross-tenant access denied")
)
