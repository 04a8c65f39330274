package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"taskgrid.org/internal/auth"
	"taskgrid.org/internal/obs"
)

// Request carries everything the resolver may consult about an inbound
// operation. The HTTP (or connection) layer fills it in; the resolver never
// reaches back into transport types.
type Request struct {
	// Principal is the authenticated caller, nil when unauthenticated.
	Principal *auth.Principal
	// HeaderTenantID is the raw out-of-band tenant identifier (X-Tenant-ID).
	HeaderTenantID string
	// Exempt marks operations excluded from tenant resolution entirely
	// (tenant management, registration of the first super-admin).
	Exempt bool
	// Handshake marks a real-time connection negotiation step where no
	// credentials are available yet. The connection resolves its own tenant
	// later, outside this request's scope.
	Handshake bool
	// LoginEmail is set for credential-exchange requests. The request is
	// unauthenticated at that point, so the super-admin bypass has to work
	// from the submitted identity instead of roles.
	LoginEmail string
}

// Outcome is the tri-state result of a single resolver strategy.
type Outcome int

const (
	// OutcomeNotApplicable means the strategy had nothing to say; the chain
	// continues with the next one.
	OutcomeNotApplicable Outcome = iota
	// OutcomeResolved means the context was populated (tenant id or
	// super-admin marker) and the chain stops.
	OutcomeResolved
	// OutcomeExempt means resolution is skipped for this request and the
	// context stays unresolved.
	OutcomeExempt
)

// Strategy inspects one source of tenant identity. A non-nil error is a hard
// failure that aborts the request before any business logic.
type Strategy func(ctx context.Context, req Request, tc *Context) (Outcome, error)

// Directory answers identity questions the resolver needs during login,
// before any token exists.
type Directory interface {
	IsSuperAdminEmail(ctx context.Context, email string) (bool, error)
}

// Resolver computes the tenant context for a request using a fixed, ordered
// strategy chain with no hidden fallthrough.
type Resolver struct {
	store      Store
	directory  Directory
	strategies []Strategy
}

// NewResolver wires the standard chain: exempt marker, connection handshake,
// super-admin login bypass, authenticated tenant claim, header fallback.
func NewResolver(store Store, directory Directory) *Resolver {
	r := &Resolver{store: store, directory: directory}
	r.strategies = []Strategy{
		r.exemptRoute,
		r.connectionHandshake,
		r.superAdminLogin,
		r.principalClaim,
		r.headerFallback,
	}
	return r
}

// Resolve produces a fresh Context for the request. Exactly one of three
// things happens: the context is resolved (tenant id or super-admin), the
// request is exempt and the context stays empty, or a resolution error is
// returned and the request must be aborted.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Context, error) {
	tc := NewContext()
	for _, strategy := range r.strategies {
		outcome, err := strategy(ctx, req, tc)
		if err != nil {
			countFailure(err)
			return nil, err
		}
		switch outcome {
		case OutcomeResolved, OutcomeExempt:
			return tc, nil
		}
	}
	countFailure(ErrMissingTenant)
	return nil, ErrMissingTenant
}

func (r *Resolver) exemptRoute(_ context.Context, req Request, _ *Context) (Outcome, error) {
	if req.Exempt {
		return OutcomeExempt, nil
	}
	return OutcomeNotApplicable, nil
}

func (r *Resolver) connectionHandshake(_ context.Context, req Request, _ *Context) (Outcome, error) {
	if req.Handshake {
		return OutcomeExempt, nil
	}
	return OutcomeNotApplicable, nil
}

func (r *Resolver) superAdminLogin(ctx context.Context, req Request, _ *Context) (Outcome, error) {
	if req.LoginEmail == "" || r.directory == nil {
		return OutcomeNotApplicable, nil
	}
	isSuper, err := r.directory.IsSuperAdminEmail(ctx, req.LoginEmail)
	if err != nil {
		return OutcomeNotApplicable, nil
	}
	if isSuper {
		// Login for a globally-scoped identity must not require a tenant.
		// The bypass covers this call only; later requests resolve normally.
		return OutcomeExempt, nil
	}
	return OutcomeNotApplicable, nil
}

func (r *Resolver) principalClaim(ctx context.Context, req Request, tc *Context) (Outcome, error) {
	p := req.Principal
	if p == nil || !p.Authenticated {
		return OutcomeNotApplicable, nil
	}
	if p.IsSuperAdmin() {
		// Absent tenant claim because the identity is global, not because the
		// token is malformed.
		tc.SetSuperAdmin()
		return OutcomeResolved, nil
	}
	if p.TenantID == nil {
		return OutcomeNotApplicable, nil
	}
	exists, err := r.store.TenantExists(ctx, *p.TenantID)
	if err != nil {
		return OutcomeNotApplicable, err
	}
	if !exists {
		return OutcomeNotApplicable, ErrInvalidClaimTenant
	}
	tc.SetTenant(*p.TenantID)
	return OutcomeResolved, nil
}

func (r *Resolver) headerFallback(ctx context.Context, req Request, tc *Context) (Outcome, error) {
	if req.HeaderTenantID == "" {
		return OutcomeNotApplicable, nil
	}
	id, err := uuid.Parse(req.HeaderTenantID)
	if err != nil {
		return OutcomeNotApplicable, ErrInvalidHeaderTenant
	}
	exists, err := r.store.TenantExists(ctx, id)
	if err != nil {
		return OutcomeNotApplicable, err
	}
	if !exists {
		return OutcomeNotApplicable, ErrInvalidHeaderTenant
	}
	tc.SetTenant(id)
	return OutcomeResolved, nil
}

func countFailure(err error) {
	switch {
	case errors.Is(err, ErrInvalidClaimTenant):
		obs.CountTenantResolutionFailure("invalid_claim")
	case errors.Is(err, ErrInvalidHeaderTenant):
		obs.CountTenantResolutionFailure("invalid_header")
	case errors.Is(err, ErrMissingTenant):
		obs.CountTenantResolutionFailure("missing")
	}
}
