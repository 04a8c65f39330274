package tenant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Auditor matches the audit recorder without importing it; the audit package
// depends on this one for tenant context.
type Auditor interface {
	Record(ctx context.Context, action, entity, entityID string, before, after any)
}

// Service implements tenant management. These operations run on exempt
// routes in super-admin scope, so they take explicit ids instead of reading
// a resolved tenant context.
type Service struct {
	store Store
	audit Auditor
	now   func() time.Time
}

type ServiceOption func(*Service)

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, audit Auditor, opts ...ServiceOption) *Service {
	s := &Service{store: store, now: time.Now}
	s.audit = audit
	for _, o := range opts {
		o(s)
	}
	return s
}

// CreateInput is the caller-supplied part of a new tenant.
type CreateInput struct {
	Name   string
	Domain string
}

var ErrInvalidInput = fmt.Errorf("tenant: invalid input")

func (s *Service) Create(ctx context.Context, in CreateInput) (*Tenant, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	now := s.now().UTC()
	t := &Tenant{
		ID:        uuid.New(),
		Name:      name,
		Domain:    strings.ToLower(strings.TrimSpace(in.Domain)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateTenant(ctx, t); err != nil {
		return nil, err
	}
	s.record(ctx, "tenant.create", t.ID.String(), nil, t)
	return t, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	return s.store.GetTenant(ctx, id)
}

func (s *Service) List(ctx context.Context, page, pageSize int) ([]*Tenant, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return s.store.ListTenants(ctx, page, pageSize)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, upd Update) (*Tenant, error) {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	}
	before, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	after, err := s.store.UpdateTenant(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.record(ctx, "tenant.update", id.String(), before, after)
	return after, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	before, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.SoftDeleteTenant(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "tenant.delete", id.String(), before, nil)
	return nil
}

func (s *Service) record(ctx context.Context, action, entityID string, before, after any) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, action, "tenant", entityID, before, after)
}
