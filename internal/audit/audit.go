// Package audit records who changed what, with before and after snapshots.
// Entries are written after the primary mutation commits; a failed audit
// write is logged and counted but never fails the operation that triggered
// it.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"taskgrid.org/internal/auth"
	"taskgrid.org/internal/ids"
	"taskgrid.org/internal/obs"
	"taskgrid.org/internal/tenant"
)

var ErrNotFound = errors.New("audit: not found")

// Entry is one immutable audit row. TenantID is nil for actions performed in
// super-admin scope; that absence is meaningful and must round-trip as null,
// never as a zero uuid.
type Entry struct {
	ID         string
	TenantID   *uuid.UUID
	ActorID    string
	ActorEmail string
	Action     string
	Entity     string
	EntityID   string
	Changes    json.RawMessage
	CreatedAt  time.Time
}

// changeSet is the serialized shape of the Changes column.
type changeSet struct {
	Before any `json:"before,omitempty"`
	After  any `json:"after,omitempty"`
}

// Store persists entries. ListEntries with a nil tenant filter returns rows
// across all tenants; only super-admin callers reach that path.
type Store interface {
	CreateEntry(ctx context.Context, e *Entry) error
	ListEntries(ctx context.Context, tenantID *uuid.UUID, page, pageSize int) ([]*Entry, error)
}

// Recorder builds and writes entries from request context.
type Recorder struct {
	store Store
	now   func() time.Time
}

type Option func(*Recorder)

func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

func NewRecorder(store Store, opts ...Option) *Recorder {
	r := &Recorder{store: store, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Record writes one entry. Actor comes from the authenticated principal,
// tenant from the resolved tenant context; super-admin scope leaves the
// tenant null. Best effort: any failure is logged and counted, and the
// caller proceeds as if nothing happened.
func (r *Recorder) Record(ctx context.Context, action, entity, entityID string, before, after any) {
	e := &Entry{
		ID:        ids.New(),
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		CreatedAt: r.now().UTC(),
	}
	if p, ok := auth.PrincipalFromContext(ctx); ok {
		e.ActorID = p.UserID
		e.ActorEmail = p.Email
	}
	tc := tenant.FromContext(ctx)
	if id, err := tc.TenantID(); err == nil {
		tid := id
		e.TenantID = &tid
	}

	changes, err := json.Marshal(changeSet{Before: before, After: after})
	if err != nil {
		r.fail(action, entityID, err)
		return
	}
	e.Changes = changes

	if err := r.store.CreateEntry(ctx, e); err != nil {
		r.fail(action, entityID, err)
	}
}

func (r *Recorder) fail(action, entityID string, err error) {
	obs.CountAuditWriteFailure()
	obs.Log("error", "audit write failed", map[string]any{
		"action":    action,
		"entity_id": entityID,
		"error":     err.Error(),
	})
}

// List returns entries newest first. A nil tenant filter is the super-admin
// view across tenants.
func (r *Recorder) List(ctx context.Context, tenantID *uuid.UUID, page, pageSize int) ([]*Entry, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return r.store.ListEntries(ctx, tenantID, page, pageSize)
}
