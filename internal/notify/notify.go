// Package notify persists per-user notifications and streams them to live
// connections. Delivery is best effort: a failed write or a slow subscriber
// never blocks the operation that produced the event.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"taskgrid.org/internal/ids"
	"taskgrid.org/internal/obs"
	"taskgrid.org/internal/task"
	"taskgrid.org/internal/tenant"
)

var ErrNotFound = errors.New("notify: not found")

// Notification is one inbox row. Tenant id is stamped from the originating
// request so the inbox stays tenant-scoped even though it is keyed by user.
type Notification struct {
	ID        string     `json:"id"`
	TenantID  uuid.UUID  `json:"tenantId"`
	UserID    string     `json:"userId"`
	Kind      string     `json:"kind"`
	Entity    string     `json:"entity"`
	EntityID  string     `json:"entityId"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"createdAt"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
}

// Store persists notifications. Reads and writes are filtered by tenant and
// user; MarkRead re-checks both on every call rather than trusting anything
// cached from subscription time.
type Store interface {
	CreateNotification(ctx context.Context, n *Notification) error
	ListNotifications(ctx context.Context, tenantID uuid.UUID, userID string, unreadOnly bool, page, pageSize int) ([]*Notification, error)
	MarkRead(ctx context.Context, tenantID uuid.UUID, userID, id string, at time.Time) error
}

// Service implements the dispatcher consumed by the task layer and the inbox
// operations behind the notifications endpoints.
type Service struct {
	store Store
	hub   *Hub
	now   func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, hub *Hub, opts ...Option) *Service {
	s := &Service{store: store, hub: hub, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Notify persists one notification per recipient and publishes it to their
// live connections. Requests without a resolved tenant produce nothing; the
// event is tenant-scoped by construction.
func (s *Service) Notify(ctx context.Context, userIDs []string, event task.Event) {
	tenantID, err := tenant.FromContext(ctx).TenantID()
	if err != nil {
		return
	}
	now := s.now().UTC()
	for _, userID := range userIDs {
		n := &Notification{
			ID:        ids.New(),
			TenantID:  tenantID,
			UserID:    userID,
			Kind:      event.Kind,
			Entity:    event.Entity,
			EntityID:  event.EntityID,
			Title:     event.Title,
			Message:   event.Message,
			CreatedAt: now,
		}
		if err := s.store.CreateNotification(ctx, n); err != nil {
			obs.Log("error", "notification write failed", map[string]any{
				"user_id": userID,
				"kind":    event.Kind,
				"error":   err.Error(),
			})
			continue
		}
		if s.hub != nil {
			s.hub.Publish(n)
		}
	}
}

// List returns the caller's inbox for the request's tenant.
func (s *Service) List(ctx context.Context, userID string, unreadOnly bool, page, pageSize int) ([]*Notification, error) {
	tenantID, err := tenant.FromContext(ctx).TenantID()
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return s.store.ListNotifications(ctx, tenantID, userID, unreadOnly, page, pageSize)
}

// MarkRead marks one of the caller's notifications as read. The tenant is
// resolved from this request, so a connection that outlived its tenant claim
// cannot touch another tenant's rows.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	tenantID, err := tenant.FromContext(ctx).TenantID()
	if err != nil {
		return err
	}
	return s.store.MarkRead(ctx, tenantID, userID, id, s.now().UTC())
}
