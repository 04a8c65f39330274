package task

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskgrid.org/internal/auth"
	"taskgrid.org/internal/ids"
	"taskgrid.org/internal/tenant"
)

// Auditor records before/after snapshots of entity mutations. The service
// calls it after every successful write; failures inside the auditor never
// propagate back here.
type Auditor interface {
	Record(ctx context.Context, action, entity, entityID string, before, after any)
}

// Event is what assigned users hear about when an item they are on changes.
type Event struct {
	Kind     string
	Entity   string
	EntityID string
	Title    string
	Message  string
}

// Notifier fans an event out to a set of users. Implementations decide how
// (persisted inbox, live stream, both); the service only names recipients.
type Notifier interface {
	Notify(ctx context.Context, userIDs []string, event Event)
}

// Service implements the tenant-scoped task and project operations. Tenant
// identity always comes from the resolved request context, never from request
// bodies.
type Service struct {
	tasks    TaskStore
	projects ProjectStore
	comments CommentStore
	users    UserDirectory
	audit    Auditor
	notifier Notifier
	now      func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(tasks TaskStore, projects ProjectStore, comments CommentStore, users UserDirectory, audit Auditor, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		tasks:    tasks,
		projects: projects,
		comments: comments,
		users:    users,
		audit:    audit,
		notifier: notifier,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// CreateTaskInput is the caller-supplied part of a new task. Tenant id is
// deliberately absent.
type CreateTaskInput struct {
	Title       string
	Description string
	ProjectID   string
	DueDate     *time.Time
}

func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (*Task, error) {
	tenantID, err := tenant.FromContext(ctx).TenantID()
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.ProjectID != "" {
		if _, err := s.projects.GetProject(ctx, tenantID, in.ProjectID); err != nil {
			return nil, fmt.Errorf("project %s: %w", in.ProjectID, err)
		}
	}

	now := s.now().UTC()
	t := &Task{
		ID:          ids.New(),
		TenantID:    tenantID,
		ProjectID:   in.ProjectID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		DueDate:     in.DueDate,
		Lifecycle:   Lifecycle{Status: StatusUnassigned},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tasks.CreateTask(ctx, t); err != nil {
		return nil, err
	}
	s.record(ctx, "task.create", "task", t.ID, nil, t)
	return t, nil
}

func (s *Service) GetTask(ctx context.Context, id string) (*Task, error) {
	tenantID, err := tenant.FromContext(ctx).TenantID()
	if err != nil {
		return nil, err
	}
	return s.tasks.GetTask(ctx, tenantID, id)
}

func (s *Service) ListTasks(ctx context.Context, page, pageSize int) ([]*Task, error) {
	tenantID, err := tenant.FromContext(ctx).TenantID()
	if err != nil {
		return nil, err
	}
	return s.tasks.ListTasks(ctx, tenantID, normalizePage(page), normalizePageSize(pageSize))
}

func (s *Service) UpdateTask(ctx context.Context, id string, upd TaskUpdate) (*Task, error) {
	tenantID, err := tenant.FromContext(ctx).TenantID()
	if err != nil {
		return nil, err
	}
	before, err := s.tasks.GetTask(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
	}
	if upd.ProjectID != nil && *upd.ProjectID != "" {
		if _, err := s.projects.GetProject(ctx, tenantID, *upd.ProjectID); err != nil {
			return nil, fmt.Errorf("project %s: %w", *upd.ProjectID, err)
		}
	}
	after, err := s.tasks.UpdateTask(ctx, tenantID, id, upd)
	if err != nil {
		return nil, err
	}
	s.record(ctx, "task.update", "task", id, before, after)
	return after, nil
}

func (s *Service) DeleteTask(ctx context.Context, id string) error {
	tenantID, err := tenant.FromContext(ctx).TenantID()
	if err != nil {
		return err
	}
	before, err := s.tasks.GetTask(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.tasks.SoftDeleteTask(ctx, tenantID, id); err != nil {
		return err
	}
	s.record(ctx, "task.delete", "task", id, before, nil)
	return nil
}

// AssignTask adds a user to the task. Users whose role excludes assignment
// (admins and super-admins) are rejected. Assigning to an unassigned task
// advances it to assigned; assignment at any later status leaves the status
// alone.
func (s *Service) AssignTask(ctx context.Context, id, userID string) (*Task, error) {
	tenantID, err := tenant.FromContext(ctx).TenantID()
	if err != nil {
		return nil, err
	}
	if err := s.checkAssignable(ctx, tenantID, userID); err != nil {
		return nil, err
	}
	before, err := s.tasks.GetTask(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.tasks.AssignTask(ctx, tenantID, id, userID); err != nil {
		return nil, err
	}
	if before.Status == StatusUnassigned {
		lc, err := Advance(before.Lifecycle, StatusAssigned, s.now())
		if err != nil {
			return nil, err
		}
		if err := s.tasks.UpdateTaskStatus(ctx, tenantID, id, before.Status, lc); err != nil {
			return nil, err
		}
	}
	after, err := s.tasks.GetTask(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	s.record(ctx, "task.assign", "task", id, before, after)
	s.fanOut(ctx, after.AssignedUserIDs, Event{
		Kind:     "task.assigned",
		Entity:   "task",
		EntityID: id,
		Title:    after.Title,
		Message:  fmt.Sprintf("task %q was assigned", after.Title),
	})
	return after, nil
}

// AdvanceTaskStatus moves the task exactly one lifecycle step. The persisted
// status is compared against the one the transition was computed from; a
// concurrent change surfaces as ErrStaleStatus and the caller re-reads.
func (s *Service) AdvanceTaskStatus(ctx context.Context, id string, requested Status) (*Task, error) {
	tenantID, err := tenant.FromContext(ctx).TenantID()
	if err != nil {
		return nil, err
	}
	before, err := s.tasks.GetTask(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	lc, err := Advance(before.Lifecycle, requested, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.tasks.UpdateTaskStatus(ctx, tenantID, id, before.Status, lc); err != nil {
		return nil, err
	}
	after, err := s.tasks.GetTask(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	s.record(ctx, "task.status", "task", id, before, after)
	s.fanOut(ctx, after.AssignedUserIDs, Event{
		Kind:     "task.status",
		Entity:   "task",
		EntityID: id,
		Title:    after.Title,
		Message:  fmt.Sprintf("task %q moved to %s", after.Title, after.Status),
	})
	return after, nil
}

func (s *Service) checkAssignable(ctx context.Context, tenantID uuid.UUID, userID string) error {
	roles, err := s.users.UserRoles(ctx, tenantID, userID)
	if err != nil {
		return err
	}
	for _, role := range roles {
		if auth.AssignableRole(role) {
			return nil
		}
	}
	return fmt.Errorf("%w: user %s", ErrNotAssignable, userID)
}

// record writes an audit entry; the auditor is optional in tests.
func (s *Service) record(ctx context.Context, action, entity, entityID string, before, after any) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, action, entity, entityID, before, after)
}

// fanOut notifies every recipient except the acting user.
func (s *Service) fanOut(ctx context.Context, userIDs []string, event Event) {
	if s.notifier == nil || len(userIDs) == 0 {
		return
	}
	actor := ""
	if p, ok := auth.PrincipalFromContext(ctx); ok {
		actor = p.UserID
	}
	recipients := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if id != actor {
			recipients = append(recipients, id)
		}
	}
	if len(recipients) == 0 {
		return
	}
	s.notifier.Notify(ctx, recipients, event)
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func normalizePageSize(size int) int {
	if size < 1 || size > 200 {
		return 50
	}
	return size
}
