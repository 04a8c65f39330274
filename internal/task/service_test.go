package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"taskgrid.org/internal/auth"
	"taskgrid.org/internal/tenant"
)

type fakeTaskStore struct {
	tasks map[string]*Task
	// staleOnce makes the next compare-and-set fail as if another request
	// moved the status first.
	staleOnce bool
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[string]*Task)}
}

func (f *fakeTaskStore) CreateTask(ctx context.Context, t *Task) error {
	for _, existing := range f.tasks {
		if existing.TenantID == t.TenantID && existing.Title == t.Title {
			return ErrConflict
		}
	}
	cp := *t
	f.tasks[t.ID] = &cp
	return nil
}

func (f *fakeTaskStore) GetTask(ctx context.Context, tenantID uuid.UUID, id string) (*Task, error) {
	t, ok := f.tasks[id]
	if !ok || t.TenantID != tenantID || t.IsDeleted {
		return nil, ErrNotFound
	}
	cp := *t
	cp.AssignedUserIDs = append([]string(nil), t.AssignedUserIDs...)
	return &cp, nil
}

func (f *fakeTaskStore) ListTasks(ctx context.Context, tenantID uuid.UUID, page, pageSize int) ([]*Task, error) {
	var out []*Task
	for _, t := range f.tasks {
		if t.TenantID == tenantID && !t.IsDeleted {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) UpdateTask(ctx context.Context, tenantID uuid.UUID, id string, upd TaskUpdate) (*Task, error) {
	t, ok := f.tasks[id]
	if !ok || t.TenantID != tenantID {
		return nil, ErrNotFound
	}
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.DueDate != nil {
		t.DueDate = upd.DueDate
	}
	if upd.ProjectID != nil {
		t.ProjectID = *upd.ProjectID
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTaskStore) SoftDeleteTask(ctx context.Context, tenantID uuid.UUID, id string) error {
	t, ok := f.tasks[id]
	if !ok || t.TenantID != tenantID {
		return ErrNotFound
	}
	t.IsDeleted = true
	return nil
}

func (f *fakeTaskStore) UpdateTaskStatus(ctx context.Context, tenantID uuid.UUID, id string, from Status, lc Lifecycle) error {
	if f.staleOnce {
		f.staleOnce = false
		return ErrStaleStatus
	}
	t, ok := f.tasks[id]
	if !ok || t.TenantID != tenantID {
		return ErrNotFound
	}
	if t.Status != from {
		return ErrStaleStatus
	}
	t.Lifecycle = lc
	return nil
}

func (f *fakeTaskStore) AssignTask(ctx context.Context, tenantID uuid.UUID, id, userID string) error {
	t, ok := f.tasks[id]
	if !ok || t.TenantID != tenantID {
		return ErrNotFound
	}
	for _, existing := range t.AssignedUserIDs {
		if existing == userID {
			return nil
		}
	}
	t.AssignedUserIDs = append(t.AssignedUserIDs, userID)
	return nil
}

type fakeProjectStore struct {
	projects map[string]*Project
}

func newFakeProjectStore() *fakeProjectStore {
	return &fakeProjectStore{projects: make(map[string]*Project)}
}

func (f *fakeProjectStore) CreateProject(ctx context.Context, p *Project) error {
	for _, existing := range f.projects {
		if existing.TenantID == p.TenantID && existing.Name == p.Name {
			return ErrConflict
		}
	}
	cp := *p
	f.projects[p.ID] = &cp
	return nil
}

func (f *fakeProjectStore) GetProject(ctx context.Context, tenantID uuid.UUID, id string) (*Project, error) {
	p, ok := f.projects[id]
	if !ok || p.TenantID != tenantID || p.IsDeleted {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProjectStore) ListProjects(ctx context.Context, tenantID uuid.UUID, page, pageSize int) ([]*Project, error) {
	var out []*Project
	for _, p := range f.projects {
		if p.TenantID == tenantID && !p.IsDeleted {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeProjectStore) UpdateProject(ctx context.Context, tenantID uuid.UUID, id string, upd ProjectUpdate) (*Project, error) {
	p, ok := f.projects[id]
	if !ok || p.TenantID != tenantID {
		return nil, ErrNotFound
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.DueDate != nil {
		p.DueDate = upd.DueDate
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProjectStore) SoftDeleteProject(ctx context.Context, tenantID uuid.UUID, id string) error {
	p, ok := f.projects[id]
	if !ok || p.TenantID != tenantID {
		return ErrNotFound
	}
	p.IsDeleted = true
	return nil
}

func (f *fakeProjectStore) UpdateProjectStatus(ctx context.Context, tenantID uuid.UUID, id string, from Status, lc Lifecycle) error {
	p, ok := f.projects[id]
	if !ok || p.TenantID != tenantID {
		return ErrNotFound
	}
	if p.Status != from {
		return ErrStaleStatus
	}
	p.Lifecycle = lc
	return nil
}

func (f *fakeProjectStore) AssignProject(ctx context.Context, tenantID uuid.UUID, id, userID string) error {
	p, ok := f.projects[id]
	if !ok || p.TenantID != tenantID {
		return ErrNotFound
	}
	p.AssignedUserIDs = append(p.AssignedUserIDs, userID)
	return nil
}

type fakeCommentStore struct {
	comments []*Comment
}

func (f *fakeCommentStore) CreateComment(ctx context.Context, c *Comment) error {
	cp := *c
	f.comments = append(f.comments, &cp)
	return nil
}

func (f *fakeCommentStore) find(tenantID uuid.UUID, id string) *Comment {
	for _, c := range f.comments {
		if c.ID == id && c.TenantID == tenantID && !c.IsDeleted {
			return c
		}
	}
	return nil
}

func (f *fakeCommentStore) GetComment(ctx context.Context, tenantID uuid.UUID, id string) (*Comment, error) {
	c := f.find(tenantID, id)
	if c == nil {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCommentStore) ListComments(ctx context.Context, tenantID uuid.UUID, entity, entityID string, page, pageSize int) ([]*Comment, error) {
	var out []*Comment
	for _, c := range f.comments {
		if c.TenantID == tenantID && c.Entity == entity && c.EntityID == entityID && !c.IsDeleted {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeCommentStore) UpdateCommentBody(ctx context.Context, tenantID uuid.UUID, id, body string, at time.Time) (*Comment, error) {
	c := f.find(tenantID, id)
	if c == nil {
		return nil, ErrNotFound
	}
	c.Body = body
	c.UpdatedAt = at
	cp := *c
	return &cp, nil
}

func (f *fakeCommentStore) SoftDeleteComment(ctx context.Context, tenantID uuid.UUID, id, deletedBy string) error {
	c := f.find(tenantID, id)
	if c == nil {
		return ErrNotFound
	}
	c.IsDeleted = true
	c.DeletedBy = deletedBy
	return nil
}

type fakeDirectory struct {
	roles map[string][]string
}

func (f *fakeDirectory) UserRoles(ctx context.Context, tenantID uuid.UUID, userID string) ([]string, error) {
	roles, ok := f.roles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return roles, nil
}

type recordedAudit struct {
	action   string
	entityID string
	before   any
	after    any
}

type fakeAuditor struct {
	entries []recordedAudit
}

func (f *fakeAuditor) Record(ctx context.Context, action, entity, entityID string, before, after any) {
	f.entries = append(f.entries, recordedAudit{action: action, entityID: entityID, before: before, after: after})
}

type fakeNotifier struct {
	recipients [][]string
	events     []Event
}

func (f *fakeNotifier) Notify(ctx context.Context, userIDs []string, event Event) {
	f.recipients = append(f.recipients, userIDs)
	f.events = append(f.events, event)
}

type fixture struct {
	svc      *Service
	tasks    *fakeTaskStore
	projects *fakeProjectStore
	comments *fakeCommentStore
	audit    *fakeAuditor
	notifier *fakeNotifier
	tenantID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tasks := newFakeTaskStore()
	projects := newFakeProjectStore()
	comments := &fakeCommentStore{}
	audit := &fakeAuditor{}
	notifier := &fakeNotifier{}
	dir := &fakeDirectory{roles: map[string][]string{
		"member-1":  {auth.RoleMember},
		"member-2":  {auth.RoleSpecialMember},
		"manager-1": {auth.RoleManager},
		"admin-1":   {auth.RoleAdmin},
	}}
	svc := NewService(tasks, projects, comments, dir, audit, notifier,
		WithClock(func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }))
	return &fixture{
		svc:      svc,
		tasks:    tasks,
		projects: projects,
		comments: comments,
		audit:    audit,
		notifier: notifier,
		tenantID: uuid.New(),
	}
}

func (f *fixture) ctx(userID string) context.Context {
	return f.ctxWithRole(userID, auth.RoleManager)
}

func (f *fixture) ctxWithRole(userID, role string) context.Context {
	tc := tenant.NewContext()
	tc.SetTenant(f.tenantID)
	ctx := tenant.WithContext(context.Background(), tc)
	p := auth.NewPrincipal(userID, userID+"@acme.test", userID, []string{role}, &f.tenantID)
	return auth.ContextWithPrincipal(ctx, p)
}

func TestCreateTaskStampsTenant(t *testing.T) {
	f := newFixture(t)
	created, err := f.svc.CreateTask(f.ctx("manager-1"), CreateTaskInput{Title: "ship invoices"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if created.TenantID != f.tenantID {
		t.Fatalf("tenant id not stamped from context")
	}
	if created.Status != StatusUnassigned {
		t.Fatalf("new task must start unassigned, got %s", created.Status)
	}
	if len(f.audit.entries) != 1 || f.audit.entries[0].action != "task.create" {
		t.Fatalf("expected one task.create audit entry, got %+v", f.audit.entries)
	}
	if f.audit.entries[0].before != nil {
		t.Fatalf("create audit must have nil before snapshot")
	}
}

func TestCreateTaskRejectsSuperAdminScope(t *testing.T) {
	f := newFixture(t)
	tc := tenant.NewContext()
	tc.SetSuperAdmin()
	ctx := tenant.WithContext(context.Background(), tc)

	if _, err := f.svc.CreateTask(ctx, CreateTaskInput{Title: "x"}); !errors.Is(err, tenant.ErrNoTenantContext) {
		t.Fatalf("expected ErrNoTenantContext, got %v", err)
	}
}

func TestCreateTaskDuplicateTitle(t *testing.T) {
	f := newFixture(t)
	ctx := f.ctx("manager-1")
	if _, err := f.svc.CreateTask(ctx, CreateTaskInput{Title: "ship"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := f.svc.CreateTask(ctx, CreateTaskInput{Title: "ship"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestGetTaskIsTenantScoped(t *testing.T) {
	f := newFixture(t)
	created, err := f.svc.CreateTask(f.ctx("manager-1"), CreateTaskInput{Title: "secret"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	// Same id, different tenant: indistinguishable from non-existence.
	other := tenant.NewContext()
	other.SetTenant(uuid.New())
	ctx := tenant.WithContext(context.Background(), other)
	if _, err := f.svc.GetTask(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound across tenants, got %v", err)
	}
}

func TestAssignTaskAdvancesFromUnassigned(t *testing.T) {
	f := newFixture(t)
	ctx := f.ctx("manager-1")
	created, err := f.svc.CreateTask(ctx, CreateTaskInput{Title: "triage"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	after, err := f.svc.AssignTask(ctx, created.ID, "member-1")
	if err != nil {
		t.Fatalf("AssignTask: %v", err)
	}
	if after.Status != StatusAssigned {
		t.Fatalf("assignment must advance unassigned to assigned, got %s", after.Status)
	}

	// A second assignee leaves the status alone.
	after, err = f.svc.AssignTask(ctx, created.ID, "member-2")
	if err != nil {
		t.Fatalf("second AssignTask: %v", err)
	}
	if after.Status != StatusAssigned {
		t.Fatalf("second assignment must not move status, got %s", after.Status)
	}
	if len(after.AssignedUserIDs) != 2 {
		t.Fatalf("expected 2 assignees, got %v", after.AssignedUserIDs)
	}
}

func TestAssignTaskRejectsAdmins(t *testing.T) {
	f := newFixture(t)
	ctx := f.ctx("manager-1")
	created, err := f.svc.CreateTask(ctx, CreateTaskInput{Title: "ops"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if _, err := f.svc.AssignTask(ctx, created.ID, "admin-1"); !errors.Is(err, ErrNotAssignable) {
		t.Fatalf("expected ErrNotAssignable for admin, got %v", err)
	}
}

func TestAdvanceTaskStatusFullLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := f.ctx("manager-1")
	created, err := f.svc.CreateTask(ctx, CreateTaskInput{Title: "deploy"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if _, err := f.svc.AssignTask(ctx, created.ID, "member-1"); err != nil {
		t.Fatalf("AssignTask: %v", err)
	}

	after, err := f.svc.AdvanceTaskStatus(ctx, created.ID, StatusInProgress)
	if err != nil {
		t.Fatalf("to inprogress: %v", err)
	}
	if after.StartedAt == nil {
		t.Fatalf("StartedAt must be stamped")
	}

	after, err = f.svc.AdvanceTaskStatus(ctx, created.ID, StatusCompleted)
	if err != nil {
		t.Fatalf("to completed: %v", err)
	}
	if after.CompletedAt == nil {
		t.Fatalf("CompletedAt must be stamped")
	}

	if _, err := f.svc.AdvanceTaskStatus(ctx, created.ID, StatusCompleted); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("terminal task must reject further moves, got %v", err)
	}
}

func TestAdvanceTaskStatusRejectsSkip(t *testing.T) {
	f := newFixture(t)
	ctx := f.ctx("manager-1")
	created, err := f.svc.CreateTask(ctx, CreateTaskInput{Title: "audit trail"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	_, err = f.svc.AdvanceTaskStatus(ctx, created.ID, StatusCompleted)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestAdvanceTaskStatusStaleCAS(t *testing.T) {
	f := newFixture(t)
	ctx := f.ctx("manager-1")
	created, err := f.svc.CreateTask(ctx, CreateTaskInput{Title: "race"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if _, err := f.svc.AssignTask(ctx, created.ID, "member-1"); err != nil {
		t.Fatalf("AssignTask: %v", err)
	}

	f.tasks.staleOnce = true
	if _, err := f.svc.AdvanceTaskStatus(ctx, created.ID, StatusInProgress); !errors.Is(err, ErrStaleStatus) {
		t.Fatalf("expected ErrStaleStatus, got %v", err)
	}

	// The caller re-reads and retries; the second attempt lands.
	if _, err := f.svc.AdvanceTaskStatus(ctx, created.ID, StatusInProgress); err != nil {
		t.Fatalf("retry after stale: %v", err)
	}
}

func TestNotifySkipsActor(t *testing.T) {
	f := newFixture(t)
	ctx := f.ctx("member-1")
	created, err := f.svc.CreateTask(ctx, CreateTaskInput{Title: "standup notes"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if _, err := f.svc.AssignTask(ctx, created.ID, "member-1"); err != nil {
		t.Fatalf("assign self: %v", err)
	}
	if _, err := f.svc.AssignTask(ctx, created.ID, "member-2"); err != nil {
		t.Fatalf("assign member-2: %v", err)
	}

	last := f.notifier.recipients[len(f.notifier.recipients)-1]
	for _, id := range last {
		if id == "member-1" {
			t.Fatalf("actor must not be notified about their own change")
		}
	}
	if len(last) != 1 || last[0] != "member-2" {
		t.Fatalf("expected only member-2, got %v", last)
	}
}

func TestProjectLifecycleAndAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := f.ctx("manager-1")

	p, err := f.svc.CreateProject(ctx, CreateProjectInput{Name: "migration"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if _, err := f.svc.CreateProject(ctx, CreateProjectInput{Name: "migration"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate name, got %v", err)
	}

	after, err := f.svc.AssignProject(ctx, p.ID, "member-1")
	if err != nil {
		t.Fatalf("AssignProject: %v", err)
	}
	if after.Status != StatusAssigned {
		t.Fatalf("assignment must advance project to assigned, got %s", after.Status)
	}

	if _, err := f.svc.AdvanceProjectStatus(ctx, p.ID, StatusInProgress); err != nil {
		t.Fatalf("project to inprogress: %v", err)
	}
	final, err := f.svc.AdvanceProjectStatus(ctx, p.ID, StatusCompleted)
	if err != nil {
		t.Fatalf("project to completed: %v", err)
	}
	if final.CompletedAt == nil {
		t.Fatalf("project CompletedAt must be stamped")
	}
}

func TestProjectDueDateRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := f.ctx("manager-1")
	due := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	p, err := f.svc.CreateProject(ctx, CreateProjectInput{Name: "q2 launch", DueDate: &due})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if p.DueDate == nil || !p.DueDate.Equal(due) {
		t.Fatalf("due date not carried, got %v", p.DueDate)
	}

	moved := due.AddDate(0, 1, 0)
	after, err := f.svc.UpdateProject(ctx, p.ID, ProjectUpdate{DueDate: &moved})
	if err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}
	if after.DueDate == nil || !after.DueDate.Equal(moved) {
		t.Fatalf("due date not updated, got %v", after.DueDate)
	}
}

func TestTaskComments(t *testing.T) {
	f := newFixture(t)
	ctx := f.ctx("manager-1")
	created, err := f.svc.CreateTask(ctx, CreateTaskInput{Title: "review"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	if _, err := f.svc.AddTaskComment(ctx, created.ID, "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank body must be rejected, got %v", err)
	}
	if _, err := f.svc.AddTaskComment(ctx, "missing", "hi"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("comment on absent task must fail, got %v", err)
	}

	c, err := f.svc.AddTaskComment(ctx, created.ID, "  looks good  ")
	if err != nil {
		t.Fatalf("AddTaskComment: %v", err)
	}
	if c.Body != "looks good" {
		t.Fatalf("body not trimmed, got %q", c.Body)
	}
	if c.AuthorID != "manager-1" {
		t.Fatalf("author must come from the principal, got %q", c.AuthorID)
	}

	listed, err := f.svc.ListTaskComments(ctx, created.ID, 1, 50)
	if err != nil {
		t.Fatalf("ListTaskComments: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != c.ID {
		t.Fatalf("expected the one comment back, got %+v", listed)
	}
}

func TestUpdateCommentAuthorOnly(t *testing.T) {
	f := newFixture(t)
	author := f.ctxWithRole("member-1", auth.RoleMember)
	created, err := f.svc.CreateTask(f.ctx("manager-1"), CreateTaskInput{Title: "draft"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	c, err := f.svc.AddTaskComment(author, created.ID, "first pass")
	if err != nil {
		t.Fatalf("AddTaskComment: %v", err)
	}

	if _, err := f.svc.UpdateComment(f.ctx("manager-1"), c.ID, "rewritten"); !errors.Is(err, ErrNotAuthor) {
		t.Fatalf("non-author edit must fail even for managers, got %v", err)
	}

	after, err := f.svc.UpdateComment(author, c.ID, "second pass")
	if err != nil {
		t.Fatalf("author edit: %v", err)
	}
	if after.Body != "second pass" {
		t.Fatalf("body not updated, got %q", after.Body)
	}
}

func TestDeleteCommentAuthorOrManager(t *testing.T) {
	f := newFixture(t)
	author := f.ctxWithRole("member-1", auth.RoleMember)
	created, err := f.svc.CreateTask(f.ctx("manager-1"), CreateTaskInput{Title: "notes"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	c, err := f.svc.AddTaskComment(author, created.ID, "keep this")
	if err != nil {
		t.Fatalf("AddTaskComment: %v", err)
	}

	other := f.ctxWithRole("member-2", auth.RoleMember)
	if err := f.svc.DeleteComment(other, c.ID); !errors.Is(err, ErrNotAuthor) {
		t.Fatalf("plain member must not delete another's comment, got %v", err)
	}

	if err := f.svc.DeleteComment(f.ctx("manager-1"), c.ID); err != nil {
		t.Fatalf("manager moderation delete: %v", err)
	}
	if f.comments.comments[0].DeletedBy != "manager-1" {
		t.Fatalf("deletion must record who removed it, got %q", f.comments.comments[0].DeletedBy)
	}
	if _, err := f.svc.ListTaskComments(author, created.ID, 1, 50); err != nil {
		t.Fatalf("ListTaskComments: %v", err)
	}
}

func TestDeleteTaskWritesAudit(t *testing.T) {
	f := newFixture(t)
	ctx := f.ctx("manager-1")
	created, err := f.svc.CreateTask(ctx, CreateTaskInput{Title: "cleanup"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if err := f.svc.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if _, err := f.svc.GetTask(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted task must be gone, got %v", err)
	}

	last := f.audit.entries[len(f.audit.entries)-1]
	if last.action != "task.delete" || last.before == nil || last.after != nil {
		t.Fatalf("delete audit must carry before snapshot only, got %+v", last)
	}
}
