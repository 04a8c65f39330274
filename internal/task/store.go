package task

import (
	"context"

	"github.com/google/uuid"
)

// TaskStore persists tasks. Every read and write is filtered by tenant id; an
// id that exists under another tenant behaves exactly like one that does not
// exist at all.
type TaskStore interface {
	CreateTask(ctx context.Context, t *Task) error
	GetTask(ctx context.Context, tenantID uuid.UUID, id string) (*Task, error)
	ListTasks(ctx context.Context, tenantID uuid.UUID, page, pageSize int) ([]*Task, error)
	UpdateTask(ctx context.Context, tenantID uuid.UUID, id string, upd TaskUpdate) (*Task, error)
	SoftDeleteTask(ctx context.Context, tenantID uuid.UUID, id string) error

	// UpdateTaskStatus persists lc only if the row still holds status from.
	// Returns ErrStaleStatus when the compare fails.
	UpdateTaskStatus(ctx context.Context, tenantID uuid.UUID, id string, from Status, lc Lifecycle) error

	AssignTask(ctx context.Context, tenantID uuid.UUID, id, userID string) error
}

// ProjectStore persists projects under the same tenant filtering rules.
type ProjectStore interface {
	CreateProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, tenantID uuid.UUID, id string) (*Project, error)
	ListProjects(ctx context.Context, tenantID uuid.UUID, page, pageSize int) ([]*Project, error)
	UpdateProject(ctx context.Context, tenantID uuid.UUID, id string, upd ProjectUpdate) (*Project, error)
	SoftDeleteProject(ctx context.Context, tenantID uuid.UUID, id string) error

	UpdateProjectStatus(ctx context.Context, tenantID uuid.UUID, id string, from Status, lc Lifecycle) error

	AssignProject(ctx context.Context, tenantID uuid.UUID, id, userID string) error
}

// UserDirectory answers the one question assignment needs about a user.
type UserDirectory interface {
	UserRoles(ctx context.Context, tenantID uuid.UUID, userID string) ([]string, error)
}
