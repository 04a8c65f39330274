package task

import (
	"time"

	"github.com/google/uuid"
)

// Task is a tenant-scoped work item. TenantID is stamped at creation from the
// resolved tenant context and never updated afterwards.
type Task struct {
	ID          string
	TenantID    uuid.UUID
	ProjectID   string
	Title       string
	Description string
	DueDate     *time.Time
	Lifecycle
	AssignedUserIDs []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	IsDeleted       bool
	DeletedAt       *time.Time
}

// Project groups tasks inside one tenant. It carries the same lifecycle as a
// task and the same per-tenant name uniqueness rule.
type Project struct {
	ID          string
	TenantID    uuid.UUID
	Name        string
	Description string
	DueDate     *time.Time
	Lifecycle
	AssignedUserIDs []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	IsDeleted       bool
	DeletedAt       *time.Time
}

// TaskUpdate carries the mutable fields of a task. Nil means leave unchanged.
// Status moves only through the transition endpoint, never through update.
type TaskUpdate struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	ProjectID   *string
}

// ProjectUpdate carries the mutable fields of a project.
type ProjectUpdate struct {
	Name        *string
	Description *string
	DueDate     *time.Time
}
