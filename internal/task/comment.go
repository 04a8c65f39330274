package task

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	entityTask    = "task"
	entityProject = "project"
)

// Comment is a tenant-scoped note attached to a task or a project. Soft
// deletion keeps the row and records who removed it.
type Comment struct {
	ID        string
	TenantID  uuid.UUID
	Entity    string
	EntityID  string
	AuthorID  string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
	IsDeleted bool
	DeletedAt *time.Time
	DeletedBy string
}

// CommentStore persists comments. Listing returns active comments oldest
// first.
type CommentStore interface {
	CreateComment(ctx context.Context, c *Comment) error
	GetComment(ctx context.Context, tenantID uuid.UUID, id string) (*Comment, error)
	ListComments(ctx context.Context, tenantID uuid.UUID, entity, entityID string, page, pageSize int) ([]*Comment, error)
	UpdateCommentBody(ctx context.Context, tenantID uuid.UUID, id, body string, at time.Time) (*Comment, error)
	SoftDeleteComment(ctx context.Context, tenantID uuid.UUID, id, deletedBy string) error
}
