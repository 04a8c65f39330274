package task

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"taskgrid.org/internal/auth"
	"taskgrid.org/internal/ids"
	"taskgrid.org/internal/tenant"
)

// AddTaskComment attaches a comment to a task in the caller's tenant.
func (s *Service) AddTaskComment(ctx context.Context, taskID, body string) (*Comment, error) {
	tenantID, err := tenant.FromContext(ctx).TenantID()
	if err != nil {
		return nil, err
	}
	if _, err := s.tasks.GetTask(ctx, tenantID, taskID); err != nil {
		return nil, err
	}
	return s.addComment(ctx, tenantID, entityTask, taskID, body)
}

// AddProjectComment attaches a comment to a project in the caller's tenant.
func (s *Service) AddProjectComment(ctx context.Context, projectID, body string) (*Comment, error) {
	tenantID, err := tenant.FromContext(ctx).TenantID()
	if err != nil {
		return nil, err
	}
	if _, err := s.projects.GetProject(ctx, tenantID, projectID); err != nil {
		return nil, err
	}
	return s.addComment(ctx, tenantID, entityProject, projectID, body)
}

func (s *Service) addComment(ctx context.Context, tenantID uuid.UUID, entity, entityID, body string) (*Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: comment body is required", ErrInvalidInput)
	}
	p, _ := auth.PrincipalFromContext(ctx)

	now := s.now().UTC()
	c := &Comment{
		ID:        ids.New(),
		TenantID:  tenantID,
		Entity:    entity,
		EntityID:  entityID,
		AuthorID:  p.UserID,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.comments.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	s.record(ctx, "comment.create", entity, entityID, nil, c)
	return c, nil
}

func (s *Service) ListTaskComments(ctx context.Context, taskID string, page, pageSize int) ([]*Comment, error) {
	return s.listComments(ctx, entityTask, taskID, page, pageSize)
}

func (s *Service) ListProjectComments(ctx context.Context, projectID string, page, pageSize int) ([]*Comment, error) {
	return s.listComments(ctx, entityProject, projectID, page, pageSize)
}

func (s *Service) listComments(ctx context.Context, entity, entityID string, page, pageSize int) ([]*Comment, error) {
	tenantID, err := tenant.FromContext(ctx).TenantID()
	if err != nil {
		return nil, err
	}
	return s.comments.ListComments(ctx, tenantID, entity, entityID, normalizePage(page), normalizePageSize(pageSize))
}

// UpdateComment edits a comment's body. Only the original author may edit.
func (s *Service) UpdateComment(ctx context.Context, id, body string) (*Comment, error) {
	tenantID, err := tenant.FromContext(ctx).TenantID()
	if err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: comment body is required", ErrInvalidInput)
	}
	before, err := s.comments.GetComment(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	p, _ := auth.PrincipalFromContext(ctx)
	if before.AuthorID != p.UserID {
		return nil, ErrNotAuthor
	}
	after, err := s.comments.UpdateCommentBody(ctx, tenantID, id, body, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.record(ctx, "comment.update", after.Entity, after.EntityID, before, after)
	return after, nil
}

// DeleteComment soft-deletes a comment. The author may always remove their
// own; task-managing callers may moderate anyone's.
func (s *Service) DeleteComment(ctx context.Context, id string) error {
	tenantID, err := tenant.FromContext(ctx).TenantID()
	if err != nil {
		return err
	}
	before, err := s.comments.GetComment(ctx, tenantID, id)
	if err != nil {
		return err
	}
	p, _ := auth.PrincipalFromContext(ctx)
	if before.AuthorID != p.UserID && !p.Can(auth.CapManageTasks) {
		return ErrNotAuthor
	}
	if err := s.comments.SoftDeleteComment(ctx, tenantID, id, p.UserID); err != nil {
		return err
	}
	s.record(ctx, "comment.delete", before.Entity, before.EntityID, before, nil)
	return nil
}
