package task

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskgrid.org/internal/ids"
	"taskgrid.org/internal/tenant"
)

// CreateProjectInput is the caller-supplied part of a new project.
type CreateProjectInput struct {
	Name        string
	Description string
	DueDate     *time.Time
}

func (s *Service) CreateProject(ctx context.Context, in CreateProjectInput) (*Project, error) {
	tenantID, err := tenant.FromContext(ctx).TenantID()
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	now := s.now().UTC()
	p := &Project{
		ID:          ids.New(),
		TenantID:    tenantID,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		DueDate:     in.DueDate,
		Lifecycle:   Lifecycle{Status: StatusUnassigned},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.projects.CreateProject(ctx, p); err != nil {
		return nil, err
	}
	s.record(ctx, "project.create", "project", p.ID, nil, p)
	return p, nil
}

func (s *Service) GetProject(ctx context.Context, id string) (*Project, error) {
	tenantID, err := tenant.FromContext(ctx).TenantID()
	if err != nil {
		return nil, err
	}
	return s.projects.GetProject(ctx, tenantID, id)
}

func (s *Service) ListProjects(ctx context.Context, page, pageSize int) ([]*Project, error) {
	tenantID, err := tenant.FromContext(ctx).TenantID()
	if err != nil {
		return nil, err
	}
	return s.projects.ListProjects(ctx, tenantID, normalizePage(page), normalizePageSize(pageSize))
}

func (s *Service) UpdateProject(ctx context.Context, id string, upd ProjectUpdate) (*Project, error) {
	tenantID, err := tenant.FromContext(ctx).TenantID()
	if err != nil {
		return nil, err
	}
	before, err := s.projects.GetProject(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	}
	after, err := s.projects.UpdateProject(ctx, tenantID, id, upd)
	if err != nil {
		return nil, err
	}
	s.record(ctx, "project.update", "project", id, before, after)
	return after, nil
}

func (s *Service) DeleteProject(ctx context.Context, id string) error {
	tenantID, err := tenant.FromContext(ctx).TenantID()
	if err != nil {
		return err
	}
	before, err := s.projects.GetProject(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.projects.SoftDeleteProject(ctx, tenantID, id); err != nil {
		return err
	}
	s.record(ctx, "project.delete", "project", id, before, nil)
	return nil
}

// AssignProject mirrors AssignTask, including the unassigned-to-assigned
// side effect and the role restriction.
func (s *Service) AssignProject(ctx context.Context, id, userID string) (*Project, error) {
	tenantID, err := tenant.FromContext(ctx).TenantID()
	if err != nil {
		return nil, err
	}
	if err := s.checkAssignable(ctx, tenantID, userID); err != nil {
		return nil, err
	}
	before, err := s.projects.GetProject(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.projects.AssignProject(ctx, tenantID, id, userID); err != nil {
		return nil, err
	}
	if before.Status == StatusUnassigned {
		lc, err := Advance(before.Lifecycle, StatusAssigned, s.now())
		if err != nil {
			return nil, err
		}
		if err := s.projects.UpdateProjectStatus(ctx, tenantID, id, before.Status, lc); err != nil {
			return nil, err
		}
	}
	after, err := s.projects.GetProject(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	s.record(ctx, "project.assign", "project", id, before, after)
	s.fanOut(ctx, after.AssignedUserIDs, Event{
		Kind:     "project.assigned",
		Entity:   "project",
		EntityID: id,
		Title:    after.Name,
		Message:  fmt.Sprintf("project %q was assigned", after.Name),
	})
	return after, nil
}

func (s *Service) AdvanceProjectStatus(ctx context.Context, id string, requested Status) (*Project, error) {
	tenantID, err := tenant.FromContext(ctx).TenantID()
	if err != nil {
		return nil, err
	}
	before, err := s.projects.GetProject(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	lc, err := Advance(before.Lifecycle, requested, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.projects.UpdateProjectStatus(ctx, tenantID, id, before.Status, lc); err != nil {
		return nil, err
	}
	after, err := s.projects.GetProject(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	s.record(ctx, "project.status", "project", id, before, after)
	s.fanOut(ctx, after.AssignedUserIDs, Event{
		Kind:     "project.status",
		Entity:   "project",
		EntityID: id,
		Title:    after.Name,
		Message:  fmt.Sprintf("project %q moved to %s", after.Name, after.Status),
	})
	return after, nil
}
