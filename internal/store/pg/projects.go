package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"taskgrid.org/internal/task"
)

var _ task.ProjectStore = (*Store)(nil)

func (s *Store) CreateProject(ctx context.Context, p *task.Project) error {
	_, err := s.db.ExecContext(ctx, `
		insert into projects(id, tenant_id, name, description, due_date, status, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
	`, p.ID, p.TenantID, p.Name, p.Description, nullTime(p.DueDate), p.Status.String(), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return mapError(err, task.ErrConflict, task.ErrNotFound)
	}
	return nil
}

const projectColumns = `id, tenant_id, name, description, due_date, status, started_at, completed_at,
	created_at, updated_at, is_deleted, deleted_at`

func (s *Store) GetProject(ctx context.Context, tenantID uuid.UUID, id string) (*task.Project, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+projectColumns+` from projects where id=$1 and tenant_id=$2 and not is_deleted
	`, id, tenantID)
	p, err := scanProject(row)
	if err != nil {
		return nil, err
	}
	p.AssignedUserIDs, err = s.projectAssignees(ctx, id)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) ListProjects(ctx context.Context, tenantID uuid.UUID, page, pageSize int) ([]*task.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+projectColumns+` from projects
		where tenant_id=$1 and not is_deleted
		order by created_at desc
		limit $2 offset $3
	`, tenantID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*task.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, p := range out {
		if p.AssignedUserIDs, err = s.projectAssignees(ctx, p.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) UpdateProject(ctx context.Context, tenantID uuid.UUID, id string, upd task.ProjectUpdate) (*task.Project, error) {
	res, err := s.db.ExecContext(ctx, `
		update projects
		set name = coalesce($3, name),
		    description = coalesce($4, description),
		    due_date = coalesce($5, due_date),
		    updated_at = now()
		where id=$1 and tenant_id=$2 and not is_deleted
	`, id, tenantID, upd.Name, upd.Description, nullTime(upd.DueDate))
	if err != nil {
		return nil, mapError(err, task.ErrConflict, task.ErrNotFound)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, task.ErrNotFound
	}
	return s.GetProject(ctx, tenantID, id)
}

func (s *Store) SoftDeleteProject(ctx context.Context, tenantID uuid.UUID, id string) error {
	res, err := s.db.ExecContext(ctx, `
		update projects set is_deleted=true, deleted_at=now(), updated_at=now()
		where id=$1 and tenant_id=$2 and not is_deleted
	`, id, tenantID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return task.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateProjectStatus(ctx context.Context, tenantID uuid.UUID, id string, from task.Status, lc task.Lifecycle) error {
	res, err := s.db.ExecContext(ctx, `
		update projects
		set status=$4,
		    started_at = coalesce($5, started_at),
		    completed_at = coalesce($6, completed_at),
		    updated_at = now()
		where id=$1 and tenant_id=$2 and status=$3 and not is_deleted
	`, id, tenantID, from.String(), lc.Status.String(), nullTime(lc.StartedAt), nullTime(lc.CompletedAt))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return task.ErrStaleStatus
	}
	return nil
}

func (s *Store) AssignProject(ctx context.Context, tenantID uuid.UUID, id, userID string) error {
	res, err := s.db.ExecContext(ctx, `
		insert into project_assignees(project_id, user_id)
		select p.id, $3 from projects p
		where p.id=$1 and p.tenant_id=$2 and not p.is_deleted
		on conflict do nothing
	`, id, tenantID, userID)
	if err != nil {
		return mapError(err, task.ErrConflict, task.ErrNotFound)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetProject(ctx, tenantID, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) projectAssignees(ctx context.Context, projectID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		select user_id from project_assignees where project_id=$1 order by user_id
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func scanProject(row rowScanner) (*task.Project, error) {
	var p task.Project
	var status string
	var due, started, completed, deleted sql.NullTime
	err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.Description, &due, &status,
		&started, &completed, &p.CreatedAt, &p.UpdatedAt, &p.IsDeleted, &deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, task.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Status, err = task.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	p.StartedAt = timePtr(started)
	p.CompletedAt = timePtr(completed)
	p.DeletedAt = timePtr(deleted)
	return &p, nil
}
