package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"taskgrid.org/internal/task"
)

var _ task.TaskStore = (*Store)(nil)

func (s *Store) CreateTask(ctx context.Context, t *task.Task) error {
	_, err := s.db.ExecContext(ctx, `
		insert into tasks(id, tenant_id, project_id, title, description, due_date, status, created_at, updated_at)
		values ($1,$2,nullif($3,''),$4,$5,$6,$7,$8,$9)
	`, t.ID, t.TenantID, t.ProjectID, t.Title, t.Description, nullTime(t.DueDate),
		t.Status.String(), t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return mapError(err, task.ErrConflict, task.ErrNotFound)
	}
	return nil
}

const taskColumns = `id, tenant_id, coalesce(project_id,''), title, description, due_date,
	status, started_at, completed_at, created_at, updated_at, is_deleted, deleted_at`

func (s *Store) GetTask(ctx context.Context, tenantID uuid.UUID, id string) (*task.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+taskColumns+` from tasks where id=$1 and tenant_id=$2 and not is_deleted
	`, id, tenantID)
	t, err := scanTask(row)
	if err != nil {
		return nil, err
	}
	t.AssignedUserIDs, err = s.taskAssignees(ctx, id)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Store) ListTasks(ctx context.Context, tenantID uuid.UUID, page, pageSize int) ([]*task.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+taskColumns+` from tasks
		where tenant_id=$1 and not is_deleted
		order by created_at desc
		limit $2 offset $3
	`, tenantID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, t := range out {
		if t.AssignedUserIDs, err = s.taskAssignees(ctx, t.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) UpdateTask(ctx context.Context, tenantID uuid.UUID, id string, upd task.TaskUpdate) (*task.Task, error) {
	res, err := s.db.ExecContext(ctx, `
		update tasks
		set title = coalesce($3, title),
		    description = coalesce($4, description),
		    due_date = coalesce($5, due_date),
		    project_id = coalesce(nullif($6,''), project_id),
		    updated_at = now()
		where id=$1 and tenant_id=$2 and not is_deleted
	`, id, tenantID, upd.Title, upd.Description, nullTime(upd.DueDate), deref(upd.ProjectID))
	if err != nil {
		return nil, mapError(err, task.ErrConflict, task.ErrNotFound)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, task.ErrNotFound
	}
	return s.GetTask(ctx, tenantID, id)
}

func (s *Store) SoftDeleteTask(ctx context.Context, tenantID uuid.UUID, id string) error {
	res, err := s.db.ExecContext(ctx, `
		update tasks set is_deleted=true, deleted_at=now(), updated_at=now()
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

// UpdateTaskStatus is the compare-and-set against the persisted status. Zero
// rows means either the row is gone or another request moved the status
// first; both resolve by re-reading.
func (s *Store) UpdateTaskStatus(ctx context.Context, tenantID uuid.UUID, id string, from task.Status, lc task.Lifecycle) error {
	res, err := s.db.ExecContext(ctx, `
		update tasks
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

func (s *Store) AssignTask(ctx context.Context, tenantID uuid.UUID, id, userID string) error {
	res, err := s.db.ExecContext(ctx, `
		insert into task_assignees(task_id, user_id)
		select t.id, $3 from tasks t
		where t.id=$1 and t.tenant_id=$2 and not t.is_deleted
		on conflict do nothing
	`, id, tenantID, userID)
	if err != nil {
		return mapError(err, task.ErrConflict, task.ErrNotFound)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either the task is gone or the user is already assigned; the
		// already-assigned case is idempotent, so distinguish via lookup.
		if _, err := s.GetTask(ctx, tenantID, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) taskAssignees(ctx context.Context, taskID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		select user_id from task_assignees where task_id=$1 order by user_id
	`, taskID)
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

func scanTask(row rowScanner) (*task.Task, error) {
	var t task.Task
	var status string
	var due, started, completed, deleted sql.NullTime
	err := row.Scan(&t.ID, &t.TenantID, &t.ProjectID, &t.Title, &t.Description, &due,
		&status, &started, &completed, &t.CreatedAt, &t.UpdatedAt, &t.IsDeleted, &deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, task.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.Status, err = task.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	t.DueDate = timePtr(due)
	t.StartedAt = timePtr(started)
	t.CompletedAt = timePtr(completed)
	t.DeletedAt = timePtr(deleted)
	return &t, nil
}
