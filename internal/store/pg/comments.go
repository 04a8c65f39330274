package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"taskgrid.org/internal/task"
)

var _ task.CommentStore = (*Store)(nil)

func (s *Store) CreateComment(ctx context.Context, c *task.Comment) error {
	_, err := s.db.ExecContext(ctx, `
		insert into comments(id, tenant_id, entity, entity_id, author_id, body, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
	`, c.ID, c.TenantID, c.Entity, c.EntityID, c.AuthorID, c.Body, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return mapError(err, task.ErrConflict, task.ErrNotFound)
	}
	return nil
}

const commentColumns = `id, tenant_id, entity, entity_id, author_id, body,
	created_at, updated_at, is_deleted, deleted_at, deleted_by`

func (s *Store) GetComment(ctx context.Context, tenantID uuid.UUID, id string) (*task.Comment, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+commentColumns+` from comments where id=$1 and tenant_id=$2 and not is_deleted
	`, id, tenantID)
	return scanComment(row)
}

func (s *Store) ListComments(ctx context.Context, tenantID uuid.UUID, entity, entityID string, page, pageSize int) ([]*task.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+commentColumns+` from comments
		where tenant_id=$1 and entity=$2 and entity_id=$3 and not is_deleted
		order by created_at
		limit $4 offset $5
	`, tenantID, entity, entityID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*task.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) UpdateCommentBody(ctx context.Context, tenantID uuid.UUID, id, body string, at time.Time) (*task.Comment, error) {
	row := s.db.QueryRowContext(ctx, `
		update comments set body=$3, updated_at=$4
		where id=$1 and tenant_id=$2 and not is_deleted
		returning `+commentColumns+`
	`, id, tenantID, body, at)
	return scanComment(row)
}

func (s *Store) SoftDeleteComment(ctx context.Context, tenantID uuid.UUID, id, deletedBy string) error {
	res, err := s.db.ExecContext(ctx, `
		update comments set is_deleted=true, deleted_at=now(), deleted_by=$3, updated_at=now()
		where id=$1 and tenant_id=$2 and not is_deleted
	`, id, tenantID, deletedBy)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return task.ErrNotFound
	}
	return nil
}

func scanComment(row rowScanner) (*task.Comment, error) {
	var c task.Comment
	var deleted sql.NullTime
	err := row.Scan(&c.ID, &c.TenantID, &c.Entity, &c.EntityID, &c.AuthorID, &c.Body,
		&c.CreatedAt, &c.UpdatedAt, &c.IsDeleted, &deleted, &c.DeletedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, task.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.DeletedAt = timePtr(deleted)
	return &c, nil
}
