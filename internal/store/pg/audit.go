package pg

import (
	"context"

	"github.com/google/uuid"

	"taskgrid.org/internal/audit"
)

var _ audit.Store = (*Store)(nil)

func (s *Store) CreateEntry(ctx context.Context, e *audit.Entry) error {
	_, err := s.db.ExecContext(ctx, `
		insert into audit_log(id, tenant_id, actor_id, actor_email, action, entity, entity_id, changes, created_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, e.ID, e.TenantID, e.ActorID, e.ActorEmail, e.Action, e.Entity, e.EntityID, []byte(e.Changes), e.CreatedAt)
	return err
}

func (s *Store) ListEntries(ctx context.Context, tenantID *uuid.UUID, page, pageSize int) ([]*audit.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, tenant_id, actor_id, actor_email, action, entity, entity_id, changes, created_at
		from audit_log
		where $1::uuid is null or tenant_id=$1
		order by created_at desc
		limit $2 offset $3
	`, tenantID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*audit.Entry
	for rows.Next() {
		var e audit.Entry
		var changes []byte
		if err := rows.Scan(&e.ID, &e.TenantID, &e.ActorID, &e.ActorEmail, &e.Action,
			&e.Entity, &e.EntityID, &changes, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Changes = changes
		out = append(out, &e)
	}
	return out, rows.Err()
}
