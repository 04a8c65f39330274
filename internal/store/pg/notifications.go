package pg

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"taskgrid.org/internal/notify"
)

var _ notify.Store = (*Store)(nil)

func (s *Store) CreateNotification(ctx context.Context, n *notify.Notification) error {
	_, err := s.db.ExecContext(ctx, `
		insert into notifications(id, tenant_id, user_id, kind, entity, entity_id, title, message, created_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, n.ID, n.TenantID, n.UserID, n.Kind, n.Entity, n.EntityID, n.Title, n.Message, n.CreatedAt)
	if err != nil {
		return mapError(err, err, notify.ErrNotFound)
	}
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, tenantID uuid.UUID, userID string, unreadOnly bool, page, pageSize int) ([]*notify.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, tenant_id, user_id, kind, entity, entity_id, title, message, read, created_at, read_at
		from notifications
		where tenant_id=$1 and user_id=$2 and (not $3 or not read)
		order by created_at desc
		limit $4 offset $5
	`, tenantID, userID, unreadOnly, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*notify.Notification
	for rows.Next() {
		var n notify.Notification
		var readAt sql.NullTime
		if err := rows.Scan(&n.ID, &n.TenantID, &n.UserID, &n.Kind, &n.Entity, &n.EntityID,
			&n.Title, &n.Message, &n.Read, &n.CreatedAt, &readAt); err != nil {
			return nil, err
		}
		n.ReadAt = timePtr(readAt)
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (s *Store) MarkRead(ctx context.Context, tenantID uuid.UUID, userID, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		update notifications set read=true, read_at=$4
		where id=$1 and tenant_id=$2 and user_id=$3
	`, id, tenantID, userID, at)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notify.ErrNotFound
	}
	return nil
}
