package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"taskgrid.org/internal/tenant"
)

var _ tenant.Store = (*Store)(nil)

func (s *Store) CreateTenant(ctx context.Context, t *tenant.Tenant) error {
	_, err := s.db.ExecContext(ctx, `
		insert into tenants(id, name, domain, created_at, updated_at)
		values ($1,$2,nullif($3,''),$4,$5)
	`, t.ID, t.Name, t.Domain, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return mapError(err, tenant.ErrConflict, err)
	}
	return nil
}

func (s *Store) GetTenant(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, name, coalesce(domain,''), created_at, updated_at, is_deleted, deleted_at
		from tenants
		where id=$1 and not is_deleted
	`, id)
	return scanTenant(row)
}

func (s *Store) ListTenants(ctx context.Context, page, pageSize int) ([]*tenant.Tenant, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, coalesce(domain,''), created_at, updated_at, is_deleted, deleted_at
		from tenants
		where not is_deleted
		order by created_at desc
		limit $1 offset $2
	`, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*tenant.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) UpdateTenant(ctx context.Context, id uuid.UUID, upd tenant.Update) (*tenant.Tenant, error) {
	res, err := s.db.ExecContext(ctx, `
		update tenants
		set name = coalesce($2, name),
		    domain = coalesce(nullif($3,''), domain),
		    updated_at = now()
		where id=$1 and not is_deleted
	`, id, upd.Name, deref(upd.Domain))
	if err != nil {
		return nil, mapError(err, tenant.ErrConflict, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, tenant.ErrNotFound
	}
	return s.GetTenant(ctx, id)
}

func (s *Store) SoftDeleteTenant(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		update tenants set is_deleted=true, deleted_at=now(), updated_at=now()
		where id=$1 and not is_deleted
	`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return tenant.ErrNotFound
	}
	return nil
}

func (s *Store) TenantExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `select 1 from tenants where id=$1 and not is_deleted`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (*tenant.Tenant, error) {
	var t tenant.Tenant
	var deleted sql.NullTime
	err := row.Scan(&t.ID, &t.Name, &t.Domain, &t.CreatedAt, &t.UpdatedAt, &t.IsDeleted, &deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tenant.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.DeletedAt = timePtr(deleted)
	return &t, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
