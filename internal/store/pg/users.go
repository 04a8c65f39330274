package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"taskgrid.org/internal/auth"
)

var _ auth.UserStore = (*Store)(nil)

func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	roles, err := json.Marshal(u.Roles)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into users(id, tenant_id, email, name, password_hash, roles, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
	`, u.ID, u.TenantID, u.Email, u.Name, u.PasswordHash, roles, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return mapError(err, auth.ErrConflict, auth.ErrNotFound)
	}
	return nil
}

const userColumns = `id, tenant_id, email, name, password_hash, roles, created_at, updated_at, is_deleted, deleted_at`

func (s *Store) FindUser(ctx context.Context, id string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+userColumns+` from users where id=$1 and not is_deleted
	`, id)
	return scanUser(row)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	// nulls first keeps the super-admin row ahead of any tenant rows that
	// share the email; this lookup serves the null-tenant path only.
	row := s.db.QueryRowContext(ctx, `
		select `+userColumns+` from users where lower(email)=lower($1) and not is_deleted
		order by tenant_id nulls first
		limit 1
	`, email)
	return scanUser(row)
}

func (s *Store) FindUserByEmailInTenant(ctx context.Context, email string, tenantID uuid.UUID) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+userColumns+` from users
		where lower(email)=lower($1) and tenant_id=$2 and not is_deleted
	`, email, tenantID)
	return scanUser(row)
}

func (s *Store) ListUsersByTenant(ctx context.Context, tenantID uuid.UUID) ([]*auth.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+userColumns+` from users where tenant_id=$1 and not is_deleted
		order by created_at
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*auth.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) UpdateUserRoles(ctx context.Context, tenantID uuid.UUID, id string, roles []string) (*auth.User, error) {
	raw, err := json.Marshal(roles)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `
		update users set roles=$3, updated_at=now()
		where id=$1 and tenant_id=$2 and not is_deleted
		returning `+userColumns+`
	`, id, tenantID, raw)
	return scanUser(row)
}

func (s *Store) SoftDeleteUser(ctx context.Context, tenantID uuid.UUID, id string) error {
	res, err := s.db.ExecContext(ctx, `
		update users set is_deleted=true, deleted_at=now(), updated_at=now()
		where id=$1 and tenant_id=$2 and not is_deleted
	`, id, tenantID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return auth.ErrNotFound
	}
	return nil
}

// UserRoles satisfies the assignment directory without loading the whole row.
func (s *Store) UserRoles(ctx context.Context, tenantID uuid.UUID, userID string) ([]string, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `
		select roles from users where id=$1 and tenant_id=$2 and not is_deleted
	`, userID, tenantID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var roles []string
	if err := json.Unmarshal(raw, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

func scanUser(row rowScanner) (*auth.User, error) {
	var u auth.User
	var rawRoles []byte
	var deleted sql.NullTime
	err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.Name, &u.PasswordHash, &rawRoles,
		&u.CreatedAt, &u.UpdatedAt, &u.IsDeleted, &deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rawRoles, &u.Roles); err != nil {
		return nil, err
	}
	u.DeletedAt = timePtr(deleted)
	return &u, nil
}
