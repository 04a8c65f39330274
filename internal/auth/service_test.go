package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type fakeUserStore struct {
	users []*User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{}
}

func sameTenant(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (f *fakeUserStore) CreateUser(ctx context.Context, u *User) error {
	for _, existing := range f.users {
		if !existing.IsDeleted && existing.Email == u.Email && sameTenant(existing.TenantID, u.TenantID) {
			return ErrConflict
		}
	}
	f.users = append(f.users, u)
	return nil
}

func (f *fakeUserStore) FindUser(ctx context.Context, id string) (*User, error) {
	for _, u := range f.users {
		if !u.IsDeleted && u.ID == id {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeUserStore) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	// Null-tenant rows win, matching the SQL ordering.
	var fallback *User
	for _, u := range f.users {
		if u.IsDeleted || u.Email != email {
			continue
		}
		if u.TenantID == nil {
			return u, nil
		}
		if fallback == nil {
			fallback = u
		}
	}
	if fallback == nil {
		return nil, ErrNotFound
	}
	return fallback, nil
}

func (f *fakeUserStore) FindUserByEmailInTenant(ctx context.Context, email string, tenantID uuid.UUID) (*User, error) {
	for _, u := range f.users {
		if !u.IsDeleted && u.Email == email && u.TenantID != nil && *u.TenantID == tenantID {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeUserStore) ListUsersByTenant(ctx context.Context, tenantID uuid.UUID) ([]*User, error) {
	var out []*User
	for _, u := range f.users {
		if !u.IsDeleted && u.TenantID != nil && *u.TenantID == tenantID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserStore) UpdateUserRoles(ctx context.Context, tenantID uuid.UUID, id string, roles []string) (*User, error) {
	for _, u := range f.users {
		if !u.IsDeleted && u.ID == id && u.TenantID != nil && *u.TenantID == tenantID {
			u.Roles = roles
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeUserStore) SoftDeleteUser(ctx context.Context, tenantID uuid.UUID, id string) error {
	for _, u := range f.users {
		if !u.IsDeleted && u.ID == id && u.TenantID != nil && *u.TenantID == tenantID {
			u.IsDeleted = true
			return nil
		}
	}
	return ErrNotFound
}

func TestRegisterRequiresTenantForScopedRoles(t *testing.T) {
	svc := NewService(newFakeUserStore())
	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "m@acme.test",
		Password: "pw",
		Role:     RoleMember,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRegisterSuperAdminRejectsTenant(t *testing.T) {
	svc := NewService(newFakeUserStore())
	tid := uuid.New()
	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "root@taskgrid.test",
		Password: "pw",
		Role:     RoleSuperAdmin,
		TenantID: &tid,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLoginTenantMismatchIsUnauthorized(t *testing.T) {
	withTestSecret(t)
	store := newFakeUserStore()
	svc := NewService(store)

	tid := uuid.New()
	if _, err := svc.Register(context.Background(), RegisterInput{
		Email:    "m@acme.test",
		Password: "secret",
		Role:     RoleMember,
		TenantID: &tid,
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	other := uuid.New()
	if _, err := svc.Login(context.Background(), "m@acme.test", "secret", &other); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized on tenant mismatch, got %v", err)
	}

	session, err := svc.Login(context.Background(), "m@acme.test", "secret", &tid)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if session.Token == "" || session.User.ID == "" {
		t.Fatalf("expected a usable session, got %+v", session)
	}
}

func TestLoginSuperAdminSkipsTenantCheck(t *testing.T) {
	withTestSecret(t)
	store := newFakeUserStore()
	svc := NewService(store)

	if _, err := svc.Register(context.Background(), RegisterInput{
		Email:    "root@taskgrid.test",
		Password: "secret",
		Role:     RoleSuperAdmin,
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	session, err := svc.Login(context.Background(), "root@taskgrid.test", "secret", nil)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := ParseAndValidate(session.Token)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if claims.TenantID != "" {
		t.Fatalf("super-admin session must not carry a tenant claim")
	}

	ok, err := svc.IsSuperAdminEmail(context.Background(), "root@taskgrid.test")
	if err != nil || !ok {
		t.Fatalf("IsSuperAdminEmail = %v, %v", ok, err)
	}
	ok, _ = svc.IsSuperAdminEmail(context.Background(), "nobody@taskgrid.test")
	if ok {
		t.Fatalf("unknown email must not be super-admin")
	}
}

func TestLoginSameEmailAcrossTenants(t *testing.T) {
	withTestSecret(t)
	store := newFakeUserStore()
	svc := NewService(store)

	tenantA := uuid.New()
	tenantB := uuid.New()
	for _, tid := range []*uuid.UUID{&tenantA, &tenantB} {
		if _, err := svc.Register(context.Background(), RegisterInput{
			Email:    "shared@acme.test",
			Password: "secret",
			Role:     RoleMember,
			TenantID: tid,
		}); err != nil {
			t.Fatalf("Register in %s: %v", *tid, err)
		}
	}

	// Each tenant's user must reach their own row regardless of how tenant
	// ids happen to sort.
	for _, tid := range []uuid.UUID{tenantA, tenantB} {
		session, err := svc.Login(context.Background(), "shared@acme.test", "secret", &tid)
		if err != nil {
			t.Fatalf("Login into %s: %v", tid, err)
		}
		if session.User.TenantID == nil || *session.User.TenantID != tid {
			t.Fatalf("session user belongs to %v, want %s", session.User.TenantID, tid)
		}
	}
}

func TestUpdateUserRole(t *testing.T) {
	store := newFakeUserStore()
	svc := NewService(store)

	tid := uuid.New()
	user, err := svc.Register(context.Background(), RegisterInput{
		Email:    "m@acme.test",
		Password: "pw",
		Role:     RoleMember,
		TenantID: &tid,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	updated, err := svc.UpdateUserRole(context.Background(), tid, user.ID, "Manager")
	if err != nil {
		t.Fatalf("UpdateUserRole: %v", err)
	}
	if len(updated.Roles) != 1 || updated.Roles[0] != RoleManager {
		t.Fatalf("roles = %v, want [%s]", updated.Roles, RoleManager)
	}

	if _, err := svc.UpdateUserRole(context.Background(), tid, user.ID, RoleSuperAdmin); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("granting super-admin must fail with ErrInvalidInput, got %v", err)
	}
	if _, err := svc.UpdateUserRole(context.Background(), uuid.New(), user.ID, RoleManager); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-tenant role update must be ErrNotFound, got %v", err)
	}
}

func TestCapabilitiesForRoles(t *testing.T) {
	caps := CapabilitiesForRoles([]string{"Admin", "manager", "admin"})
	set := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		if _, dup := set[c]; dup {
			t.Fatalf("duplicate capability %s", c)
		}
		set[c] = struct{}{}
	}
	for _, want := range []Capability{CapManageTenant, CapManageUsers, CapManageProjects, CapManageTasks, CapViewTasks} {
		if _, ok := set[want]; !ok {
			t.Fatalf("missing capability %s in %v", want, caps)
		}
	}
	if _, ok := set[CapManageTenants]; ok {
		t.Fatalf("tenant admin must not receive the all-tenants capability")
	}
}
