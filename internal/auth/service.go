package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskgrid.org/internal/ids"
)

const defaultTokenTTL = 15 * time.Minute

// Service issues sessions and registers users against a UserStore.
type Service struct {
	store    UserStore
	tokenTTL time.Duration
	now      func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithTokenTTL overrides the access token lifetime.
func WithTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service.
func NewService(store UserStore, opts ...ServiceOption) *Service {
	svc := &Service{
		store:    store,
		tokenTTL: defaultTokenTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// RegisterInput carries everything needed to create a user.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
	Role     string
	TenantID *uuid.UUID
}

// Register creates a user with the given role. Super-admins are created with
// no tenant; every other role requires a tenant id.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Password) == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	role := NormalizeRole(in.Role)
	if role == "" {
		role = RoleMember
	}
	if !ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.Role)
	}

	tenantID := in.TenantID
	if role == RoleSuperAdmin {
		// Super-admins live outside tenant scope; an explicit tenant here is
		// a caller mistake, not something to silently adopt.
		if tenantID != nil {
			return nil, fmt.Errorf("%w: super-admin must not carry a tenant", ErrInvalidInput)
		}
	} else if tenantID == nil || *tenantID == uuid.Nil {
		return nil, fmt.Errorf("%w: tenant_id is required", ErrInvalidInput)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &User{
		ID:           ids.New(),
		TenantID:     tenantID,
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		Roles:        []string{role},
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Session is an issued access token plus its owner.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}

// Login authenticates credentials and issues a token. For tenant-scoped
// users the supplied tenant must match the user's tenant; super-admins skip
// the tenant check entirely.
func (s *Service) Login(ctx context.Context, email, password string, tenantID *uuid.UUID) (Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return Session{}, ErrUnauthorized
	}

	// The same email may exist in several tenants, so a tenant login must be
	// looked up inside its tenant. Only the super-admin path, which carries no
	// tenant, may search globally.
	var user *User
	var err error
	if tenantID != nil && *tenantID != uuid.Nil {
		user, err = s.store.FindUserByEmailInTenant(ctx, email, *tenantID)
	} else {
		user, err = s.store.FindUserByEmail(ctx, email)
	}
	if err != nil {
		return Session{}, ErrUnauthorized
	}
	if user.IsDeleted {
		return Session{}, ErrUnauthorized
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return Session{}, ErrUnauthorized
	}

	if !hasSuperAdmin(user.Roles) {
		if tenantID == nil || *tenantID == uuid.Nil {
			return Session{}, fmt.Errorf("%w: tenant is required to log in", ErrInvalidInput)
		}
		if user.TenantID == nil || *user.TenantID != *tenantID {
			return Session{}, ErrUnauthorized
		}
	}

	token, err := GenerateToken(user, s.tokenTTL)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		ExpiresAt: s.now().UTC().Add(s.tokenTTL),
		User:      user,
	}, nil
}

// IsSuperAdminEmail reports whether the email belongs to a super-admin
// account. Used by tenant resolution for unauthenticated login requests.
func (s *Service) IsSuperAdminEmail(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return false, nil
	}
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return false, nil
	}
	return hasSuperAdmin(user.Roles), nil
}

func hasSuperAdmin(roles []string) bool {
	for _, r := range roles {
		if NormalizeRole(r) == RoleSuperAdmin {
			return true
		}
	}
	return false
}
