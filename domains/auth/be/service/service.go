package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ruidolp/newposter-sub002/domains/auth/be/repo"
	"github.com/ruidolp/newposter-sub002/platform/go/auth"
	"github.com/ruidolp/newposter-sub002/platform/go/persistence"
	"github.com/ruidolp/newposter-sub002/platform/go/tenant"
)

// Credentials is the login payload for both planes.
type Credentials struct {
	Email    string
	Password string
}

// Session is the result of a tenant login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Principal auth.TenantPrincipal
	Email     string
	FullName  string
}

// SuperadminSession is the result of a superadmin login.
type SuperadminSession struct {
	Token     string
	ExpiresAt time.Time
	Principal auth.SuperadminPrincipal
	Email     string
}

// TenantSource yields the request's tenant. tenant.Provider satisfies it.
type TenantSource interface {
	RequireTenant(ctx context.Context) (tenant.Tenant, error)
}

// Service authenticates staff and superadmins.
type Service interface {
	Login(ctx context.Context, creds Credentials) (Session, error)
	SuperadminLogin(ctx context.Context, creds Credentials) (SuperadminSession, error)
}

type service struct {
	repo    repo.Repository
	tenants TenantSource
	codecs  auth.Codecs
	hasher  *auth.PasswordHasher
}

// New constructs the auth Service.
func New(r repo.Repository, tenants TenantSource, codecs auth.Codecs, hasher *auth.PasswordHasher) Service {
	if r == nil {
		panic("auth repository is required")
	}
	if tenants == nil {
		panic("tenant source is required")
	}
	if codecs.Session == nil || codecs.Superadmin == nil {
		panic("token codecs are required")
	}
	if hasher == nil {
		panic("password hasher is required")
	}
	return &service{repo: r, tenants: tenants, codecs: codecs, hasher: hasher}
}

// Login authenticates a staff member of the request's tenant. Unknown email,
// inactive account and wrong password all yield auth.ErrInvalidCredentials
// after exactly one bcrypt comparison.
func (s *service) Login(ctx context.Context, creds Credentials) (Session, error) {
	current, err := s.tenants.RequireTenant(ctx)
	if err != nil {
		return Session{}, err
	}

	email := strings.TrimSpace(creds.Email)
	user, err := s.repo.FindUserByEmailAndTenant(ctx, email, current.ID)
	if err != nil && !errors.Is(err, persistence.ErrUserNotFound) {
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}

	// A missing user carries an empty hash, which Verify compares against the dummy hash.
	ok := s.hasher.Verify(user.PasswordHash, creds.Password)
	if !ok || !user.Active || user.TenantID != current.ID || !user.Role.Valid() {
		return Session{}, auth.ErrInvalidCredentials
	}

	principal := auth.TenantPrincipal{
		UserID:     user.ID,
		Role:       user.Role,
		TenantID:   current.ID,
		TenantSlug: current.Slug,
	}
	token, expiresAt, err := s.codecs.Session.Issue(principal)
	if err != nil {
		return Session{}, fmt.Errorf("issue session token: %w", err)
	}

	return Session{
		Token:     token,
		ExpiresAt: expiresAt,
		Principal: principal,
		Email:     user.Email,
		FullName:  user.FullName,
	}, nil
}

func (s *service) SuperadminLogin(ctx context.Context, creds Credentials) (SuperadminSession, error) {
	admin, err := s.repo.FindSuperadminByEmail(ctx, strings.TrimSpace(creds.Email))
	if err != nil && !errors.Is(err, persistence.ErrSuperadminNotFound) {
		return SuperadminSession{}, fmt.Errorf("lookup superadmin: %w", err)
	}

	ok := s.hasher.Verify(admin.PasswordHash, creds.Password)
	if !ok || !admin.Active {
		return SuperadminSession{}, auth.ErrInvalidCredentials
	}

	principal := auth.SuperadminPrincipal{AdminID: admin.ID}
	token, expiresAt, err := s.codecs.Superadmin.Issue(principal)
	if err != nil {
		return SuperadminSession{}, fmt.Errorf("issue superadmin token: %w", err)
	}

	return SuperadminSession{Token: token, ExpiresAt: expiresAt, Principal: principal, Email: admin.Email}, nil
}
