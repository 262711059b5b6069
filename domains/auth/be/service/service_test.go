package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ruidolp/newposter-sub002/platform/go/auth"
	"github.com/ruidolp/newposter-sub002/platform/go/persistence"
	"github.com/ruidolp/newposter-sub002/platform/go/tenant"
)

type mockRepository struct {
	findUserFn  func(ctx context.Context, email string, tenantID uuid.UUID) (persistence.User, error)
	findAdminFn func(ctx context.Context, email string) (persistence.Superadmin, error)
}

func (m *mockRepository) FindUserByEmailAndTenant(ctx context.Context, email string, tenantID uuid.UUID) (persistence.User, error) {
	if m.findUserFn == nil {
		panic("findUserFn not configured")
	}
	return m.findUserFn(ctx, email, tenantID)
}

func (m *mockRepository) FindSuperadminByEmail(ctx context.Context, email string) (persistence.Superadmin, error) {
	if m.findAdminFn == nil {
		panic("findAdminFn not configured")
	}
	return m.findAdminFn(ctx, email)
}

type staticTenant struct {
	t   tenant.Tenant
	err error
}

func (s staticTenant) RequireTenant(context.Context) (tenant.Tenant, error) {
	return s.t, s.err
}

func newCodecs(t *testing.T) auth.Codecs {
	t.Helper()
	codecs, err := auth.NewCodecs(
		auth.CodecConfig{Secret: []byte(strings.Repeat("s", 32))},
		auth.CodecConfig{Secret: []byte(strings.Repeat("a", 32))},
	)
	require.NoError(t, err)
	return codecs
}

func newHasher(t *testing.T) *auth.PasswordHasher {
	t.Helper()
	h, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestLogin(t *testing.T) {
	t.Parallel()

	acme := tenant.Tenant{ID: uuid.New(), Slug: "acme", Active: true}
	hasher := newHasher(t)
	codecs := newCodecs(t)

	hash, err := hasher.Hash("correct-horse")
	require.NoError(t, err)

	active := persistence.User{
		ID: uuid.New(), TenantID: acme.ID, Email: "cashier@acme.test", FullName: "Cash",
		Role: auth.RoleCashier, PasswordHash: hash, Active: true,
	}
	inactive := active
	inactive.Active = false

	tests := []struct {
		name     string
		user     persistence.User
		lookup   error
		password string
		wantErr  error
	}{
		{name: "success", user: active, password: "correct-horse"},
		{name: "wrong password", user: active, password: "nope", wantErr: auth.ErrInvalidCredentials},
		{name: "unknown email", lookup: persistence.ErrUserNotFound, password: "correct-horse", wantErr: auth.ErrInvalidCredentials},
		{name: "inactive user", user: inactive, password: "correct-horse", wantErr: auth.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &mockRepository{
				findUserFn: func(ctx context.Context, email string, tenantID uuid.UUID) (persistence.User, error) {
					require.Equal(t, acme.ID, tenantID)
					require.Equal(t, "cashier@acme.test", email)
					return tt.user, tt.lookup
				},
			}
			svc := New(repo, staticTenant{t: acme}, codecs, hasher)

			session, err := svc.Login(context.Background(), Credentials{Email: " cashier@acme.test ", Password: tt.password})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Empty(t, session.Token)
				return
			}
			require.NoError(t, err)

			principal, err := codecs.Session.Verify(session.Token)
			require.NoError(t, err)
			require.Equal(t, active.ID, principal.UserID)
			require.Equal(t, acme.ID, principal.TenantID)
			require.Equal(t, "acme", principal.TenantSlug)
			require.Equal(t, auth.RoleCashier, principal.Role)
		})
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	t.Parallel()

	acme := tenant.Tenant{ID: uuid.New(), Slug: "acme", Active: true}
	hasher := newHasher(t)
	hash, err := hasher.Hash("correct-horse")
	require.NoError(t, err)

	repo := &mockRepository{
		findUserFn: func(ctx context.Context, email string, tenantID uuid.UUID) (persistence.User, error) {
			if email == "known@acme.test" {
				return persistence.User{ID: uuid.New(), TenantID: acme.ID, Role: auth.RoleStaff, PasswordHash: hash, Active: true}, nil
			}
			return persistence.User{}, persistence.ErrUserNotFound
		},
	}
	svc := New(repo, staticTenant{t: acme}, newCodecs(t), hasher)

	_, wrongPassword := svc.Login(context.Background(), Credentials{Email: "known@acme.test", Password: "wrong"})
	_, unknownEmail := svc.Login(context.Background(), Credentials{Email: "ghost@acme.test", Password: "wrong"})

	require.Error(t, wrongPassword)
	require.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLoginPropagatesStorageAndTenantErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	repo := &mockRepository{
		findUserFn: func(context.Context, string, uuid.UUID) (persistence.User, error) {
			return persistence.User{}, boom
		},
	}

	svc := New(repo, staticTenant{t: tenant.Tenant{ID: uuid.New()}}, newCodecs(t), newHasher(t))
	_, err := svc.Login(context.Background(), Credentials{Email: "a@b.test", Password: "x"})
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, auth.ErrInvalidCredentials)

	svc = New(repo, staticTenant{err: tenant.ErrTenantNotFound}, newCodecs(t), newHasher(t))
	_, err = svc.Login(context.Background(), Credentials{Email: "a@b.test", Password: "x"})
	require.ErrorIs(t, err, tenant.ErrTenantNotFound)
}

func TestSuperadminLogin(t *testing.T) {
	t.Parallel()

	hasher := newHasher(t)
	codecs := newCodecs(t)
	hash, err := hasher.Hash("root-password")
	require.NoError(t, err)
	admin := persistence.Superadmin{ID: uuid.New(), Email: "root@newposter.test", PasswordHash: hash, Active: true}

	repo := &mockRepository{
		findAdminFn: func(ctx context.Context, email string) (persistence.Superadmin, error) {
			if email == admin.Email {
				return admin, nil
			}
			return persistence.Superadmin{}, persistence.ErrSuperadminNotFound
		},
	}
	svc := New(repo, staticTenant{}, codecs, hasher)

	session, err := svc.SuperadminLogin(context.Background(), Credentials{Email: admin.Email, Password: "root-password"})
	require.NoError(t, err)

	principal, err := codecs.Superadmin.Verify(session.Token)
	require.NoError(t, err)
	require.Equal(t, admin.ID, principal.AdminID)

	// A superadmin token is never a session token.
	_, err = codecs.Session.Verify(session.Token)
	require.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = svc.SuperadminLogin(context.Background(), Credentials{Email: "nobody@newposter.test", Password: "root-password"})
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}
