package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestAuthorizeRoleHierarchy(t *testing.T) {
	t.Parallel()

	for _, held := range Roles() {
		for _, required := range Roles() {
			held, required := held, required
			t.Run(string(held)+"_requires_"+string(required), func(t *testing.T) {
				t.Parallel()

				err := Authorize(TenantPrincipal{Role: held}, required)
				if held.Level() >= required.Level() {
					require.NoError(t, err)
					return
				}
				require.ErrorIs(t, err, ErrForbidden)
			})
		}
	}
}

func TestAuthorizeEdgeCases(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Authorize(TenantPrincipal{Role: "MANAGER"}, RoleCashier), ErrForbidden)
	require.ErrorIs(t, Authorize(SuperadminPrincipal{AdminID: uuid.New()}, RoleCashier), ErrForbidden)
	require.ErrorIs(t, Authorize(nil, RoleCashier), ErrForbidden)
	require.ErrorIs(t, Authorize(TenantPrincipal{Role: RoleStaff}, RoleAdmin), ErrForbidden)

	require.NoError(t, AuthorizeSuperadmin(SuperadminPrincipal{AdminID: uuid.New()}))
	require.ErrorIs(t, AuthorizeSuperadmin(TenantPrincipal{Role: RoleOwner}), ErrForbidden)
}

func TestAuthorizeTenantMismatch(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	p := TenantPrincipal{UserID: uuid.New(), Role: RoleOwner, TenantID: tenantID}

	require.NoError(t, AuthorizeTenant(p, tenantID, RoleAdmin))
	require.ErrorIs(t, AuthorizeTenant(p, uuid.New(), RoleCashier), ErrForbidden)
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	role, err := ParseRole(" admin ")
	require.NoError(t, err)
	require.Equal(t, RoleAdmin, role)

	_, err = ParseRole("superuser")
	require.Error(t, err)
}
