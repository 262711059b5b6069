package auth

import (
	"net/http"

	"github.com/google/uuid"
)

// Guard authenticates requests for either trust domain.
type Guard struct {
	codecs Codecs
}

// NewGuard constructs a Guard.
func NewGuard(codecs Codecs) *Guard {
	if codecs.Session == nil || codecs.Superadmin == nil {
		panic("auth guard: both token codecs are required")
	}
	return &Guard{codecs: codecs}
}

// Codecs exposes the token families for login handlers.
func (g *Guard) Codecs() Codecs {
	return g.codecs
}

// AuthenticateSession verifies the session token. Superadmin tokens never pass.
func (g *Guard) AuthenticateSession(r *http.Request) (TenantPrincipal, error) {
	token, ok := tokenFromRequest(r, g.codecs.Session.CookieName())
	if !ok {
		return TenantPrincipal{}, ErrUnauthenticated
	}

	p, err := g.codecs.Session.Verify(token)
	if err != nil || !p.Role.Valid() || p.UserID == uuid.Nil || p.TenantID == uuid.Nil {
		return TenantPrincipal{}, ErrUnauthenticated
	}
	return p, nil
}

// AuthenticateSuperadmin verifies the superadmin token. Session tokens never pass.
func (g *Guard) AuthenticateSuperadmin(r *http.Request) (SuperadminPrincipal, error) {
	token, ok := tokenFromRequest(r, g.codecs.Superadmin.CookieName())
	if !ok {
		return SuperadminPrincipal{}, ErrUnauthenticated
	}

	p, err := g.codecs.Superadmin.Verify(token)
	if err != nil || p.AdminID == uuid.Nil {
		return SuperadminPrincipal{}, ErrUnauthenticated
	}
	return p, nil
}

// Authorize allows tenant principals whose role ranks at or above min.
// Superadmins belong to another trust domain and are always forbidden here.
func Authorize(p Principal, min Role) error {
	tp, ok := p.(TenantPrincipal)
	if !ok || !tp.Role.AtLeast(min) {
		return ErrForbidden
	}
	return nil
}

// AuthorizeTenant is Authorize plus a check that the token was issued for tenantID.
func AuthorizeTenant(p Principal, tenantID uuid.UUID, min Role) error {
	if err := Authorize(p, min); err != nil {
		return err
	}
	if p.(TenantPrincipal).TenantID != tenantID {
		return ErrForbidden
	}
	return nil
}

// AuthorizeSuperadmin allows only superadmin principals.
func AuthorizeSuperadmin(p Principal) error {
	if _, ok := p.(SuperadminPrincipal); !ok {
		return ErrForbidden
	}
	return nil
}
