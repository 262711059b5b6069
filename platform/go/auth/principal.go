package auth

import (
	"context"

	"github.com/google/uuid"
)

// Principal is the authenticated caller. It is either a TenantPrincipal or a
// SuperadminPrincipal; no other implementations exist.
type Principal interface {
	principal()
}

// TenantPrincipal is a staff member of one tenant. It is also the session token payload.
type TenantPrincipal struct {
	UserID     uuid.UUID `json:"id"`
	Role       Role      `json:"role"`
	TenantID   uuid.UUID `json:"tenantId"`
	TenantSlug string    `json:"tenantSlug"`
}

// SuperadminPrincipal is a platform operator. It is also the superadmin token payload.
type SuperadminPrincipal struct {
	AdminID uuid.UUID `json:"adminId"`
}

func (TenantPrincipal) principal()     {}
func (SuperadminPrincipal) principal() {}

type ctxKey string

const principalKey ctxKey = "NEWPOSTER_PRINCIPAL"

// WithPrincipal stores the authenticated principal on the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns whichever principal is present.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok && p != nil
}

// SessionFromContext returns the tenant principal, if the caller is one.
func SessionFromContext(ctx context.Context) (TenantPrincipal, bool) {
	p, ok := ctx.Value(principalKey).(TenantPrincipal)
	return p, ok
}

// SuperadminFromContext returns the superadmin principal, if the caller is one.
func SuperadminFromContext(ctx context.Context) (SuperadminPrincipal, bool) {
	p, ok := ctx.Value(principalKey).(SuperadminPrincipal)
	return p, ok
}
