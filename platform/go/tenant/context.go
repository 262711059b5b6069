package tenant

import "context"

type ctxKey string

const (
	slugKey   ctxKey = "NEWPOSTER_TENANT_SLUG"
	tenantKey ctxKey = "NEWPOSTER_TENANT"
)

// HeaderSlug carries the resolved slug to downstream handlers.
const HeaderSlug = "X-Tenant-Slug"

// WithSlug returns a derived context carrying the resolved slug.
func WithSlug(ctx context.Context, slug string) context.Context {
	return context.WithValue(ctx, slugKey, slug)
}

// SlugFromContext extracts the resolved slug and a boolean indicating presence.
func SlugFromContext(ctx context.Context) (string, bool) {
	slug, ok := ctx.Value(slugKey).(string)
	return slug, ok && slug != ""
}

// WithTenant returns a derived context carrying the loaded tenant.
func WithTenant(ctx context.Context, t Tenant) context.Context {
	return context.WithValue(ctx, tenantKey, t)
}

// FromContext extracts the loaded tenant.
func FromContext(ctx context.Context) (Tenant, bool) {
	v := ctx.Value(tenantKey)
	if v == nil {
		return Tenant{}, false
	}

	t, ok := v.(Tenant)
	return t, ok
}
