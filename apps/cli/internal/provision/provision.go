// Package provision holds the check-or-create steps shared by the bootstrap
// and tenant commands.
package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ruidolp/newposter-sub002/platform/go/persistence"
	"github.com/ruidolp/newposter-sub002/platform/go/tenant"
)

// TenantStore is the slice of persistence.TenantStore used here.
type TenantStore interface {
	FindActiveBySlug(ctx context.Context, slug string) (tenant.Tenant, error)
	Create(ctx context.Context, params persistence.CreateTenantParams) (tenant.Tenant, error)
}

// TenantUpdater is the slice of persistence.TenantStore used to deactivate.
type TenantUpdater interface {
	Update(ctx context.Context, id uuid.UUID, params persistence.UpdateTenantParams) (tenant.Tenant, error)
}

// UserStore is the slice of persistence.UserStore used here.
type UserStore interface {
	FindByEmailAndTenant(ctx context.Context, email string, tenantID uuid.UUID) (persistence.User, error)
	Create(ctx context.Context, params persistence.CreateUserParams) (persistence.User, error)
}

// EnsureTenant returns the active tenant for slug, creating it when missing.
// An inactive tenant with the same slug is an error rather than a silent reuse.
func EnsureTenant(ctx context.Context, store TenantStore, slug, name string) (tenant.Tenant, error) {
	slug, err := tenant.NormalizeSlug(slug)
	if err != nil {
		return tenant.Tenant{}, err
	}

	t, err := store.FindActiveBySlug(ctx, slug)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, tenant.ErrTenantNotFound) {
		return tenant.Tenant{}, fmt.Errorf("get tenant by slug: %w", err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = slug
	}
	t, err = store.Create(ctx, persistence.CreateTenantParams{Slug: slug, Name: name})
	if err != nil {
		if errors.Is(err, persistence.ErrTenantConflict) {
			return tenant.Tenant{}, fmt.Errorf("tenant %q exists but is inactive", slug)
		}
		return tenant.Tenant{}, fmt.Errorf("create tenant: %w", err)
	}
	return t, nil
}

// EnsureUser returns the user with params.Email inside params.TenantID,
// creating it when missing. created reports whether a row was inserted.
func EnsureUser(ctx context.Context, store UserStore, params persistence.CreateUserParams) (user persistence.User, created bool, err error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" {
		return persistence.User{}, false, errors.New("email is required")
	}

	user, err = store.FindByEmailAndTenant(ctx, email, params.TenantID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, persistence.ErrUserNotFound) {
		return persistence.User{}, false, fmt.Errorf("lookup user: %w", err)
	}

	params.Email = email
	user, err = store.Create(ctx, params)
	if err != nil {
		if errors.Is(err, persistence.ErrUserConflict) {
			return persistence.User{}, false, fmt.Errorf("user %s exists but is inactive", email)
		}
		return persistence.User{}, false, fmt.Errorf("create user: %w", err)
	}
	return user, true, nil
}

// DeactivateTenant marks the tenant inactive and drops its slug from cache so
// API replicas stop resolving it on their next lookup. cache may be nil.
func DeactivateTenant(ctx context.Context, store TenantUpdater, cache tenant.Cache, id uuid.UUID) (tenant.Tenant, error) {
	inactive := false
	t, err := store.Update(ctx, id, persistence.UpdateTenantParams{Active: &inactive})
	if err != nil {
		return tenant.Tenant{}, fmt.Errorf("deactivate tenant: %w", err)
	}
	if cache == nil {
		return t, nil
	}
	if err := cache.Delete(ctx, t.Slug); err != nil {
		return t, fmt.Errorf("tenant %s deactivated but cache invalidation failed: %w", t.Slug, err)
	}
	return t, nil
}
