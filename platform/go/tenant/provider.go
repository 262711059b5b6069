package tenant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Store is the storage lookup behind the provider. Implementations return
// ErrTenantNotFound unless an active tenant has exactly this slug.
type Store interface {
	FindActiveBySlug(ctx context.Context, slug string) (Tenant, error)
}

// Provider turns the request slug into an active Tenant.
type Provider struct {
	store  Store
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithCache enables caching of active tenants; a zero TTL disables it.
func WithCache(cache Cache, ttl time.Duration) ProviderOption {
	return func(p *Provider) {
		if cache != nil && ttl > 0 {
			p.cache = cache
			p.ttl = ttl
		}
	}
}

// WithLogger sets the logger used for cache failures.
func WithLogger(logger *zap.Logger) ProviderOption {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProvider constructs a Provider.
func NewProvider(store Store, opts ...ProviderOption) *Provider {
	if store == nil {
		panic("tenant provider: store is required")
	}

	p := &Provider{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LoadTenant returns the active tenant with exactly this slug.
func (p *Provider) LoadTenant(ctx context.Context, slug string) (Tenant, error) {
	slug, ok := candidateSlug(slug)
	if !ok {
		return Tenant{}, ErrTenantNotFound
	}

	if p.cache != nil {
		cached, err := p.cache.Get(ctx, slug)
		switch {
		case err == nil && cached.Active && cached.Slug == slug:
			return cached, nil
		case err != nil && !errors.Is(err, ErrCacheMiss):
			p.logger.Warn("tenant cache read failed", zap.String("tenant_slug", slug), zap.Error(err))
		}
	}

	t, err := p.store.FindActiveBySlug(ctx, slug)
	if errors.Is(err, ErrTenantNotFound) {
		return Tenant{}, ErrTenantNotFound
	}
	if err != nil {
		return Tenant{}, fmt.Errorf("load tenant %q: %w", slug, err)
	}
	if !t.Active || t.Slug != slug {
		return Tenant{}, ErrTenantNotFound
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, t, p.ttl); err != nil {
			p.logger.Warn("tenant cache write failed", zap.String("tenant_slug", slug), zap.Error(err))
		}
	}
	return t, nil
}

// RequireTenant returns the tenant for the slug attached to ctx by the
// resolution middleware. Every tenant-scoped storage call uses its ID.
func (p *Provider) RequireTenant(ctx context.Context) (Tenant, error) {
	if t, ok := FromContext(ctx); ok {
		return t, nil
	}

	slug, ok := SlugFromContext(ctx)
	if !ok {
		return Tenant{}, ErrTenantNotFound
	}
	return p.LoadTenant(ctx, slug)
}

// Invalidate drops a cached tenant so updates apply on the next request.
func (p *Provider) Invalidate(ctx context.Context, slug string) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Delete(ctx, slug); err != nil {
		p.logger.Warn("tenant cache invalidation failed", zap.String("tenant_slug", slug), zap.Error(err))
	}
}
