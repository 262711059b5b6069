// Package middleware attaches the resolved tenant slug and the loaded tenant to requests.
package middleware

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ruidolp/newposter-sub002/platform/go/logging"
	"github.com/ruidolp/newposter-sub002/platform/go/problem"
	"github.com/ruidolp/newposter-sub002/platform/go/tenant"
)

const defaultCookieMaxAge = 30 * 24 * time.Hour

// Config controls the fallback cookie written after path-based resolution.
type Config struct {
	// Secure marks the fallback cookie secure; set outside local development.
	Secure bool
	// CookieMaxAge defaults to 30 days.
	CookieMaxAge time.Duration
}

// ResolveSlug runs the resolver for every non-asset request, overwrites the
// propagated slug header and stores the slug on the context. Client-supplied
// header values are discarded.
func ResolveSlug(resolver *tenant.Resolver, cfg Config) func(http.Handler) http.Handler {
	if resolver == nil {
		panic("tenant middleware: resolver is required")
	}
	if cfg.CookieMaxAge <= 0 {
		cfg.CookieMaxAge = defaultCookieMaxAge
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if resolver.IsStaticAsset(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			cookies := make(map[string]string)
			for _, c := range r.Cookies() {
				cookies[c.Name] = c.Value
			}

			decision := resolver.Decide(r.Host, r.URL.Path, cookies)
			r.Header.Set(tenant.HeaderSlug, decision.Slug)

			if decision.Source.FromPath() && cookies[resolver.CookieName()] != decision.Slug {
				http.SetCookie(w, &http.Cookie{
					Name:     resolver.CookieName(),
					Value:    decision.Slug,
					Path:     "/",
					MaxAge:   int(cfg.CookieMaxAge.Seconds()),
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			r = logging.Enrich(r, nil,
				zap.String("tenant_slug", decision.Slug),
				zap.String("tenant_source", string(decision.Source)),
			)
			next.ServeHTTP(w, r.WithContext(tenant.WithSlug(r.Context(), decision.Slug)))
		})
	}
}

// RequireTenant loads the active tenant for the resolved slug once per request
// and stores it on the context. Unknown or inactive slugs get a 404.
func RequireTenant(provider *tenant.Provider) func(http.Handler) http.Handler {
	if provider == nil {
		panic("tenant middleware: provider is required")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t, err := provider.RequireTenant(r.Context())
			if errors.Is(err, tenant.ErrTenantNotFound) {
				problem.NotFound(w, "tenant not found")
				return
			}
			if err != nil {
				logging.FromRequest(r, nil).Error("tenant lookup failed", zap.Error(err))
				problem.Write(w, problem.New(http.StatusInternalServerError, "Internal server error", "an unexpected error occurred", problem.TypeInternal, nil))
				return
			}

			r = logging.Enrich(r, nil, zap.String("tenant_id", t.ID.String()))
			next.ServeHTTP(w, r.WithContext(tenant.WithTenant(r.Context(), t)))
		})
	}
}
