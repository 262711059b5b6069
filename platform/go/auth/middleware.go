package auth

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ruidolp/newposter-sub002/platform/go/logging"
	"github.com/ruidolp/newposter-sub002/platform/go/problem"
	"github.com/ruidolp/newposter-sub002/platform/go/tenant"
)

// RequireRole gates tenant routes: a valid session token issued for the
// request's tenant with a role of at least min. The tenant must already be on
// the context.
func RequireRole(guard *Guard, min Role) func(http.Handler) http.Handler {
	if guard == nil {
		panic("auth.RequireRole: guard is required")
	}
	if !min.Valid() {
		panic("auth.RequireRole: unknown role " + string(min))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := guard.AuthenticateSession(r)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="pos"`)
				problem.Unauthenticated(w)
				return
			}

			current, ok := tenant.FromContext(r.Context())
			if !ok {
				problem.NotFound(w, "tenant not found")
				return
			}

			if err := AuthorizeTenant(principal, current.ID, min); err != nil {
				logging.FromRequest(r, nil).Warn("access denied",
					zap.String("user_id", principal.UserID.String()),
					zap.String("role", string(principal.Role)),
					zap.String("required_role", string(min)),
					zap.Bool("tenant_mismatch", principal.TenantID != current.ID),
				)
				problem.Forbidden(w)
				return
			}

			r = logging.Enrich(r, nil, zap.String("user_id", principal.UserID.String()))
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireSuperadmin gates the superadmin plane.
func RequireSuperadmin(guard *Guard) func(http.Handler) http.Handler {
	if guard == nil {
		panic("auth.RequireSuperadmin: guard is required")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := guard.AuthenticateSuperadmin(r)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="superadmin"`)
				problem.Unauthenticated(w)
				return
			}

			r = logging.Enrich(r, nil, zap.String("admin_id", principal.AdminID.String()))
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}
