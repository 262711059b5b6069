package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ruidolp/newposter-sub002/platform/go/auth"
	"github.com/ruidolp/newposter-sub002/platform/go/logging"
	"github.com/ruidolp/newposter-sub002/platform/go/requesttrace"
	"github.com/ruidolp/newposter-sub002/platform/go/tenant"
)

// RequestTrace populates the context with request-scoped AuditInfo. It runs
// after the tenant and auth middleware so the principal is available when present.
func RequestTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())

		var tenantID uuid.NullUUID
		if t, ok := tenant.FromContext(r.Context()); ok {
			tenantID = uuid.NullUUID{UUID: t.ID, Valid: true}
		}

		principal, _ := auth.PrincipalFromContext(r.Context())
		audit := requesttrace.FromPrincipal(principal, tenantID, requestID)

		r = logging.Enrich(r, nil, zap.String("actor_kind", string(audit.ActorKind)))
		next.ServeHTTP(w, r.WithContext(requesttrace.IntoContext(r.Context(), audit)))
	})
}
