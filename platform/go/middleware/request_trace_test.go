package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ruidolp/newposter-sub002/platform/go/auth"
	"github.com/ruidolp/newposter-sub002/platform/go/requesttrace"
	"github.com/ruidolp/newposter-sub002/platform/go/tenant"
)

func withIdentity(t tenant.Tenant, p auth.Principal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := tenant.WithTenant(r.Context(), t)
			if p != nil {
				ctx = auth.WithPrincipal(ctx, p)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func TestRequestTraceWithSession(t *testing.T) {
	t.Parallel()

	acme := tenant.Tenant{ID: uuid.New(), Slug: "acme", Active: true}
	session := auth.TenantPrincipal{UserID: uuid.New(), TenantID: acme.ID, Role: auth.RoleCashier, TenantSlug: "acme"}

	var got requesttrace.AuditInfo
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(withIdentity(acme, session))
	r.Use(RequestTrace)
	r.Get("/test", func(w http.ResponseWriter, req *http.Request) {
		got, _ = requesttrace.FromContext(req.Context())
		w.WriteHeader(http.StatusOK)
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/test", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, requesttrace.ActorKindUser, got.ActorKind)
	require.Equal(t, session.UserID, got.ActorID.UUID)
	require.Equal(t, acme.ID, got.TenantID.UUID)
	require.NotEmpty(t, got.RequestID)
}

func TestRequestTraceAnonymous(t *testing.T) {
	t.Parallel()

	acme := tenant.Tenant{ID: uuid.New(), Slug: "acme", Active: true}

	var got requesttrace.AuditInfo
	r := chi.NewRouter()
	r.Use(withIdentity(acme, nil))
	r.Use(RequestTrace)
	r.Get("/test", func(w http.ResponseWriter, req *http.Request) {
		got, _ = requesttrace.FromContext(req.Context())
		w.WriteHeader(http.StatusOK)
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/test", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, requesttrace.ActorKindAnonymous, got.ActorKind)
	require.False(t, got.ActorID.Valid)
	require.Equal(t, acme.ID, got.TenantID.UUID)
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	handler := CORS([]string{"https://acme.pos.test"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	req.Header.Set("Origin", "https://acme.pos.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, "https://acme.pos.test", resp.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", resp.Header().Get("Access-Control-Allow-Credentials"))
}
