package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/ruidolp/newposter-sub002/contracts"
	authhandler "github.com/ruidolp/newposter-sub002/domains/auth/be/handler"
	authrepo "github.com/ruidolp/newposter-sub002/domains/auth/be/repo"
	authservice "github.com/ruidolp/newposter-sub002/domains/auth/be/service"
	extensionshandler "github.com/ruidolp/newposter-sub002/domains/extensions/be/handler"
	ordershandler "github.com/ruidolp/newposter-sub002/domains/orders/be/handler"
	ordersrepo "github.com/ruidolp/newposter-sub002/domains/orders/be/repo"
	ordersservice "github.com/ruidolp/newposter-sub002/domains/orders/be/service"
	poshandler "github.com/ruidolp/newposter-sub002/domains/pos/be/handler"
	productshandler "github.com/ruidolp/newposter-sub002/domains/products/be/handler"
	productsrepo "github.com/ruidolp/newposter-sub002/domains/products/be/repo"
	productsservice "github.com/ruidolp/newposter-sub002/domains/products/be/service"
	tenantshandler "github.com/ruidolp/newposter-sub002/domains/tenants/be/handler"
	tenantsrepo "github.com/ruidolp/newposter-sub002/domains/tenants/be/repo"
	tenantsservice "github.com/ruidolp/newposter-sub002/domains/tenants/be/service"
	usershandler "github.com/ruidolp/newposter-sub002/domains/users/be/handler"
	usersrepo "github.com/ruidolp/newposter-sub002/domains/users/be/repo"
	usersservice "github.com/ruidolp/newposter-sub002/domains/users/be/service"
	"github.com/ruidolp/newposter-sub002/platform/go/auth"
	"github.com/ruidolp/newposter-sub002/platform/go/extensions"
	"github.com/ruidolp/newposter-sub002/platform/go/extensions/builtin"
	"github.com/ruidolp/newposter-sub002/platform/go/hooks"
	"github.com/ruidolp/newposter-sub002/platform/go/persistence"
	"github.com/ruidolp/newposter-sub002/platform/go/tenant"
)

// Repositories the gate tests never reach.
type (
	unusedUsersRepo    struct{ usersrepo.Repository }
	unusedProductsRepo struct{ productsrepo.Repository }
	unusedOrdersRepo   struct{ ordersrepo.Repository }
)

const cashierPassword = "correct horse battery"

type memoryAuthRepo struct {
	users []persistence.User
}

func (m memoryAuthRepo) FindUserByEmailAndTenant(_ context.Context, email string, tenantID uuid.UUID) (persistence.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) && u.TenantID == tenantID {
			return u, nil
		}
	}
	return persistence.User{}, persistence.ErrUserNotFound
}

func (memoryAuthRepo) FindSuperadminByEmail(context.Context, string) (persistence.Superadmin, error) {
	return persistence.Superadmin{}, persistence.ErrSuperadminNotFound
}

var _ authrepo.Repository = memoryAuthRepo{}

type testServer struct {
	handler http.Handler
	codecs  auth.Codecs
	acme    tenant.Tenant
	globex  tenant.Tenant
}

func newTestServer(t *testing.T, checks map[string]pinger) testServer {
	t.Helper()
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	tenants := tenantsrepo.NewMemoryRepository()
	acme, err := tenants.Create(ctx, tenantsservice.CreateInput{Slug: "acme", Name: "Acme Coffee", Plan: "pro"})
	require.NoError(t, err)
	globex, err := tenants.Create(ctx, tenantsservice.CreateInput{Slug: "globex", Name: "Globex"})
	require.NoError(t, err)

	provider := tenant.NewProvider(tenants, tenant.WithCache(tenant.NewMemoryCache(), time.Minute), tenant.WithLogger(logger))
	resolver, err := tenant.NewResolver(tenant.ResolverConfig{DefaultSlug: "demo-store"})
	require.NoError(t, err)

	codecs, err := auth.NewCodecs(
		auth.CodecConfig{Secret: []byte(strings.Repeat("s", 32)), TTL: time.Hour},
		auth.CodecConfig{Secret: []byte(strings.Repeat("a", 32)), TTL: time.Hour},
	)
	require.NoError(t, err)
	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	hash, err := hasher.Hash(cashierPassword)
	require.NoError(t, err)
	authRepo := memoryAuthRepo{users: []persistence.User{{
		ID:           uuid.New(),
		TenantID:     acme.ID,
		Email:        "cashier@acme.test",
		FullName:     "Acme Cashier",
		Role:         auth.RoleCashier,
		PasswordHash: hash,
		Active:       true,
	}}}

	metrics := prometheus.NewRegistry()
	registry := hooks.NewRegistry(hooks.WithLogger(logger), hooks.WithMetrics(hooks.NewMetrics(metrics)))
	manifest := extensions.Manifest{Extensions: []extensions.Entry{
		{ID: builtin.QuickActionsID, Enabled: true},
		{ID: builtin.AuditLogID, Enabled: true},
	}}
	require.NoError(t, extensions.Load(registry, builtin.Catalog(), manifest, extensions.NewSchemaValidator(), extensions.Deps{Logger: logger}))

	if checks == nil {
		checks = map[string]pinger{}
	}
	contract, err := contracts.Load(ctx)
	require.NoError(t, err)

	handler := newRouter(routerDeps{
		logger:           logger,
		requestTimeout:   5 * time.Second,
		resolver:         resolver,
		provider:         provider,
		guard:            auth.NewGuard(codecs),
		ops:              &opsHandler{checks: checks, gatherer: metrics, logger: logger},
		contract:         contract,
		sessionCookie:    codecs.Session.CookieName(),
		superadminCookie: codecs.Superadmin.CookieName(),
		auth:             authhandler.New(authservice.New(authRepo, provider, codecs, hasher), codecs, logger),
		tenants:          tenantshandler.New(tenantsservice.New(tenants, provider), logger),
		users:            usershandler.New(usersservice.New(unusedUsersRepo{}, provider, hasher), logger),
		products:         productshandler.New(productsservice.New(unusedProductsRepo{}, provider, registry, logger), logger),
		orders:           ordershandler.New(ordersservice.New(unusedOrdersRepo{}, provider, registry, logger), logger),
		pos:              poshandler.New(registry, provider, logger),
		extensions:       extensionshandler.New(registry),
	})

	return testServer{handler: handler, codecs: codecs, acme: acme, globex: globex}
}

func (s testServer) sessionToken(t *testing.T, tenantID uuid.UUID, role auth.Role) string {
	t.Helper()
	token, _, err := s.codecs.Session.Issue(auth.TenantPrincipal{UserID: uuid.New(), TenantID: tenantID, TenantSlug: "acme", Role: role})
	require.NoError(t, err)
	return token
}

func (s testServer) superadminToken(t *testing.T) string {
	t.Helper()
	token, _, err := s.codecs.Superadmin.Issue(auth.SuperadminPrincipal{AdminID: uuid.New()})
	require.NoError(t, err)
	return token
}

func (s testServer) do(method, host, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Host = host
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s testServer) postJSON(host, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Host = host
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func tenantCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == tenant.DefaultCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", tenant.DefaultCookieName)
	return nil
}

func TestOpsEndpoints(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, map[string]pinger{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "example.com", "/healthz", "").Code)

	ready := s.do(http.MethodGet, "example.com", "/readyz", "")
	require.Equal(t, http.StatusServiceUnavailable, ready.Code)
	var body readiness
	require.NoError(t, json.Unmarshal(ready.Body.Bytes(), &body))
	require.Equal(t, "ok", body.Checks["postgres"])
	require.Equal(t, "unavailable", body.Checks["redis"])

	metrics := s.do(http.MethodGet, "example.com", "/metrics", "")
	require.Equal(t, http.StatusOK, metrics.Code)
}

func TestTenantRouteGates(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	tests := []struct {
		name   string
		host   string
		path   string
		token  func(t *testing.T) string
		status int
	}{
		{
			name:   "no token",
			host:   "acme.example.com",
			path:   "/api/pos/actions",
			token:  func(*testing.T) string { return "" },
			status: http.StatusUnauthorized,
		},
		{
			name:   "cashier of the tenant",
			host:   "acme.example.com",
			path:   "/api/pos/actions",
			token:  func(t *testing.T) string { return s.sessionToken(t, s.acme.ID, auth.RoleCashier) },
			status: http.StatusOK,
		},
		{
			name:   "session for another tenant",
			host:   "globex.example.com",
			path:   "/api/pos/actions",
			token:  func(t *testing.T) string { return s.sessionToken(t, s.acme.ID, auth.RoleOwner) },
			status: http.StatusForbidden,
		},
		{
			name:   "superadmin token on tenant route",
			host:   "acme.example.com",
			path:   "/api/pos/actions",
			token:  func(t *testing.T) string { return s.superadminToken(t) },
			status: http.StatusUnauthorized,
		},
		{
			name:   "cashier below owner",
			host:   "acme.example.com",
			path:   "/api/extensions",
			token:  func(t *testing.T) string { return s.sessionToken(t, s.acme.ID, auth.RoleCashier) },
			status: http.StatusForbidden,
		},
		{
			name:   "owner lists extensions",
			host:   "acme.example.com",
			path:   "/api/extensions",
			token:  func(t *testing.T) string { return s.sessionToken(t, s.acme.ID, auth.RoleOwner) },
			status: http.StatusOK,
		},
		{
			name:   "unknown tenant",
			host:   "initech.example.com",
			path:   "/api/pos/actions",
			token:  func(t *testing.T) string { return s.sessionToken(t, s.acme.ID, auth.RoleOwner) },
			status: http.StatusNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := s.do(http.MethodGet, tc.host, tc.path, tc.token(t))
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestPOSActionsRenderConfiguredExtensions(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	rec := s.do(http.MethodGet, "acme.example.com", "/api/pos/actions", s.sessionToken(t, s.acme.ID, auth.RoleCashier))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []hooks.Fragment `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Items)
	for _, f := range body.Items {
		require.Equal(t, builtin.QuickActionsID, f.ExtensionID)
	}
}

func TestSuperadminRouteGates(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "acme.example.com", "/api/superadmin/tenants", s.sessionToken(t, s.acme.ID, auth.RoleOwner))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "admin.example.com", "/api/superadmin/tenants", s.superadminToken(t))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"acme"`)
	require.Contains(t, rec.Body.String(), `"globex"`)
}

func TestPublicTenantLookup(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "example.com", "/api/tenant/acme", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"slug":"acme","name":"Acme Coffee"}`, rec.Body.String())

	rec = s.do(http.MethodGet, "example.com", "/api/tenant/initech", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLoginLinkSelectsTenantOnBareHost(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	const host = "localhost:3000"
	creds := `{"email":"cashier@acme.test","password":"` + cashierPassword + `"}`

	// Without the link the bare host falls back to the default tenant.
	rec := s.postJSON(host, "/api/auth/login", creds)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	entry := s.do(http.MethodGet, host, "/login/acme", "")
	require.Equal(t, http.StatusOK, entry.Code, entry.Body.String())
	require.JSONEq(t, `{"slug":"acme","name":"Acme Coffee"}`, entry.Body.String())
	cookie := tenantCookie(t, entry)
	require.Equal(t, "acme", cookie.Value)
	require.Equal(t, "/", cookie.Path)

	rec = s.postJSON(host, "/api/auth/login", creds, &http.Cookie{Name: cookie.Name, Value: cookie.Value})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		User struct {
			TenantSlug string `json:"tenantSlug"`
			TenantID   string `json:"tenantId"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "acme", body.User.TenantSlug)
	require.Equal(t, s.acme.ID.String(), body.User.TenantID)
}

func TestStoreLinkSetsTenantCookie(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "localhost:3000", "/store/globex/checkout", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "globex", tenantCookie(t, rec).Value)

	// A tenant subdomain wins over a store path and pins nothing.
	rec = s.do(http.MethodGet, "acme.example.com", "/store/globex", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Result().Cookies())
}

func TestAPIContractRejectsMalformedRequests(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	rec := s.postJSON("acme.example.com", "/api/auth/login", `{"email":"cashier@acme.test"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), "validation-error")

	rec = s.do(http.MethodGet, "acme.example.com", "/api/products?page=two", s.sessionToken(t, s.acme.ID, auth.RoleCashier))
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "acme.example.com", "/api/nowhere", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocsServeContract(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "example.com", "/openapi.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var doc struct {
		Paths map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Contains(t, doc.Paths, "/api/auth/login")

	rec = s.do(http.MethodGet, "example.com", "/docs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "/openapi.json")
}
