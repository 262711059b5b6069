package main

import (
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	authhandler "github.com/ruidolp/newposter-sub002/domains/auth/be/handler"
	extensionshandler "github.com/ruidolp/newposter-sub002/domains/extensions/be/handler"
	ordershandler "github.com/ruidolp/newposter-sub002/domains/orders/be/handler"
	poshandler "github.com/ruidolp/newposter-sub002/domains/pos/be/handler"
	productshandler "github.com/ruidolp/newposter-sub002/domains/products/be/handler"
	tenantshandler "github.com/ruidolp/newposter-sub002/domains/tenants/be/handler"
	usershandler "github.com/ruidolp/newposter-sub002/domains/users/be/handler"
	"github.com/ruidolp/newposter-sub002/platform/go/auth"
	platformlogging "github.com/ruidolp/newposter-sub002/platform/go/logging"
	platformmiddleware "github.com/ruidolp/newposter-sub002/platform/go/middleware"
	"github.com/ruidolp/newposter-sub002/platform/go/tenant"
	tenantmiddleware "github.com/ruidolp/newposter-sub002/platform/go/tenant/middleware"
)

type routerDeps struct {
	logger         *zap.Logger
	requestTimeout time.Duration
	corsOrigins    []string
	secureCookies  bool

	sessionCookie    string
	superadminCookie string

	resolver *tenant.Resolver
	provider *tenant.Provider
	guard    *auth.Guard
	ops      *opsHandler
	contract *openapi3.T

	auth       *authhandler.Handler
	tenants    *tenantshandler.Handler
	users      *usershandler.Handler
	products   *productshandler.Handler
	orders     *ordershandler.Handler
	pos        *poshandler.Handler
	extensions *extensionshandler.Handler
}

func newRouter(d routerDeps) http.Handler {
	// Built first: it applies the configured cookie names to the served document.
	validateContract := platformmiddleware.SpecValidator(d.contract, platformmiddleware.SpecValidatorConfig{
		SessionCookie:    d.sessionCookie,
		SuperadminCookie: d.superadminCookie,
		Logger:           d.logger,
	})

	root := chi.NewRouter()

	root.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(d.requestTimeout),
		platformmiddleware.CORS(d.corsOrigins),
		platformlogging.RequestLogger(d.logger),
		// Root level so the /login and /store entry paths are seen.
		tenantmiddleware.ResolveSlug(d.resolver, tenantmiddleware.Config{Secure: d.secureCookies}),
	)

	d.ops.mount(root)
	registerDocsRoutes(root, d.contract, d.logger)

	g := gates{guard: d.guard}

	// Entry links pin the tenant cookie for hosts without a tenant subdomain.
	root.With(g.public()...).Get("/login/{slug}", d.tenants.GetPublic)
	root.With(g.public()...).Get("/store/{slug}", d.tenants.GetPublic)
	root.With(g.public()...).Get("/store/{slug}/*", d.tenants.GetPublic)

	root.Route("/api", func(api chi.Router) {
		api.Use(validateContract)

		api.With(g.public()...).Get("/tenant/{slug}", d.tenants.GetPublic)

		// Superadmin plane: never tenant scoped.
		api.Route("/superadmin", func(r chi.Router) {
			r.With(g.public()...).Post("/login", d.auth.SuperadminLogin)
			r.Post("/logout", d.auth.SuperadminLogout)

			r.With(g.superadmin()...).Get("/tenants", d.tenants.List)
			r.With(g.superadmin()...).Post("/tenants", d.tenants.Create)
			r.With(g.superadmin()...).Patch("/tenants/{tenantId}", d.tenants.Update)
		})

		// Tenant plane: the resolved tenant must exist and be active.
		api.Group(func(r chi.Router) {
			r.Use(tenantmiddleware.RequireTenant(d.provider))

			r.With(g.public()...).Post("/auth/login", d.auth.Login)
			r.Post("/auth/logout", d.auth.Logout)
			r.With(g.role(auth.RoleCashier)...).Get("/auth/me", d.auth.Me)

			r.With(g.role(auth.RoleCashier)...).Get("/products", d.products.List)
			r.With(g.role(auth.RoleCashier)...).Get("/products/{productId}", d.products.Get)
			r.With(g.role(auth.RoleAdmin)...).Post("/products", d.products.Create)
			r.With(g.role(auth.RoleAdmin)...).Patch("/products/{productId}", d.products.Update)

			r.With(g.role(auth.RoleCashier)...).Post("/orders", d.orders.Create)
			r.With(g.role(auth.RoleCashier)...).Get("/orders/{orderId}", d.orders.Get)

			r.With(g.role(auth.RoleCashier)...).Get("/pos/actions", d.pos.Actions)

			r.With(g.role(auth.RoleCashier)...).Get("/users/me", d.users.Me)
			r.With(g.role(auth.RoleAdmin)...).Get("/users", d.users.List)
			r.With(g.role(auth.RoleAdmin)...).Post("/users", d.users.Create)
			r.With(g.role(auth.RoleAdmin)...).Get("/users/{userId}", d.users.Get)

			r.With(g.role(auth.RoleOwner)...).Get("/extensions", d.extensions.List)
		})
	})

	return root
}
