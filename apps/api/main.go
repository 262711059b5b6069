package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

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
	platformlogging "github.com/ruidolp/newposter-sub002/platform/go/logging"
	"github.com/ruidolp/newposter-sub002/platform/go/persistence"
	"github.com/ruidolp/newposter-sub002/platform/go/tenant"
)

func main() {
	ctx := context.Background()

	cfg, err := loadConfig(".env")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component:   "pos-api",
		Level:       cfg.LogLevel,
		Environment: cfg.AppEnv,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: cfg.DatabaseURL})
	if err != nil {
		logger.Fatal("init postgres pool", zap.Error(err))
	}
	defer persistence.ClosePool(pool)

	if cfg.BootstrapSchema {
		if err := persistence.BootstrapSchema(ctx, pool); err != nil {
			logger.Fatal("bootstrap schema", zap.Error(err))
		}
		logger.Info("schema bootstrapped")
	}

	checks := map[string]pinger{"postgres": pool.Ping}

	tenantStore := persistence.NewTenantStore(pool)
	providerOpts := []tenant.ProviderOption{tenant.WithLogger(logger)}
	if cfg.RedisURL != "" {
		redisClient, err := tenant.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("connect redis", zap.Error(err))
		}
		defer redisClient.Close()
		providerOpts = append(providerOpts, tenant.WithCache(tenant.NewRedisCache(redisClient), cfg.TenantCacheTTL))
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	} else if cfg.LocalTenantCacheTTL > 0 {
		logger.Info("tenant cache is process-local; deactivations apply after its ttl",
			zap.Duration("ttl", cfg.LocalTenantCacheTTL))
		providerOpts = append(providerOpts, tenant.WithCache(tenant.NewMemoryCache(), cfg.LocalTenantCacheTTL))
	}
	provider := tenant.NewProvider(tenantStore, providerOpts...)

	resolver, err := tenant.NewResolver(tenant.ResolverConfig{
		DefaultSlug: cfg.DefaultTenantSlug,
		CookieName:  cfg.TenantCookieName,
		AssetPrefix: cfg.AssetPrefix,
	})
	if err != nil {
		logger.Fatal("init tenant resolver", zap.Error(err))
	}

	codecs, err := auth.NewCodecs(
		auth.CodecConfig{
			Secret:     []byte(cfg.SessionSecret),
			TTL:        cfg.SessionTTL,
			CookieName: cfg.SessionCookieName,
			Secure:     cfg.production(),
		},
		auth.CodecConfig{
			Secret:     []byte(cfg.SuperadminSecret),
			TTL:        cfg.SuperadminTTL,
			CookieName: auth.DefaultSuperadminCookie,
			Secure:     cfg.production(),
		},
	)
	if err != nil {
		logger.Fatal("init token codecs", zap.Error(err))
	}
	guard := auth.NewGuard(codecs)

	hasher, err := auth.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		logger.Fatal("init password hasher", zap.Error(err))
	}

	metricsRegistry := prometheus.NewRegistry()
	metricsRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	registry, err := loadExtensions(cfg, logger, metricsRegistry)
	if err != nil {
		logger.Fatal("load extensions", zap.Error(err))
	}

	tenantDB := persistence.NewTenantDB(pool)
	userStore := persistence.NewUserStore(pool)
	superadminStore := persistence.NewSuperadminStore(pool)
	productStore := persistence.NewProductStore(tenantDB)
	orderStore := persistence.NewOrderStore(tenantDB)

	authService := authservice.New(authrepo.NewPostgresRepository(userStore, superadminStore), provider, codecs, hasher)
	tenantService := tenantsservice.New(tenantsrepo.NewPostgresRepository(tenantStore), provider)
	userService := usersservice.New(usersrepo.NewPostgresRepository(userStore), provider, hasher)
	productService := productsservice.New(productsrepo.NewPostgresRepository(productStore), provider, registry, logger)
	orderService := ordersservice.New(ordersrepo.NewPostgresRepository(productStore, orderStore), provider, registry, logger)

	contract, err := contracts.Load(ctx)
	if err != nil {
		logger.Fatal("load api contract", zap.Error(err))
	}

	router := newRouter(routerDeps{
		logger:           logger,
		requestTimeout:   cfg.RequestTimeout,
		corsOrigins:      cfg.CORSAllowedOrigins,
		secureCookies:    cfg.production(),
		sessionCookie:    codecs.Session.CookieName(),
		superadminCookie: codecs.Superadmin.CookieName(),
		resolver:         resolver,
		provider:         provider,
		guard:            guard,
		ops:              &opsHandler{checks: checks, gatherer: metricsRegistry, logger: logger},
		contract:         contract,
		auth:             authhandler.New(authService, codecs, logger),
		tenants:          tenantshandler.New(tenantService, logger),
		users:            usershandler.New(userService, logger),
		products:         productshandler.New(productService, logger),
		orders:           ordershandler.New(orderService, logger),
		pos:              poshandler.New(registry, provider, logger),
		extensions:       extensionshandler.New(registry),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// loadExtensions fills and seals the hook registry from the manifest, or from
// the built-in defaults when no manifest is configured.
func loadExtensions(cfg config, logger *zap.Logger, reg prometheus.Registerer) (*hooks.Registry, error) {
	registry := hooks.NewRegistry(
		hooks.WithLogger(logger),
		hooks.WithMetrics(hooks.NewMetrics(reg)),
	)

	validator := extensions.NewSchemaValidator()
	manifest := builtin.DefaultManifest()
	if cfg.ExtensionsManifest != "" {
		var err error
		manifest, err = extensions.LoadManifestFile(validator, cfg.ExtensionsManifest)
		if err != nil {
			return nil, err
		}
	}

	if err := extensions.Load(registry, builtin.Catalog(), manifest, validator, extensions.Deps{Logger: logger}); err != nil {
		return nil, err
	}
	return registry, nil
}
