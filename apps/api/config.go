package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv          string        `env:"APP_ENV" envDefault:"development"` // development | production
	DatabaseURL     string        `env:"DATABASE_URL,required"`
	BootstrapSchema bool          `env:"BOOTSTRAP_SCHEMA" envDefault:"false"`

	RedisURL       string        `env:"REDIS_URL"`
	TenantCacheTTL time.Duration `env:"TENANT_CACHE_TTL" envDefault:"5m"`
	// Without Redis nothing can invalidate a replica's cache, so the
	// process-local cache is off unless this is set. Keep it to seconds.
	LocalTenantCacheTTL time.Duration `env:"LOCAL_TENANT_CACHE_TTL" envDefault:"0s"`

	DefaultTenantSlug string        `env:"DEFAULT_TENANT_SLUG" envDefault:"demo-store"`
	TenantCookieName  string        `env:"TENANT_COOKIE_NAME" envDefault:"tenant_slug"`
	AssetPrefix       string        `env:"ASSET_PREFIX" envDefault:"/_assets/"`

	SessionSecret     string        `env:"SESSION_SECRET,required"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	SessionCookieName string        `env:"SESSION_COOKIE_NAME" envDefault:"pos_session"`
	SuperadminSecret  string        `env:"SUPERADMIN_SECRET,required"`
	SuperadminTTL     time.Duration `env:"SUPERADMIN_TTL" envDefault:"1h"`
	BcryptCost        int           `env:"BCRYPT_COST" envDefault:"12"`

	ExtensionsManifest string   `env:"EXTENSIONS_MANIFEST"` // empty loads the built-in defaults
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

func (c config) production() bool {
	return c.AppEnv == "production"
}

// loadConfig reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func loadConfig(envFile string) (config, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return config{}, err
	}
	switch cfg.AppEnv {
	case "development", "production":
	default:
		return config{}, fmt.Errorf("APP_ENV must be development or production, got %q", cfg.AppEnv)
	}
	return cfg, nil
}
