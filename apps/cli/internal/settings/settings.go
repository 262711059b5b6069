// Package settings loads the environment shared by the CLI commands. It reads
// the same variables as the API so a single .env file drives both.
package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ruidolp/newposter-sub002/platform/go/auth"
	"github.com/ruidolp/newposter-sub002/platform/go/persistence"
	"github.com/ruidolp/newposter-sub002/platform/go/tenant"
)

// EnvFileFlag is the persistent root flag naming the optional dotenv file.
const EnvFileFlag = "env-file"

// Settings mirrors the API variables the CLI needs.
type Settings struct {
	DatabaseURL      string        `env:"DATABASE_URL"`
	SessionSecret    string        `env:"SESSION_SECRET"`
	SessionTTL       time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	SuperadminSecret string        `env:"SUPERADMIN_SECRET"`
	SuperadminTTL    time.Duration `env:"SUPERADMIN_TTL" envDefault:"1h"`
	BcryptCost       int           `env:"BCRYPT_COST" envDefault:"12"`
	RedisURL         string        `env:"REDIS_URL"`
}

// Load reads envFile when it exists and then the process environment.
func Load(envFile string) (Settings, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Settings{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// FromCommand loads settings using the env-file flag inherited from the root.
func FromCommand(cmd *cobra.Command) (Settings, error) {
	envFile := ""
	if f := cmd.Flag(EnvFileFlag); f != nil {
		envFile = f.Value.String()
	}
	return Load(envFile)
}

// Pool opens the shared pgx pool. Callers close it with persistence.ClosePool.
func (s Settings) Pool(ctx context.Context) (*pgxpool.Pool, error) {
	if s.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: s.DatabaseURL, ApplicationName: "newposter-cli", MaxConns: 2})
	if err != nil {
		return nil, fmt.Errorf("init pool: %w", err)
	}
	return pool, nil
}

// Codecs builds the token codecs with the same defaults the API applies.
func (s Settings) Codecs() (auth.Codecs, error) {
	if s.SessionSecret == "" || s.SuperadminSecret == "" {
		return auth.Codecs{}, errors.New("SESSION_SECRET and SUPERADMIN_SECRET are required")
	}
	return auth.NewCodecs(
		auth.CodecConfig{Secret: []byte(s.SessionSecret), TTL: s.SessionTTL},
		auth.CodecConfig{Secret: []byte(s.SuperadminSecret), TTL: s.SuperadminTTL},
	)
}

// Hasher returns the bcrypt hasher configured by BCRYPT_COST.
func (s Settings) Hasher() (*auth.PasswordHasher, error) {
	return auth.NewPasswordHasher(s.BcryptCost)
}

// TenantCache connects to the shared tenant cache the API replicas read.
// Without REDIS_URL it returns a nil cache and a no-op close.
func (s Settings) TenantCache(ctx context.Context) (tenant.Cache, func(), error) {
	if s.RedisURL == "" {
		return nil, func() {}, nil
	}
	client, err := tenant.ConnectRedis(ctx, s.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return tenant.NewRedisCache(client), func() { _ = client.Close() }, nil
}
