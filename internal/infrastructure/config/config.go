package config

import (
	"context"
	"log/slog"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// CorsOrigins must name the admin frontend origins; credentials are
	// allowed so wildcards cannot be used.
	CorsOrigins []string `env:"CORS_ORIGINS, default=http://localhost:5173"`

	Postgres PostgresConfig
	Redis    RedisConfig
	Cookie   CookieConfig
	Seed     SeedConfig
	Jobs     JobsConfig
}

type PostgresConfig struct {
	DSN          string `env:"POSTGRES_DSN, default=postgres://localhost:5432/lastmile?sslmode=disable"`
	MaxOpenConns int    `env:"POSTGRES_MAX_OPEN_CONNS, default=10"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// CookieConfig controls the session cookie. The signing secret has no default
// on purpose; startup fails without one.
type CookieConfig struct {
	Name              string `env:"COOKIE_NAME,     default=lastmile_session"`
	Domain            string `env:"COOKIE_DOMAIN"`
	SameSite          string `env:"COOKIE_SAMESITE, default=strict"`
	Secure            bool   `env:"COOKIE_SECURE,   default=false"`
	Secret            string `env:"COOKIE_SECRET"`
	ExpirationMinutes int    `env:"COOKIE_EXPIRATION_MINUTES, default=60"`
	// PersistentExpirationMinutes applies when the user checks "stay signed in".
	PersistentExpirationMinutes int `env:"COOKIE_PERSISTENT_EXPIRATION_MINUTES, default=43200"`
}

// SeedConfig provisions the first admin account when the database holds no
// roles yet. Values come from the environment, never from literals in code.
type SeedConfig struct {
	AdminEmail          string `env:"SEED_ADMIN_EMAIL"`
	AdminUserName       string `env:"SEED_ADMIN_USERNAME"`
	AdminFullName       string `env:"SEED_ADMIN_FULLNAME"`
	AdminPersonalNumber string `env:"SEED_ADMIN_PERSONAL_NUMBER"`
	AdminPassword       string `env:"SEED_ADMIN_PASSWORD"`
}

type JobsConfig struct {
	AuditRetentionDays int    `env:"JOBS_AUDIT_RETENTION_DAYS, default=90"`
	PurgeSchedule      string `env:"JOBS_PURGE_SCHEDULE,       default=0 3 * * *"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(logger *slog.Logger) *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		logger.Error("Failed to load configuration", "error", err)
		panic(err)
	}
	return &cfg
}
