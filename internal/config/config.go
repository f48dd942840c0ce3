package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DevJWTSecret is the placeholder signing key used when JWT_SECRET is unset.
// Tokens signed with it are only acceptable outside production.
const DevJWTSecret = "dev-only-insecure-jwt-secret-change-me"

const (
	DefaultPort               = "8080"
	DefaultTokenTTLHours      = 24
	DefaultLoginMaxAttempts   = 5
	DefaultLoginWindowMinutes = 15
	DefaultSweepSeconds       = 60
	DefaultBcryptCost         = 10
	DefaultUploadDir          = "uploads"
	DefaultDBMaxConns         = 10
	DefaultDBConnLifetimeMin  = 30
)

var ErrDevSecretInProduction = errors.New("JWT_SECRET must be set in production")

type Config struct {
	Env         string
	Port        string
	DatabaseURL string

	JWTSecret      string
	UsingDevSecret bool
	TokenTTL       time.Duration

	LoginMaxAttempts   int
	LoginWindow        time.Duration
	LoginSweepInterval time.Duration
	TrustProxyHeaders  bool
	BcryptCost         int
	RunMigrations      bool
	AdminEmail         string
	AdminPassword      string
	AdminName          string
	UploadDir          string
	CloudinaryURL      string
	CronSecret         string
	SentryDSN          string
	DBMaxConns         int
	DBConnMaxLifetime  time.Duration
}

type Options struct {
	LoadDotEnv bool
	// RunMigrationsDefault applies when RUN_MIGRATIONS is unset.
	RunMigrationsDefault bool
}

func Load(options Options) (*Config, error) {
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:                envOrDefault("APP_ENV", "development"),
		Port:               envOrDefault("PORT", DefaultPort),
		DatabaseURL:        databaseURL,
		JWTSecret:          envOrDefault("JWT_SECRET", DevJWTSecret),
		TokenTTL:           envHoursOrDefault("TOKEN_TTL_HOURS", DefaultTokenTTLHours),
		LoginMaxAttempts:   envIntOrDefault("LOGIN_RATE_LIMIT_MAX", DefaultLoginMaxAttempts),
		LoginWindow:        envMinutesOrDefault("LOGIN_RATE_LIMIT_WINDOW_MINUTES", DefaultLoginWindowMinutes),
		LoginSweepInterval: envSecondsOrDefault("LOGIN_RATE_LIMIT_SWEEP_SECONDS", DefaultSweepSeconds),
		TrustProxyHeaders:  EnvBoolOrDefault("TRUST_PROXY_HEADERS", false),
		BcryptCost:         envIntOrDefault("BCRYPT_COST", DefaultBcryptCost),
		RunMigrations:      EnvBoolOrDefault("RUN_MIGRATIONS", options.RunMigrationsDefault),
		AdminEmail:         strings.ToLower(envOrDefault("ADMIN_EMAIL", "")),
		AdminPassword:      envOrDefault("ADMIN_PASSWORD", ""),
		AdminName:          envOrDefault("ADMIN_NAME", ""),
		UploadDir:          envOrDefault("UPLOAD_DIR", DefaultUploadDir),
		CloudinaryURL:      envOrDefault("CLOUDINARY_URL", ""),
		CronSecret:         envOrDefault("CRON_SECRET", ""),
		SentryDSN:          envOrDefault("SENTRY_DSN", ""),
		DBMaxConns:         envIntOrDefault("DB_MAX_CONNS", DefaultDBMaxConns),
		DBConnMaxLifetime:  envMinutesOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", DefaultDBConnLifetimeMin),
	}
	cfg.UsingDevSecret = cfg.JWTSecret == DevJWTSecret

	if cfg.UsingDevSecret && cfg.IsProduction() {
		return nil, ErrDevSecretInProduction
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func mustEnv(name string) (string, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return "", fmt.Errorf("missing required env: %s", name)
	}
	return value, nil
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envSecondsOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Second
}

func envMinutesOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Minute
}

func envHoursOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Hour
}

func EnvBoolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if value == "" {
		return fallback
	}

	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
