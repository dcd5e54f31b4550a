package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// RevocationBackend selects where revoked token ids are recorded.
type RevocationBackend string

const (
	RevocationBackendMemory RevocationBackend = "memory"
	RevocationBackendRedis  RevocationBackend = "redis"
)

// AuthConfig defines authentication parameters. All token lifetimes and the
// signing secret come from the environment; nothing is hardcoded.
type AuthConfig struct {
	JWTSecret                 string
	AccessTokenTTLMinutes     int
	RefreshTokenTTLHours      int
	PasswordResetTTLMinutes   int
	EmailVerificationTTLHours int
	// SessionCeilingHours bounds how far a session can be extended by
	// refreshing. Zero keeps the sliding-session behavior where refresh
	// tokens can be refreshed indefinitely.
	SessionCeilingHours    int
	BcryptCost             int
	RevocationBackend      RevocationBackend
	RevocationSweepSeconds int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	backend := RevocationBackend(getEnv("AUTH_REVOCATION_BACKEND", "memory"))
	if backend != RevocationBackendMemory && backend != RevocationBackendRedis {
		return nil, fmt.Errorf("invalid AUTH_REVOCATION_BACKEND: %q", backend)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "blog-auth-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:                 os.Getenv("AUTH_JWT_SECRET"),
			AccessTokenTTLMinutes:     getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			RefreshTokenTTLHours:      getEnvAsInt("AUTH_REFRESH_TOKEN_TTL_HOURS", 24*14),
			PasswordResetTTLMinutes:   getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 60),
			EmailVerificationTTLHours: getEnvAsInt("AUTH_EMAIL_VERIFICATION_TTL_HOURS", 24),
			SessionCeilingHours:       getEnvAsInt("AUTH_SESSION_CEILING_HOURS", 0),
			BcryptCost:                getEnvAsInt("AUTH_BCRYPT_COST", 12),
			RevocationBackend:         backend,
			RevocationSweepSeconds:    getEnvAsInt("AUTH_REVOCATION_SWEEP_SECONDS", 300),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("AUTH_JWT_SECRET is required")
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the access token lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token lifetime.
func (a AuthConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(a.RefreshTokenTTLHours) * time.Hour
}

// PasswordResetTTL returns the password-reset token lifetime.
func (a AuthConfig) PasswordResetTTL() time.Duration {
	return time.Duration(a.PasswordResetTTLMinutes) * time.Minute
}

// EmailVerificationTTL returns the email-verification token lifetime.
func (a AuthConfig) EmailVerificationTTL() time.Duration {
	return time.Duration(a.EmailVerificationTTLHours) * time.Hour
}

// SessionCeiling returns the absolute session lifetime bound, zero meaning
// unbounded.
func (a AuthConfig) SessionCeiling() time.Duration {
	return time.Duration(a.SessionCeilingHours) * time.Hour
}

// RevocationSweepInterval returns how often the in-memory store is swept.
func (a AuthConfig) RevocationSweepInterval() time.Duration {
	if a.RevocationSweepSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(a.RevocationSweepSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
