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
	Tenancy      TenancyConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	PQR          PQRConfig
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

// PostgresConfig holds DB connection values for the public schema pool.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// TenancyConfig controls tenant identifier generation and partition naming.
type TenancyConfig struct {
	IDPrefix       string
	SchemaPrefix   string
	TenantMaxConns int32
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

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret                    string
	JWTRefreshSecret             string
	Issuer                       string
	AccessTokenTTLMinutes        int
	RefreshTokenTTLDays          int
	PasswordResetTTLMinutes      int
	EmailVerificationTTLHours    int
	BcryptCost                   int
	MaxLoginAttempts             int
	LockoutDurationMinutes       int
}

// PQRConfig tunes the ticket workflow.
type PQRConfig struct {
	StrictTransitions bool
	MetricsCacheTTL   time.Duration
}

// NotificationConfig holds the stubbed mail sender settings.
type NotificationConfig struct {
	EmailFrom string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "conjunto-service"),
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
		Tenancy: TenancyConfig{
			IDPrefix:       getEnv("TENANT_ID_PREFIX", "cj"),
			SchemaPrefix:   getEnv("TENANT_SCHEMA_PREFIX", "tenant_"),
			TenantMaxConns: int32(getEnvAsInt("TENANT_MAX_CONNS", 5)),
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
			JWTSecret:                 getEnv("AUTH_JWT_SECRET", "dev-secret"),
			JWTRefreshSecret:          getEnv("AUTH_JWT_REFRESH_SECRET", "dev-refresh-secret"),
			Issuer:                    getEnv("AUTH_JWT_ISSUER", "conjunto-service"),
			AccessTokenTTLMinutes:     getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 15),
			RefreshTokenTTLDays:       getEnvAsInt("AUTH_REFRESH_TOKEN_TTL_DAYS", 7),
			PasswordResetTTLMinutes:   getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 60),
			EmailVerificationTTLHours: getEnvAsInt("AUTH_EMAIL_VERIFICATION_TTL_HOURS", 24),
			BcryptCost:                getEnvAsInt("AUTH_BCRYPT_COST", 12),
			MaxLoginAttempts:          getEnvAsInt("AUTH_MAX_LOGIN_ATTEMPTS", 5),
			LockoutDurationMinutes:    getEnvAsInt("AUTH_LOCKOUT_DURATION_MINUTES", 15),
		},
		PQR: PQRConfig{
			StrictTransitions: getEnvAsBool("PQR_STRICT_TRANSITIONS", false),
			MetricsCacheTTL:   time.Duration(getEnvAsInt("PQR_METRICS_CACHE_TTL_SECONDS", 60)) * time.Second,
		},
		Notification: NotificationConfig{
			EmailFrom: getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
		},
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

// IsProduction reports whether the service runs with production settings.
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
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
