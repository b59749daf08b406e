package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Store     StoreConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Server    ServerConfig
	Audit     AuditConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

type StoreConfig struct {
	Driver      string
	AutoMigrate bool
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis settings for audit fan-out. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// JWTConfig holds session token settings.
type JWTConfig struct {
	Secret string //nolint:gosec // G117: JWT signing secret config
	TTL    time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

type AuditConfig struct {
	QueueSize    int
	Workers      int
	WriteTimeout time.Duration
}

// RateLimitConfig sets token buckets per tenant on authenticated routes and
// per client IP on the public auth routes.
type RateLimitConfig struct {
	TenantRPS   float64
	TenantBurst int
	AuthRPS     float64
	AuthBurst   int
}

type LogConfig struct {
	Level  string
	Format string // json | text
}

// LoadDotEnv loads the given .env files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config.LoadDotEnv: %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production,
// the JWT secret and DB password must be set explicitly.
func Load() (*Config, error) {
	autoMigrate, err := getEnvBool("TASKHUB_DB_AUTO_MIGRATE", false)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbPort, err := getEnvInt("TASKHUB_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("TASKHUB_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("TASKHUB_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	jwtTTL, err := getEnvDuration("TASKHUB_JWT_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("TASKHUB_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("TASKHUB_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	shutdownTimeout, err := getEnvDuration("TASKHUB_SERVER_SHUTDOWN_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	auditQueue, err := getEnvInt("TASKHUB_AUDIT_QUEUE_SIZE", 1024)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	auditWorkers, err := getEnvInt("TASKHUB_AUDIT_WORKERS", 2)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	auditTimeout, err := getEnvDuration("TASKHUB_AUDIT_WRITE_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	tenantRPS, err := getEnvFloat("TASKHUB_RATE_LIMIT_TENANT_RPS", 50)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	tenantBurst, err := getEnvInt("TASKHUB_RATE_LIMIT_TENANT_BURST", 100)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	authRPS, err := getEnvFloat("TASKHUB_RATE_LIMIT_AUTH_RPS", 1)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	authBurst, err := getEnvInt("TASKHUB_RATE_LIMIT_AUTH_BURST", 10)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg := &Config{
		Store: StoreConfig{
			Driver:      strings.ToLower(getEnv("TASKHUB_STORE_DRIVER", DriverPostgres)),
			AutoMigrate: autoMigrate,
		},
		Database: DatabaseConfig{
			Host:     getEnv("TASKHUB_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("TASKHUB_DB_USER", "taskhub"),
			Password: getEnv("TASKHUB_DB_PASSWORD", ""),
			DBName:   getEnv("TASKHUB_DB_NAME", "taskhub_dev"),
			SSLMode:  getEnv("TASKHUB_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("TASKHUB_REDIS_ADDR", ""),
			Password: getEnv("TASKHUB_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret: getEnv("TASKHUB_JWT_SECRET", ""),
			TTL:    jwtTTL,
		},
		Server: ServerConfig{
			Addr:            getEnv("TASKHUB_SERVER_ADDR", ":8080"),
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			CORSOrigins:     getEnvList("TASKHUB_CORS_ORIGINS", []string{"http://localhost:3000"}),
		},
		Audit: AuditConfig{
			QueueSize:    auditQueue,
			Workers:      auditWorkers,
			WriteTimeout: auditTimeout,
		},
		RateLimit: RateLimitConfig{
			TenantRPS:   tenantRPS,
			TenantBurst: tenantBurst,
			AuthRPS:     authRPS,
			AuthBurst:   authBurst,
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("TASKHUB_LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("TASKHUB_LOG_FORMAT", "json")),
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("TASKHUB_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("TASKHUB_JWT_SECRET must be at least 32 characters")
	}

	switch c.Store.Driver {
	case DriverPostgres:
		if c.Database.SSLMode == "disable" && c.Database.Host != "localhost" && c.Database.Host != "127.0.0.1" {
			log.Warn().Str("host", c.Database.Host).
				Msg("TASKHUB_DB_SSLMODE=disable is insecure for remote databases; set to 'require' or 'verify-full'")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("TASKHUB_STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, c.Store.Driver)
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("TASKHUB_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("TASKHUB_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("TASKHUB_JWT_TTL must be positive, got %s", c.JWT.TTL)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("TASKHUB_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("TASKHUB_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("TASKHUB_SERVER_SHUTDOWN_TIMEOUT must be positive, got %s", c.Server.ShutdownTimeout)
	}
	if c.Audit.QueueSize < 1 {
		return fmt.Errorf("TASKHUB_AUDIT_QUEUE_SIZE must be >= 1, got %d", c.Audit.QueueSize)
	}
	if c.Audit.Workers < 1 {
		return fmt.Errorf("TASKHUB_AUDIT_WORKERS must be >= 1, got %d", c.Audit.Workers)
	}
	if c.Audit.WriteTimeout <= 0 {
		return fmt.Errorf("TASKHUB_AUDIT_WRITE_TIMEOUT must be positive, got %s", c.Audit.WriteTimeout)
	}
	if c.RateLimit.TenantRPS <= 0 || c.RateLimit.TenantBurst < 1 {
		return fmt.Errorf("TASKHUB_RATE_LIMIT_TENANT_RPS and _BURST must be positive, got %g/%d",
			c.RateLimit.TenantRPS, c.RateLimit.TenantBurst)
	}
	if c.RateLimit.AuthRPS <= 0 || c.RateLimit.AuthBurst < 1 {
		return fmt.Errorf("TASKHUB_RATE_LIMIT_AUTH_RPS and _BURST must be positive, got %g/%d",
			c.RateLimit.AuthRPS, c.RateLimit.AuthBurst)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("TASKHUB_LOG_FORMAT must be json or text, got %q", c.Log.Format)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
