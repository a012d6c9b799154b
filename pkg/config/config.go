package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/taskdeck/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Redis         RedisConfig
	Audit         AuditConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	SeedDemoData    bool
}

// AuthConfig holds credential service configuration
type AuthConfig struct {
	JWTSecret string
}

// RedisConfig holds Redis and rate limiter configuration. Redis is
// optional; with no URL the rate limiter is disabled entirely.
type RedisConfig struct {
	URL               string
	Password          string
	DB                int
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// AuditConfig holds audit recorder configuration
type AuditConfig struct {
	QueueSize     int
	DrainTimeout  time.Duration
	Retention     time.Duration
	PruneSchedule string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool

	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("TASKDECK_HOST", "0.0.0.0"),
			Port:            getEnv("TASKDECK_PORT", "3000"),
			ReadTimeout:     getEnvDuration("TASKDECK_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("TASKDECK_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("TASKDECK_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("TASKDECK_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:             getEnv("TASKDECK_POSTGRES_URL", ""),
			MaxOpenConns:    getEnvInt("TASKDECK_POSTGRES_MAX_CONNS", 25),
			MaxIdleConns:    getEnvInt("TASKDECK_POSTGRES_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("TASKDECK_POSTGRES_CONN_LIFETIME", 5*time.Minute),
			SeedDemoData:    getEnvBool("TASKDECK_SEED_DEMO_DATA", false),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("TASKDECK_JWT_SECRET", ""),
		},
		Redis: RedisConfig{
			URL:               getEnv("TASKDECK_REDIS_URL", ""),
			Password:          getEnv("TASKDECK_REDIS_PASSWORD", ""),
			DB:                getEnvInt("TASKDECK_REDIS_DB", 0),
			RateLimitRequests: getEnvInt("TASKDECK_RATE_LIMIT_REQUESTS", 300),
			RateLimitWindow:   getEnvDuration("TASKDECK_RATE_LIMIT_WINDOW", time.Minute),
		},
		Audit: AuditConfig{
			QueueSize:     getEnvInt("TASKDECK_AUDIT_QUEUE_SIZE", 1024),
			DrainTimeout:  getEnvDuration("TASKDECK_AUDIT_DRAIN_TIMEOUT", 10*time.Second),
			Retention:     getEnvDuration("TASKDECK_AUDIT_RETENTION", 90*24*time.Hour),
			PruneSchedule: getEnv("TASKDECK_AUDIT_PRUNE_SCHEDULE", "0 3 * * *"),
		},
		Observability: ObservabilityConfig{
			LogLevel:           observability.ParseLogLevel(getEnv("TASKDECK_LOG_LEVEL", "info")),
			MetricsEnabled:     getEnvBool("TASKDECK_METRICS_ENABLED", true),
			OTelEnabled:        getEnvBool("TASKDECK_OTEL_ENABLED", false),
			OTelEndpoint:       getEnv("TASKDECK_OTEL_ENDPOINT", "localhost:4317"),
			OTelServiceName:    getEnv("TASKDECK_OTEL_SERVICE_NAME", "taskdeck"),
			OTelServiceVersion: getEnv("TASKDECK_OTEL_SERVICE_VERSION", "1.0.0"),
			OTelInsecure:       getEnvBool("TASKDECK_OTEL_INSECURE", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("JWT secret must be at least 16 characters")
	}
	if c.Audit.QueueSize <= 0 {
		return fmt.Errorf("audit queue size must be positive")
	}
	if c.Audit.Retention <= 0 {
		return fmt.Errorf("audit retention must be positive")
	}
	if c.Redis.URL != "" {
		if c.Redis.RateLimitRequests <= 0 {
			return fmt.Errorf("rate limit request count must be positive")
		}
		if c.Redis.RateLimitWindow <= 0 {
			return fmt.Errorf("rate limit window must be positive")
		}
	}
	if c.Observability.OTelEnabled && c.Observability.OTelEndpoint == "" {
		return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
	}
	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
