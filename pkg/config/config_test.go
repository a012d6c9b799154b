package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/taskdeck/pkg/observability"
)

func validTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TASKDECK_POSTGRES_URL", "postgres://localhost/taskdeck_test")
	t.Setenv("TASKDECK_JWT_SECRET", "0123456789abcdef0123456789abcdef")
}

func TestLoadConfigDefaults(t *testing.T) {
	validTestEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.False(t, cfg.Database.SeedDemoData)
	assert.Equal(t, 1024, cfg.Audit.QueueSize)
	assert.Equal(t, 90*24*time.Hour, cfg.Audit.Retention)
	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
	assert.True(t, cfg.Observability.MetricsEnabled)
	assert.False(t, cfg.Observability.OTelEnabled)
	assert.Empty(t, cfg.Redis.URL)
}

func TestLoadConfigOverrides(t *testing.T) {
	validTestEnv(t)
	t.Setenv("TASKDECK_PORT", "8081")
	t.Setenv("TASKDECK_LOG_LEVEL", "debug")
	t.Setenv("TASKDECK_SEED_DEMO_DATA", "true")
	t.Setenv("TASKDECK_AUDIT_RETENTION", "720h")
	t.Setenv("TASKDECK_RATE_LIMIT_REQUESTS", "50")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, observability.DebugLevel, cfg.Observability.LogLevel)
	assert.True(t, cfg.Database.SeedDemoData)
	assert.Equal(t, 720*time.Hour, cfg.Audit.Retention)
	assert.Equal(t, 50, cfg.Redis.RateLimitRequests)
}

func TestValidateRejectsMissingRequirements(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		message string
	}{
		{
			name:    "missing postgres URL",
			mutate:  func(cfg *Config) { cfg.Database.URL = "" },
			message: "postgres URL",
		},
		{
			name:    "missing JWT secret",
			mutate:  func(cfg *Config) { cfg.Auth.JWTSecret = "" },
			message: "JWT secret",
		},
		{
			name:    "short JWT secret",
			mutate:  func(cfg *Config) { cfg.Auth.JWTSecret = "short" },
			message: "at least 16",
		},
		{
			name:    "zero audit queue",
			mutate:  func(cfg *Config) { cfg.Audit.QueueSize = 0 },
			message: "queue size",
		},
		{
			name: "bad rate limit with redis",
			mutate: func(cfg *Config) {
				cfg.Redis.URL = "localhost:6379"
				cfg.Redis.RateLimitRequests = 0
			},
			message: "rate limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validTestEnv(t)
			cfg, err := LoadConfig()
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}
