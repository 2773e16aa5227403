package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "herdbook/internal/core/numerator"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, corenumerator.DefaultRangeSize, cfg.CounterRangeSize)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)

	opts, err := cfg.CounterOptions()
	require.NoError(t, err)
	assert.Equal(t, corenumerator.StrategyStrict, opts.Strategy)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "herdbook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		"app_port: \"9090\"",
		"store: SQLite",
		"counter_strategy: cached",
		"counter_range_size: 20",
	}, "\n")), 0o600))

	t.Setenv("HERDBOOK_APP_PORT", "7070")
	t.Setenv("HERDBOOK_SHUTDOWN_TIMEOUT", "5s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)

	opts, err := cfg.CounterOptions()
	require.NoError(t, err)
	assert.Equal(t, corenumerator.StrategyCached, opts.Strategy)
	assert.Equal(t, int64(20), opts.RangeSize)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Env:              "development",
			Port:             "8080",
			Store:            StorePostgres,
			DatabaseURL:      "postgres://localhost/herdbook",
			CounterStrategy:  "strict",
			CounterRangeSize: 50,
			JWTSecret:        devJWTSecret,
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.Port = "http" }, "app_port"},
		{"no dsn", func(c *Config) { c.DatabaseURL = "" }, "database_url"},
		{"no sqlite path", func(c *Config) { c.Store = StoreSQLite; c.SQLitePath = "" }, "sqlite_path"},
		{"unknown store", func(c *Config) { c.Store = "redis" }, "unknown store"},
		{"bad strategy", func(c *Config) { c.CounterStrategy = "lazy" }, "counter strategy"},
		{"bad range", func(c *Config) { c.CounterRangeSize = 0 }, "counter_range_size"},
		{"weak secret in production", func(c *Config) { c.Env = "production" }, "jwt_secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
