// Package config loads server and CLI settings from defaults, an optional
// YAML file and HERDBOOK_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	corenumerator "herdbook/internal/core/numerator"
)

const (
	envPrefix = "HERDBOOK"

	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"

	devJWTSecret = "dev-secret-change-me"
)

// Config is the resolved configuration.
type Config struct {
	Env      string `mapstructure:"app_env"`
	Port     string `mapstructure:"app_port"`
	LogLevel string `mapstructure:"log_level"`

	Store       string `mapstructure:"store"`
	DatabaseURL string `mapstructure:"database_url"`
	DBMaxConns  int32  `mapstructure:"db_max_conns"`
	SQLitePath  string `mapstructure:"sqlite_path"`

	CounterStrategy  string `mapstructure:"counter_strategy"`
	CounterRangeSize int64  `mapstructure:"counter_range_size"`

	JWTSecret string `mapstructure:"jwt_secret"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "development")
	v.SetDefault("app_port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("store", StorePostgres)
	v.SetDefault("database_url", "")
	v.SetDefault("db_max_conns", 25)
	v.SetDefault("sqlite_path", "herdbook.db")
	v.SetDefault("counter_strategy", corenumerator.StrategyStrict.String())
	v.SetDefault("counter_range_size", corenumerator.DefaultRangeSize)
	v.SetDefault("jwt_secret", devJWTSecret)
	v.SetDefault("shutdown_timeout", 30*time.Second)
}

// Load resolves the configuration. configFile may be empty.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	return &cfg, nil
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// CounterOptions converts the counter settings.
func (c *Config) CounterOptions() (corenumerator.Options, error) {
	strategy, err := corenumerator.ParseStrategy(c.CounterStrategy)
	if err != nil {
		return corenumerator.Options{}, err
	}
	return corenumerator.Options{Strategy: strategy, RangeSize: c.CounterRangeSize}, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 || p > 65535 {
		errs = append(errs, fmt.Errorf("app_port %q is not a valid port", c.Port))
	}

	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("database_url is required for the postgres store"))
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("sqlite_path is required for the sqlite store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store))
	}

	if _, err := c.CounterOptions(); err != nil {
		errs = append(errs, err)
	}
	if c.CounterRangeSize < 1 {
		errs = append(errs, errors.New("counter_range_size must be positive"))
	}

	if !c.IsDevelopment() && (c.JWTSecret == devJWTSecret || len(c.JWTSecret) < 32) {
		errs = append(errs, errors.New("jwt_secret must be set to at least 32 characters outside development"))
	}

	return errors.Join(errs...)
}
