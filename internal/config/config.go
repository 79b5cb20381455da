// Package config loads service configuration from environment and file.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/fx"
)

// Config holds all runtime settings for the service.
type Config struct {
	Environment string `mapstructure:"environment"`
	HTTPAddr    string `mapstructure:"http_addr"`

	Database  DatabaseConfig  `mapstructure:"database"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Rollup    RollupConfig    `mapstructure:"rollup"`
}

// DatabaseConfig selects the gorm driver and connection string.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// RateLimitConfig bounds write traffic per client.
type RateLimitConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

// TelemetryConfig controls OTLP export.
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

// RollupConfig controls the usage rollup worker.
type RollupConfig struct {
	BatchSize    int           `mapstructure:"batch_size"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// IsProduction reports whether the service runs with production hardening.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

// Load reads configuration from resail.yaml (optional) and RESAIL_* env vars.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("resail")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/resail")

	v.SetDefault("environment", "development")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "resail.db")
	v.SetDefault("rate_limit.limit", 120)
	v.SetDefault("rate_limit.window", time.Minute)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "localhost:4318")
	v.SetDefault("telemetry.service_name", "resail")
	v.SetDefault("rollup.batch_size", 50)
	v.SetDefault("rollup.poll_interval", 2*time.Second)

	v.SetEnvPrefix("RESAIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var Module = fx.Module("config",
	fx.Provide(Load),
)
