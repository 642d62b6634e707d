// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers understood by the jobs API.
const (
	DriverMemory   = "memory"
	DriverEtcd     = "etcd"
	DriverPostgres = "postgres"
)

// Config holds the configuration of both binaries.
// The mapstructure tags are used by Viper to unmarshal the data.
type Config struct {
	LogLevel       string        `mapstructure:"log_level"`
	HttpListenAddr string        `mapstructure:"http_listen_addr"`
	Tracing        TracingConfig `mapstructure:"tracing"`
	Storage        StorageConfig `mapstructure:"storage"`
	Expiry         ExpiryConfig  `mapstructure:"expiry"`
	Console        ConsoleConfig `mapstructure:"console"`
}

type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// StorageConfig selects and configures the posting repository.
type StorageConfig struct {
	Driver        string        `mapstructure:"driver"`
	EtcdEndpoints []string      `mapstructure:"etcd_endpoints"`
	EtcdTimeout   time.Duration `mapstructure:"etcd_timeout"`
	PostgresURL   string        `mapstructure:"postgres_url"`
	// RedisURL, when set, backs the expiry lock for drivers without one.
	RedisURL      string        `mapstructure:"redis_url"`
}

// ExpiryConfig controls the sweep that deactivates old postings.
// A zero MaxAge disables it.
type ExpiryConfig struct {
	Schedule string        `mapstructure:"schedule"`
	MaxAge   time.Duration `mapstructure:"max_age"`
}

// ConsoleConfig configures the interactive client.
type ConsoleConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	BasePath       string        `mapstructure:"base_path"`
	PageSize       int           `mapstructure:"page_size"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	return LoadWith(viper.New(), "./configs", ".")
}

// LoadWith reads config.yaml from the first of paths that has one, then
// applies environment overrides (expiry.max_age -> EXPIRY_MAX_AGE).
func LoadWith(v *viper.Viper, paths ...string) (*Config, error) {
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// No config file; defaults and env vars apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail later and obscurely.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverEtcd:
		if len(c.Storage.EtcdEndpoints) == 0 {
			return fmt.Errorf("storage.etcd_endpoints is required for the etcd driver")
		}
	case DriverPostgres:
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("storage.postgres_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Expiry.MaxAge < 0 {
		return fmt.Errorf("expiry.max_age must not be negative")
	}
	if c.Console.PageSize <= 0 {
		return fmt.Errorf("console.page_size must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("http_listen_addr", ":8080")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.etcd_endpoints", []string{"localhost:2379"})
	v.SetDefault("storage.etcd_timeout", "5s")
	v.SetDefault("storage.postgres_url", "")
	v.SetDefault("storage.redis_url", "")
	v.SetDefault("expiry.schedule", "0 0 * * * *")
	v.SetDefault("expiry.max_age", "0s")
	v.SetDefault("console.base_url", "http://localhost:8080")
	v.SetDefault("console.base_path", "/api/jobs")
	v.SetDefault("console.page_size", 10)
	v.SetDefault("console.request_timeout", "10s")
}
