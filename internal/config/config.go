// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/constraint-warden/internal/logger"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// HookConfig describes the webhook identity and admission policy.
type HookConfig struct {
	// ID is the hook identifier; it is the first path segment of every route.
	ID string `mapstructure:"id"`
	// MaxConcurrentJobs caps the running set. Zero or negative means unbounded.
	MaxConcurrentJobs int `mapstructure:"max_concurrent_jobs"`
	// Enabled gates the whole service; the model server only dispatches
	// events when webhooks are enabled, so starting without it is a mistake.
	Enabled bool `mapstructure:"enabled"`
}

// CheckerConfig describes the external constraint-checker command.
type CheckerConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// DBConfig holds the Postgres connection settings.
type DBConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// Config holds the application's configuration values.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Hook   HookConfig   `mapstructure:"hook"`
	// StorageDriver selects the status store backend: "postgres" or "memory".
	StorageDriver string        `mapstructure:"storage_driver"`
	Checker       CheckerConfig `mapstructure:"checker"`
	Database      DBConfig      `mapstructure:"database"`
	Logger        logger.Config `mapstructure:"logger"`
}

// LoadConfig reads configuration from a YAML file and CW_-prefixed environment
// variables, sets sensible defaults, and validates required fields. An empty
// path falls back to config.yaml in the working directory.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", "8080")
	v.SetDefault("hook.id", "ConstraintCheckerHook")
	v.SetDefault("hook.max_concurrent_jobs", 1)
	v.SetDefault("hook.enabled", true)
	v.SetDefault("storage_driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.username", "warden")
	v.SetDefault("database.database", "constraint_results")
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", 30*time.Minute)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("logger.output", "stdout")

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine, defaults and env cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	if c.Hook.ID == "" {
		return fmt.Errorf("hook.id must be set")
	}
	if c.Checker.Command == "" {
		return fmt.Errorf("checker.command must be set")
	}
	switch c.StorageDriver {
	case "postgres":
		if c.Database.Database == "" {
			return fmt.Errorf("database.database must be set for the postgres driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported storage driver: %s", c.StorageDriver)
	}
	return nil
}
