// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config provides configuration management for the CityPulse server.
// It handles loading and parsing YAML configuration files, applies environment
// variable overrides, and provides structured access to application settings
// including server port, database path, provider credentials, and the
// background sync schedule.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when the configuration file omits a setting.
const (
	DefaultPort         = 8000
	DefaultDatabasePath = "database/citypulse.db"
	DefaultSyncInterval = 30 * time.Minute
	DefaultHTTPTimeout  = 30 * time.Second
)

// ProviderConfig holds settings for the external SQL-generation provider.
type ProviderConfig struct {
	// APIKey authenticates against the provider. Empty means fallback-only mode.
	APIKey string `yaml:"api-key" json:"-"`

	// BaseURL is the direct API endpoint root.
	BaseURL string `yaml:"base-url" json:"base-url"`

	// UsePlayground selects the playground mode when true, direct API otherwise.
	UsePlayground bool `yaml:"use-playground" json:"use-playground"`

	// DatafileID scopes playground queries to an uploaded dataset.
	DatafileID string `yaml:"datafile-id" json:"datafile-id"`

	// Timeout bounds each remote call. On expiry the adapter falls through
	// to the next provider in the chain.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// SyncConfig controls the background data synchronization job.
type SyncConfig struct {
	// Enabled toggles the periodic sync scheduler.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Interval is the delay between sync cycles.
	Interval time.Duration `yaml:"interval" json:"interval"`
}

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// Host is the network host/interface on which the API server will bind.
	// Default is empty ("") to bind all interfaces.
	Host string `yaml:"host" json:"-"`

	// Port is the network port on which the API server will listen.
	Port int `yaml:"port" json:"-"`

	// DatabasePath locates the SQLite database file.
	DatabasePath string `yaml:"database-path" json:"database-path"`

	// Provider configures the external SQL-generation service.
	Provider ProviderConfig `yaml:"provider" json:"provider"`

	// Sync configures the background data synchronization job.
	Sync SyncConfig `yaml:"sync" json:"sync"`

	// Debug enables or disables debug-level logging.
	Debug bool `yaml:"debug" json:"debug"`

	// LoggingToFile controls whether logs go to rotating files or stdout.
	LoggingToFile bool `yaml:"logging-to-file" json:"logging-to-file"`

	// ManagementKey is a bcrypt hash protecting mode-switching endpoints.
	// Empty disables the check.
	ManagementKey string `yaml:"management-key" json:"-"`
}

// Default returns a configuration populated with built-in defaults.
func Default() *Config {
	return &Config{
		Port:         DefaultPort,
		DatabasePath: DefaultDatabasePath,
		Provider: ProviderConfig{
			BaseURL:       "https://api.snowleopard.ai/v1",
			UsePlayground: true,
			Timeout:       DefaultHTTPTimeout,
		},
		Sync: SyncConfig{
			Enabled:  false,
			Interval: DefaultSyncInterval,
		},
	}
}

// Load reads a YAML configuration file, applies defaults for omitted fields,
// then applies environment variable overrides. A missing file is not an
// error; defaults plus environment are used instead.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// Fall through to env-only configuration.
		default:
			return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file-based settings with environment variables.
// Presence wins; empty variables are ignored.
func (c *Config) applyEnv() {
	if v := os.Getenv("CITYPULSE_API_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("CITYPULSE_DATAFILE_ID"); v != "" {
		c.Provider.DatafileID = v
	}
	if v := os.Getenv("CITYPULSE_USE_PLAYGROUND"); v != "" {
		c.Provider.UsePlayground = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("CITYPULSE_DB_PATH"); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv("CITYPULSE_SYNC_ENABLED"); v != "" {
		c.Sync.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("CITYPULSE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("config: database-path cannot be empty")
	}
	if c.Provider.Timeout <= 0 {
		c.Provider.Timeout = DefaultHTTPTimeout
	}
	if c.Sync.Interval <= 0 {
		c.Sync.Interval = DefaultSyncInterval
	}
	return nil
}

// Save writes the configuration back to disk as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: failed to marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}
	return nil
}
