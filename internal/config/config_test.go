// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultDatabasePath, cfg.DatabasePath)
	assert.True(t, cfg.Provider.UsePlayground)
	assert.Equal(t, DefaultHTTPTimeout, cfg.Provider.Timeout)
	assert.False(t, cfg.Sync.Enabled)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
port: 9100
database-path: /tmp/test.db
provider:
  api-key: sk-test
  use-playground: false
  timeout: 10s
sync:
  enabled: true
  interval: 5m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "/tmp/test.db", cfg.DatabasePath)
	assert.Equal(t, "sk-test", cfg.Provider.APIKey)
	assert.False(t, cfg.Provider.UsePlayground)
	assert.Equal(t, 10*time.Second, cfg.Provider.Timeout)
	assert.True(t, cfg.Sync.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Sync.Interval)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CITYPULSE_API_KEY", "sk-env")
	t.Setenv("CITYPULSE_DATAFILE_ID", "df-123")
	t.Setenv("CITYPULSE_USE_PLAYGROUND", "false")
	t.Setenv("CITYPULSE_SYNC_ENABLED", "true")
	t.Setenv("CITYPULSE_PORT", "9200")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sk-env", cfg.Provider.APIKey)
	assert.Equal(t, "df-123", cfg.Provider.DatafileID)
	assert.False(t, cfg.Provider.UsePlayground)
	assert.True(t, cfg.Sync.Enabled)
	assert.Equal(t, 9200, cfg.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "negative port rejected",
			mutate:  func(c *Config) { c.Port = -1 },
			wantErr: true,
		},
		{
			name:    "empty database path rejected",
			mutate:  func(c *Config) { c.DatabasePath = "" },
			wantErr: true,
		},
		{
			name:    "zero timeout repaired",
			mutate:  func(c *Config) { c.Provider.Timeout = 0 },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")

	cfg := Default()
	cfg.Port = 9300
	cfg.Provider.DatafileID = "df-999"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9300, loaded.Port)
	assert.Equal(t, "df-999", loaded.Provider.DatafileID)
}

func TestWatcherReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9400\n"), 0o600))

	reloaded := make(chan *Config, 1)
	w := NewWatcher(path, func(c *Config) {
		select {
		case reloaded <- c:
		default:
		}
	})
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("port: 9500\n"), 0o600))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 9500, cfg.Port)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}
