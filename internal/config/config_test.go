// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engram-dev/engram/internal/config"
	"github.com/engram-dev/engram/internal/memory"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "radix", cfg.Storage.Backend)
	assert.Equal(t, memory.DefaultEventLimit, cfg.Events.Limit)
	assert.True(t, cfg.Transport.Stdio)
	assert.Empty(t, cfg.Transport.Listen)
	assert.Equal(t, 3000, cfg.Ops.Port)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Empty(t, cfg.Snapshot.Dir)
	assert.Equal(t, 5*time.Second, cfg.Shutdown.Grace)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "engram.yaml")

	content := `
transport:
  listen: "127.0.0.1:7650"
events:
  limit: 16
shutdown:
  grace: 250ms
data:
  entities: /tmp/entities.json
`
	err := os.WriteFile(cfgPath, []byte(content), 0o644)
	require.NoError(t, err)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7650", cfg.Transport.Listen)
	assert.Equal(t, 16, cfg.Events.Limit)
	assert.Equal(t, 250*time.Millisecond, cfg.Shutdown.Grace)
	assert.Equal(t, "/tmp/entities.json", cfg.Data.Entities)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ENGRAM_TRANSPORT_LISTEN", "10.0.0.1:7650")
	t.Setenv("ENGRAM_LOG_LEVEL", "debug")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:7650", cfg.Transport.Listen)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestLoad_ValidationCalledAtLoadTime(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "engram.yaml")

	content := `
storage:
  backend: "postgres"
`
	err := os.WriteFile(cfgPath, []byte(content), 0o644)
	require.NoError(t, err)

	_, err = config.Load(cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.backend")
}

func TestLoad_BootstrapDefaultsAreValid(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "engram.yaml")
	require.NoError(t, os.WriteFile(cfgPath, config.DefaultConfigYAML, 0o600))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "radix", cfg.Storage.Backend)
	assert.True(t, cfg.Transport.Stdio)
}

func TestBootstrapConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	written := config.BootstrapConfig()
	require.NotEmpty(t, written)

	data, err := os.ReadFile(written)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfigYAML, data)

	// Second call finds the existing file and leaves it alone.
	assert.Empty(t, config.BootstrapConfig())
}

// validConfig returns a minimal config that passes all validation.
func validConfig() *config.Config {
	return &config.Config{
		Storage:   config.StorageConfig{Backend: "radix"},
		Events:    config.EventsConfig{Limit: 64},
		Transport: config.TransportConfig{Stdio: true},
		Ops:       config.OpsConfig{Port: 3000},
		Shutdown:  config.ShutdownConfig{Grace: 5 * time.Second},
		Log:       config.LogConfig{Level: "info"},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	errs := cfg.Validate()
	assert.Empty(t, errs, "valid config should produce no validation errors")
}

func TestValidate_StorageBackend(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		wantErr bool
	}{
		{"valid radix", "radix", false},
		{"invalid backend", "postgres", true},
		{"empty backend", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Storage.Backend = tt.backend
			errs := cfg.Validate()
			if tt.wantErr {
				require.NotEmpty(t, errs)
				assert.Contains(t, errs[0].Error(), "storage.backend")
			} else {
				for _, err := range errs {
					assert.NotContains(t, err.Error(), "storage.backend")
				}
			}
		})
	}
}

func TestValidate_EventsLimit(t *testing.T) {
	tests := []struct {
		name    string
		limit   int
		wantErr bool
	}{
		{"valid limit", 64, false},
		{"limit of one", 1, false},
		{"zero limit", 0, true},
		{"negative limit", -5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Events.Limit = tt.limit
			errs := cfg.Validate()
			if tt.wantErr {
				require.NotEmpty(t, errs)
				assert.Contains(t, errs[0].Error(), "events.limit")
			} else {
				for _, err := range errs {
					assert.NotContains(t, err.Error(), "events.limit")
				}
			}
		})
	}
}

func TestValidate_TransportListen(t *testing.T) {
	tests := []struct {
		name    string
		listen  string
		wantErr bool
	}{
		{"empty listen is disabled", "", false},
		{"valid address", "127.0.0.1:7650", false},
		{"valid all interfaces", "0.0.0.0:9999", false},
		{"valid ipv6", "[::1]:7650", false},
		{"valid bare port", ":7650", false},
		{"missing port", "127.0.0.1", true},
		{"invalid port zero", "127.0.0.1:0", true},
		{"port too high", "127.0.0.1:70000", true},
		{"not a number", "127.0.0.1:abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Transport.Listen = tt.listen
			errs := cfg.Validate()
			if tt.wantErr {
				require.NotEmpty(t, errs)
				assert.Contains(t, errs[0].Error(), "transport.listen")
			} else {
				for _, err := range errs {
					assert.NotContains(t, err.Error(), "transport.listen")
				}
			}
		})
	}
}

func TestValidate_NoTransportEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Transport.Stdio = false
	cfg.Transport.Listen = ""

	errs := cfg.Validate()
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "enable at least one transport")
}

func TestValidate_OpsPort(t *testing.T) {
	tests := []struct {
		name    string
		port    int
		wantErr bool
	}{
		{"valid port", 3000, false},
		{"zero disables ops", 0, false},
		{"max port", 65535, false},
		{"negative port", -1, true},
		{"port too high", 70000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Ops.Port = tt.port
			errs := cfg.Validate()
			if tt.wantErr {
				require.NotEmpty(t, errs)
				assert.Contains(t, errs[0].Error(), "ops.port")
			} else {
				for _, err := range errs {
					assert.NotContains(t, err.Error(), "ops.port")
				}
			}
		})
	}
}

func TestValidate_OpsCORSOrigins(t *testing.T) {
	cfg := validConfig()
	cfg.Ops.CORSOrigins = []string{"https://ops.example.com", "*"}

	errs := cfg.Validate()
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "ops.cors_origins[1]")
}

func TestValidate_ShutdownGrace(t *testing.T) {
	cfg := validConfig()
	cfg.Shutdown.Grace = 0

	errs := cfg.Validate()
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "shutdown.grace")
}

func TestValidate_LogLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		wantErr bool
	}{
		{"valid debug", "debug", false},
		{"valid info", "info", false},
		{"valid warn", "warn", false},
		{"valid error", "error", false},
		{"invalid level", "trace", true},
		{"empty level", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Log.Level = tt.level
			errs := cfg.Validate()
			if tt.wantErr {
				require.NotEmpty(t, errs)
				assert.Contains(t, errs[0].Error(), "log.level")
			} else {
				for _, err := range errs {
					assert.NotContains(t, err.Error(), "log.level")
				}
			}
		})
	}
}
