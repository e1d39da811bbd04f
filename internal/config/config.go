// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package config

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/engram-dev/engram/internal/memory"
	engramerr "github.com/engram-dev/engram/pkg/errors"
)

// Config is the top-level engram configuration.
type Config struct {
	Storage   StorageConfig   `mapstructure:"storage"`
	Data      DataConfig      `mapstructure:"data"`
	Events    EventsConfig    `mapstructure:"events"`
	Transport TransportConfig `mapstructure:"transport"`
	Ops       OpsConfig       `mapstructure:"ops"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"`
	Shutdown  ShutdownConfig  `mapstructure:"shutdown"`
	Log       LogConfig       `mapstructure:"log"`
}

// StorageConfig selects the store backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
}

// DataConfig points at the optional bulk-load files read at startup.
type DataConfig struct {
	Entities string `mapstructure:"entities"`
	Events   string `mapstructure:"events"`
}

// EventsConfig bounds event scans.
type EventsConfig struct {
	Limit int `mapstructure:"limit"`
}

// TransportConfig controls how the daemon accepts protocol traffic.
// Stdio serves newline-delimited requests on stdin/stdout; Listen, when
// non-empty, additionally binds a TCP listener on that address.
type TransportConfig struct {
	Stdio  bool   `mapstructure:"stdio"`
	Listen string `mapstructure:"listen"`
}

// OpsConfig controls the ops HTTP surface. Port 0 disables it.
type OpsConfig struct {
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// TelemetryConfig toggles span export and request metrics.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// SnapshotConfig names the directory the final store contents are
// written to on clean shutdown. Empty disables the snapshot.
type SnapshotConfig struct {
	Dir string `mapstructure:"dir"`
}

// ShutdownConfig bounds how long drain waits for in-flight requests.
type ShutdownConfig struct {
	Grace time.Duration `mapstructure:"grace"`
}

// LogConfig controls the slog level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix ENGRAM_).
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults. Every key gets one so AutomaticEnv can override it;
	// viper only consults the environment for keys it already knows.
	v.SetDefault("storage.backend", "radix")
	v.SetDefault("data.entities", "")
	v.SetDefault("data.events", "")
	v.SetDefault("events.limit", memory.DefaultEventLimit)
	v.SetDefault("transport.stdio", true)
	v.SetDefault("transport.listen", "")
	v.SetDefault("ops.port", 3000)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("snapshot.dir", "")
	v.SetDefault("shutdown.grace", "5s")
	v.SetDefault("log.level", "info")

	// Environment
	v.SetEnvPrefix("ENGRAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// File
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, engramerr.Errorf(engramerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, engramerr.Errorf(engramerr.CodeConfigParseInvalidFormat, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, engramerr.Errorf(engramerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors. It returns a
// slice of all validation errors found, collecting all issues rather
// than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateEvents()...)
	errs = append(errs, c.validateTransport()...)
	errs = append(errs, c.validateOps()...)
	errs = append(errs, c.validateShutdown()...)
	errs = append(errs, c.validateLog()...)

	return errs
}

func (c *Config) validateStorage() []error {
	var errs []error

	validBackends := map[string]bool{"radix": true}
	if !validBackends[c.Storage.Backend] {
		errs = append(errs, engramerr.Errorf(engramerr.CodeConfigValidateInvalidValue,
			"config: storage.backend must be one of [radix], got %q",
			c.Storage.Backend,
		))
	}

	return errs
}

func (c *Config) validateEvents() []error {
	var errs []error

	if c.Events.Limit <= 0 {
		errs = append(errs, engramerr.Errorf(engramerr.CodeConfigValidateInvalidValue,
			"config: events.limit must be greater than 0, got %d",
			c.Events.Limit,
		))
	}

	return errs
}

func (c *Config) validateTransport() []error {
	var errs []error

	if !c.Transport.Stdio && c.Transport.Listen == "" {
		errs = append(errs, engramerr.Errorf(engramerr.CodeConfigValidateInvalidValue,
			"config: transport.stdio is disabled and transport.listen is empty; enable at least one transport",
		))
	}

	if c.Transport.Listen != "" {
		errs = append(errs, validateHostPort("transport.listen", c.Transport.Listen)...)
	}

	return errs
}

func (c *Config) validateOps() []error {
	var errs []error

	if c.Ops.Port < 0 || c.Ops.Port > 65535 {
		errs = append(errs, engramerr.Errorf(engramerr.CodeConfigValidateInvalidValue,
			"config: ops.port must be between 0 and 65535, got %d",
			c.Ops.Port,
		))
	}

	for i, origin := range c.Ops.CORSOrigins {
		if origin == "*" {
			errs = append(errs, engramerr.Errorf(engramerr.CodeConfigValidateInvalidValue,
				"config: ops.cors_origins[%d] must not be the wildcard origin; list explicit origins",
				i,
			))
		}
	}

	return errs
}

func (c *Config) validateShutdown() []error {
	var errs []error

	if c.Shutdown.Grace <= 0 {
		errs = append(errs, engramerr.Errorf(engramerr.CodeConfigValidateInvalidValue,
			"config: shutdown.grace must be a positive duration, got %s",
			c.Shutdown.Grace,
		))
	}

	return errs
}

func (c *Config) validateLog() []error {
	var errs []error

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, engramerr.Errorf(engramerr.CodeConfigValidateInvalidValue,
			"config: log.level must be one of [debug, info, warn, error], got %q",
			c.Log.Level,
		))
	}

	return errs
}

func validateHostPort(key, addr string) []error {
	var errs []error

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		errs = append(errs, engramerr.Errorf(engramerr.CodeConfigValidateInvalidValue,
			"config: %s must be a valid host:port address, got %q: %w",
			key, addr, err,
		))
		return errs
	}
	_ = host // host can be empty (e.g., ":7650"), which is valid

	port, err := strconv.Atoi(portStr)
	if err != nil {
		errs = append(errs, engramerr.Errorf(engramerr.CodeConfigValidateInvalidValue,
			"config: %s port must be a number, got %q",
			key, portStr,
		))
	} else if port < 1 || port > 65535 {
		errs = append(errs, engramerr.Errorf(engramerr.CodeConfigValidateInvalidValue,
			"config: %s port must be between 1 and 65535, got %d",
			key, port,
		))
	}

	return errs
}
