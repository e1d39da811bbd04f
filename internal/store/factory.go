// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package store

import (
	"sync"

	engramerr "github.com/engram-dev/engram/pkg/errors"
)

// Factory creates a fresh Backend instance.
type Factory func() (Backend, error)

var (
	factories   = map[string]Factory{}
	factoriesMu sync.RWMutex
)

// RegisterBackend registers a factory for a named storage backend.
// Backend packages call this from init(). This function is goroutine-safe.
func RegisterBackend(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// resolveBackend returns the effective backend name, defaulting to "radix".
func resolveBackend(cfg *Config) string {
	if cfg == nil || cfg.Backend == "" {
		return "radix"
	}
	return cfg.Backend
}

// NewBackend creates a Backend for the configured backend name.
func NewBackend(cfg *Config) (Backend, error) {
	backend := resolveBackend(cfg)

	factoriesMu.RLock()
	factory, ok := factories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, engramerr.Errorf(engramerr.CodeStoreBackendUnsupported,
			"unsupported storage backend: %q", backend)
	}

	return factory()
}
