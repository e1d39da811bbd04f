// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package store_test

import (
	"fmt"
	"testing"

	"github.com/engram-dev/engram/internal/store"
	_ "github.com/engram-dev/engram/internal/store/radix" // register radix backend
	engramerr "github.com/engram-dev/engram/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBackend_Radix(t *testing.T) {
	b, err := store.NewBackend(&store.Config{Backend: "radix"})
	require.NoError(t, err)
	assert.NotNil(t, b)
}

func TestNewBackend_DefaultBackend(t *testing.T) {
	b, err := store.NewBackend(&store.Config{}) // empty backend defaults to radix
	require.NoError(t, err)
	assert.NotNil(t, b)
}

func TestNewBackend_NilConfig(t *testing.T) {
	b, err := store.NewBackend(nil)
	require.NoError(t, err)
	assert.NotNil(t, b)
}

func TestNewBackend_UnknownBackend(t *testing.T) {
	_, err := store.NewBackend(&store.Config{Backend: "unknown"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown")
	assert.True(t, engramerr.HasCode(err, engramerr.CodeStoreBackendUnsupported))
}

func TestNewBackend_InstancesAreIndependent(t *testing.T) {
	a, err := store.NewBackend(&store.Config{Backend: "radix"})
	require.NoError(t, err)
	b, err := store.NewBackend(&store.Config{Backend: "radix"})
	require.NoError(t, err)

	_, err = a.Put("only-in-a", 1)
	require.NoError(t, err)

	_, ok, err := b.Get("only-in-a")
	require.NoError(t, err)
	assert.False(t, ok, "each factory call must build a fresh store")
}

// TestRegisterBackend_Concurrent verifies that RegisterBackend is goroutine-safe
// and can handle concurrent registrations without race conditions.
func TestRegisterBackend_Concurrent(t *testing.T) {
	const numGoroutines = 10
	const registrationsPerGoroutine = 10

	done := make(chan bool, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(goroutineID int) {
			defer func() { done <- true }()
			for j := 0; j < registrationsPerGoroutine; j++ {
				name := fmt.Sprintf("backend-%d-%d", goroutineID, j)
				store.RegisterBackend(name, func() (store.Backend, error) {
					return nil, nil
				})
			}
		}(i)
	}

	for i := 0; i < numGoroutines; i++ {
		<-done
	}
}
