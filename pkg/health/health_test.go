// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package health_test

import (
	"sync"
	"testing"

	"github.com/engram-dev/engram/pkg/health"
	"github.com/stretchr/testify/assert"
)

func TestProbeLifecycle(t *testing.T) {
	p := health.NewProbe()

	assert.True(t, p.Alive())
	assert.False(t, p.Ready(), "probe must not be ready before SetReady")
	assert.Equal(t, health.StateStarting, p.StateFor(0, 0))

	p.SetReady()
	assert.True(t, p.Ready())
	assert.Equal(t, health.StateDegraded, p.StateFor(0, 0))
	assert.Equal(t, health.StateReady, p.StateFor(3, 0))
	assert.Equal(t, health.StateReady, p.StateFor(0, 7))

	p.BeginDrain()
	assert.True(t, p.Alive(), "draining process is still alive")
	assert.False(t, p.Ready(), "draining process is not ready")
	assert.True(t, p.Draining())
	assert.Equal(t, health.StateDraining, p.StateFor(3, 7))
}

func TestProbeStateTable(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*health.Probe)
		entities int
		events   int
		want     health.State
	}{
		{name: "fresh probe is starting", setup: func(*health.Probe) {}, want: health.StateStarting},
		{name: "ready with data", setup: (*health.Probe).SetReady, entities: 1, want: health.StateReady},
		{name: "ready without data is degraded", setup: (*health.Probe).SetReady, want: health.StateDegraded},
		{
			name: "drain wins over ready",
			setup: func(p *health.Probe) {
				p.SetReady()
				p.BeginDrain()
			},
			entities: 5,
			events:   5,
			want:     health.StateDraining,
		},
		{
			name:  "drain before ready still drains",
			setup: (*health.Probe).BeginDrain,
			want:  health.StateDraining,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := health.NewProbe()
			tt.setup(p)
			assert.Equal(t, tt.want, p.StateFor(tt.entities, tt.events))
		})
	}
}

func TestProbeConcurrentAccess(t *testing.T) {
	p := health.NewProbe()
	p.SetReady()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = p.Ready()
				_ = p.StateFor(1, 1)
			}
		}()
	}
	p.BeginDrain()
	wg.Wait()

	assert.Equal(t, health.StateDraining, p.StateFor(1, 1))
}
