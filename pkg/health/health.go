// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package health

import "sync/atomic"

// State is the lifecycle phase reported by readiness probes.
type State string

const (
	// StateStarting means stores are not yet loaded; requests would fail.
	StateStarting State = "starting"
	// StateReady means stores are loaded and the process accepts writes.
	StateReady State = "ready"
	// StateDegraded means the process is serving but holds no data.
	StateDegraded State = "degraded"
	// StateDraining means shutdown has begun and new requests are refused.
	StateDraining State = "draining"
)

// Probe holds the liveness/readiness flags shared between the lifecycle
// coordinator and the ops HTTP surface. All methods are safe for
// concurrent use.
type Probe struct {
	ready    atomic.Bool
	draining atomic.Bool
}

func NewProbe() *Probe {
	return &Probe{}
}

// SetReady marks bulk loading as complete. Called once by the lifecycle
// coordinator before any transport starts accepting requests.
func (p *Probe) SetReady() {
	p.ready.Store(true)
}

// BeginDrain flips the probe into the draining phase. Irreversible.
func (p *Probe) BeginDrain() {
	p.draining.Store(true)
}

// Alive reports process responsiveness. It is a method rather than a
// constant so callers exercise the same indirection the readiness path
// uses; a process that can run it is alive.
func (p *Probe) Alive() bool {
	return true
}

// Ready reports whether the process is loaded and accepting writes.
func (p *Probe) Ready() bool {
	return p.ready.Load() && !p.draining.Load()
}

func (p *Probe) Draining() bool {
	return p.draining.Load()
}

// StateFor classifies the current phase given live record counts.
// An empty but serving process reports degraded, not unready, so
// orchestrators keep routing probes while operators investigate.
func (p *Probe) StateFor(entityCount, eventCount int) State {
	switch {
	case p.draining.Load():
		return StateDraining
	case !p.ready.Load():
		return StateStarting
	case entityCount == 0 && eventCount == 0:
		return StateDegraded
	default:
		return StateReady
	}
}
