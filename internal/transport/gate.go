// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

// Package transport carries protocol lines between clients and the
// dispatcher: stdio for the common single-client case, TCP for
// multi-client use. Both framings are newline-delimited JSON. The
// shared Gate coordinates graceful drain across every transport.
package transport

import (
	"sync"
	"sync/atomic"
	"time"

	engramerr "github.com/engram-dev/engram/pkg/errors"
)

// Gate tracks in-flight requests and the drain latch. Once Drain
// flips the latch, Enter stops admitting work and the dispatcher
// answers everything with a shutdown refusal; Drain then waits for
// requests admitted earlier to finish, up to the grace period.
type Gate struct {
	mu       sync.Mutex
	draining atomic.Bool
	wg       sync.WaitGroup
}

func NewGate() *Gate {
	return &Gate{}
}

// Draining reports whether drain has begun.
func (g *Gate) Draining() bool {
	return g.draining.Load()
}

// Enter admits one request and returns its release func. During drain
// the request is not tracked and the release is a no-op; the caller
// still dispatches so the client receives a refusal rather than
// silence. The release func is safe to call more than once.
func (g *Gate) Enter() func() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.draining.Load() {
		return func() {}
	}

	g.wg.Add(1)
	var once sync.Once
	return func() {
		once.Do(g.wg.Done)
	}
}

// Drain flips the latch and waits for in-flight requests to finish.
// Returns an error if the grace period expires first.
func (g *Gate) Drain(grace time.Duration) error {
	g.mu.Lock()
	g.draining.Store(true)
	g.mu.Unlock()

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(grace):
		return engramerr.Errorf(engramerr.CodeServerShutdownFailure,
			"drain grace period of %v expired with requests still in flight", grace)
	}
}
