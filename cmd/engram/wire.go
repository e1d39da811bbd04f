// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/engram-dev/engram/internal/config"
	"github.com/engram-dev/engram/internal/memory"
	"github.com/engram-dev/engram/internal/rpc"
	"github.com/engram-dev/engram/internal/server"
	"github.com/engram-dev/engram/internal/store"
	_ "github.com/engram-dev/engram/internal/store/radix" // register radix backend
	"github.com/engram-dev/engram/internal/telemetry"
	"github.com/engram-dev/engram/internal/transport"
	engramerr "github.com/engram-dev/engram/pkg/errors"
	"github.com/engram-dev/engram/pkg/health"
)

// Daemon holds all wired subsystems and manages their lifecycle.
type Daemon struct {
	Memory     *memory.Memory
	Dispatcher *rpc.Dispatcher
	Gate       *transport.Gate
	Probe      *health.Probe
	Telemetry  *telemetry.Telemetry
	Stdio      *transport.StdioServer
	TCP        *transport.TCPServer
	Ops        *server.Server

	snapshotDir string
	grace       time.Duration
}

// WireDaemon creates all subsystems and wires them together.
func WireDaemon(cfg *config.Config) (*Daemon, error) {
	// 1. Memory over the configured store backend.
	mem, err := memory.New(memory.Config{
		Store:      &store.Config{Backend: cfg.Storage.Backend},
		EventLimit: cfg.Events.Limit,
	})
	if err != nil {
		return nil, engramerr.Errorf(engramerr.CodeCLISetupFailure, "creating memory: %w", err)
	}

	// 2. Bulk load. A corrupt or unreadable file refuses startup rather
	// than serving partial data.
	if cfg.Data.Entities != "" {
		if _, err := mem.LoadEntities(cfg.Data.Entities); err != nil {
			return nil, engramerr.Errorf(engramerr.CodeCLISetupFailure, "loading entities: %w", err)
		}
	}
	if cfg.Data.Events != "" {
		if _, err := mem.LoadEvents(cfg.Data.Events); err != nil {
			return nil, engramerr.Errorf(engramerr.CodeCLISetupFailure, "loading events: %w", err)
		}
	}

	// 3. Telemetry.
	tel, err := telemetry.New(telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "engram",
		ServiceVersion: version,
	})
	if err != nil {
		return nil, engramerr.Errorf(engramerr.CodeCLISetupFailure, "setting up telemetry: %w", err)
	}

	// 4. Drain gate, probe, dispatcher.
	gate := transport.NewGate()
	probe := health.NewProbe()

	dispatcher, err := rpc.NewDispatcher(rpc.Config{
		Memory:   mem,
		Info:     rpc.ServerInfo{Name: "engram", Version: version},
		Draining: gate.Draining,
		Recorder: tel.Recorder,
	})
	if err != nil {
		_ = tel.Shutdown(context.Background())
		return nil, engramerr.Errorf(engramerr.CodeCLISetupFailure, "creating dispatcher: %w", err)
	}

	d := &Daemon{
		Memory:      mem,
		Dispatcher:  dispatcher,
		Gate:        gate,
		Probe:       probe,
		Telemetry:   tel,
		snapshotDir: cfg.Snapshot.Dir,
		grace:       cfg.Shutdown.Grace,
	}

	// 5. Transports.
	if cfg.Transport.Stdio {
		stdio, err := transport.NewStdio(transport.StdioConfig{
			Dispatcher: dispatcher,
			Gate:       gate,
		})
		if err != nil {
			_ = tel.Shutdown(context.Background())
			return nil, engramerr.Errorf(engramerr.CodeCLISetupFailure, "creating stdio transport: %w", err)
		}
		d.Stdio = stdio
	}
	if cfg.Transport.Listen != "" {
		tcp, err := transport.NewTCP(transport.TCPConfig{
			Dispatcher: dispatcher,
			Gate:       gate,
			ListenAddr: cfg.Transport.Listen,
		})
		if err != nil {
			_ = tel.Shutdown(context.Background())
			return nil, engramerr.Errorf(engramerr.CodeCLISetupFailure, "creating tcp transport: %w", err)
		}
		d.TCP = tcp
	}

	// 6. Ops HTTP surface.
	if cfg.Ops.Port > 0 {
		ops, err := server.New(server.Config{
			ListenAddr:  fmt.Sprintf("127.0.0.1:%d", cfg.Ops.Port),
			CORSOrigins: cfg.Ops.CORSOrigins,
			Version:     version,
			Memory:      mem,
			Probe:       probe,
		})
		if err != nil {
			_ = tel.Shutdown(context.Background())
			return nil, engramerr.Errorf(engramerr.CodeCLISetupFailure, "creating ops server: %w", err)
		}
		d.Ops = ops
	}

	return d, nil
}

// Run starts every configured surface and blocks until a shutdown
// signal arrives, the context is cancelled, or a surface finishes.
// The stdio transport finishing on EOF counts as a shutdown request:
// the client that owned stdin is gone.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.Probe.SetReady()

	done := make(chan error, 3)
	var wg sync.WaitGroup
	launch := func(name string, run func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := run(ctx)
			if err != nil {
				slog.Error("surface stopped", "surface", name, "error", err)
			}
			done <- err
		}()
	}

	if d.Stdio != nil {
		launch("stdio", d.Stdio.Run)
	}
	if d.TCP != nil {
		launch("tcp", d.TCP.Start)
	}
	if d.Ops != nil {
		launch("ops", d.Ops.Start)
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case <-ctx.Done():
	case sig := <-sigCh:
		slog.Info("shutdown signal received", "signal", sig.String())
		go func() {
			sig := <-sigCh
			slog.Warn("second signal received, exiting immediately", "signal", sig.String())
			os.Exit(1)
		}()
	case err := <-done:
		runErr = err
	}

	if err := d.shutdown(); err != nil {
		runErr = errors.Join(runErr, err)
	}

	cancel()
	wg.Wait()

	close(done)
	for err := range done {
		if err != nil {
			runErr = errors.Join(runErr, err)
		}
	}
	return runErr
}

// shutdown flips the probe, drains in-flight requests, then snapshots
// store contents when configured. Transports keep answering drain
// refusals until Run cancels them afterwards.
func (d *Daemon) shutdown() error {
	d.Probe.BeginDrain()

	var errs []error
	if err := d.Gate.Drain(d.grace); err != nil {
		slog.Warn("drain incomplete", "error", err)
		errs = append(errs, err)
	}

	if d.snapshotDir != "" {
		if err := d.Memory.Snapshot(d.snapshotDir); err != nil {
			slog.Error("shutdown snapshot failed", "dir", d.snapshotDir, "error", err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Close releases resources that outlive Run.
func (d *Daemon) Close(ctx context.Context) error {
	if d.Telemetry == nil {
		return nil
	}
	return d.Telemetry.Shutdown(ctx)
}
