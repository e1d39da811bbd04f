// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

// Package server exposes the ops HTTP surface: liveness and readiness
// probes plus live store counters. It never speaks the memory protocol;
// that stays on the stdio/TCP transports.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/engram-dev/engram/internal/memory"
	engramerr "github.com/engram-dev/engram/pkg/errors"
	"github.com/engram-dev/engram/pkg/health"
)

// Config holds ops HTTP server configuration.
type Config struct {
	ListenAddr   string
	CORSOrigins  []string
	Version      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Memory *memory.Memory
	Probe  *health.Probe
}

// Server wraps a chi router with a huma API and the HTTP listener.
type Server struct {
	router chi.Router
	api    huma.API
	cfg    Config
	mem    *memory.Memory
	probe  *health.Probe
}

// New creates a Server with chi router, huma API, probe endpoints, and CORS.
func New(cfg Config) (*Server, error) {
	if cfg.ListenAddr == "" {
		return nil, engramerr.New(engramerr.CodeServerConfigInvalid, "listen address is required")
	}
	if cfg.Memory == nil {
		return nil, engramerr.New(engramerr.CodeServerConfigInvalid, "memory is required")
	}
	if cfg.Probe == nil {
		return nil, engramerr.New(engramerr.CodeServerConfigInvalid, "health probe is required")
	}
	for _, origin := range cfg.CORSOrigins {
		if origin == "*" {
			return nil, engramerr.New(engramerr.CodeServerConfigInvalid,
				"wildcard CORS origin is not allowed; list explicit origins")
		}
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 60 * time.Second
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware(cfg.CORSOrigins))

	// Huma API with OpenAPI spec
	humaConfig := huma.DefaultConfig("Engram Ops", cfg.Version)
	humaConfig.Info.Description = "Operational surface for the engram memory daemon"
	api := humachi.New(r, humaConfig)

	srv := &Server{
		router: r,
		api:    api,
		cfg:    cfg,
		mem:    cfg.Memory,
		probe:  cfg.Probe,
	}
	srv.registerRoutes()

	return srv, nil
}

// Handler returns the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// API returns the huma API for registering additional operations.
func (s *Server) API() huma.API {
	return s.api
}

// Start runs the HTTP server and blocks until the context is cancelled,
// then performs graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return engramerr.Wrapf(err, engramerr.CodeServerStartFailure,
			"listening on %s", s.cfg.ListenAddr)
	}

	slog.Info("ops server listening", "addr", ln.Addr().String())

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return engramerr.Wrap(err, engramerr.CodeServerShutdownFailure, "shutting down ops server")
	}

	return <-errCh
}

func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	// go-chi/cors treats an empty origin list as allow-all; an ops
	// surface with no configured origins should reject cross-origin
	// requests instead.
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
}
