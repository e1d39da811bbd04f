// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package server

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/engram-dev/engram/internal/memory"
	"github.com/engram-dev/engram/pkg/health"
)

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-live",
		Method:      http.MethodGet,
		Path:        "/health/live",
		Summary:     "Liveness probe",
		Tags:        []string{"health"},
	}, s.handleLive)

	huma.Register(s.api, huma.Operation{
		OperationID: "health-ready",
		Method:      http.MethodGet,
		Path:        "/health/ready",
		Summary:     "Readiness probe",
		Description: "Reports 503 while the daemon is starting or draining.",
		Tags:        []string{"health"},
	}, s.handleReady)

	huma.Register(s.api, huma.Operation{
		OperationID: "metrics",
		Method:      http.MethodGet,
		Path:        "/metrics",
		Summary:     "Store counters",
		Tags:        []string{"metrics"},
	}, s.handleMetrics)
}

// --- Request/Response types for huma ---

// LiveBody is the JSON body of the liveness endpoint response.
type LiveBody struct {
	Status string `json:"status" example:"alive" doc:"Process liveness"`
}

type liveOutput struct {
	Body LiveBody
}

// ReadyBody is the JSON body of the readiness endpoint response.
type ReadyBody struct {
	Status    string       `json:"status" example:"ready" doc:"Serving phase: ready, degraded, starting, or draining"`
	Stats     memory.Stats `json:"stats" doc:"Live store counters"`
	Timestamp string       `json:"timestamp" doc:"Probe evaluation time in RFC 3339"`
}

type readyOutput struct {
	Status int
	Body   ReadyBody
}

type metricsOutput struct {
	Body memory.Stats
}

// --- Handlers ---

func (s *Server) handleLive(_ context.Context, _ *struct{}) (*liveOutput, error) {
	return &liveOutput{Body: LiveBody{Status: "alive"}}, nil
}

func (s *Server) handleReady(_ context.Context, _ *struct{}) (*readyOutput, error) {
	stats := s.mem.Stats()
	state := s.probe.StateFor(stats.EntityCount, stats.EventCount)

	out := &readyOutput{Status: http.StatusOK}
	if state == health.StateStarting || state == health.StateDraining {
		out.Status = http.StatusServiceUnavailable
	}
	out.Body = ReadyBody{
		Status:    string(state),
		Stats:     stats,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	return out, nil
}

func (s *Server) handleMetrics(_ context.Context, _ *struct{}) (*metricsOutput, error) {
	return &metricsOutput{Body: s.mem.Stats()}, nil
}
