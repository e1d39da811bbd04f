// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

// Package telemetry wires OpenTelemetry tracing and metrics for the
// request path. Spans export through the structured log; metric
// instruments record against an injected MeterProvider so an embedding
// process can bring its own pipeline. Disabled telemetry costs one nil
// check per request.
package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	engramerr "github.com/engram-dev/engram/pkg/errors"
)

const scopeName = "github.com/engram-dev/engram"

// Config carries telemetry construction parameters.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Logger         *slog.Logger         // nil uses slog.Default
	MeterProvider  metric.MeterProvider // nil uses a no-op provider
}

// Telemetry owns the tracer provider lifecycle. A disabled instance
// carries a nil Recorder, which every Recorder method tolerates.
type Telemetry struct {
	Recorder *Recorder

	tp *sdktrace.TracerProvider
}

func New(cfg Config) (*Telemetry, error) {
	if !cfg.Enabled {
		return &Telemetry{}, nil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
		),
	)
	if err != nil {
		logger.Warn("falling back to default telemetry resource", "error", err)
		res = resource.Default()
	}

	// SimpleSpanProcessor exports each span on completion. The log
	// exporter is cheap enough that batching buys nothing here.
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(newLogExporter(logger))),
		sdktrace.WithResource(res),
	)

	mp := cfg.MeterProvider
	if mp == nil {
		mp = noop.NewMeterProvider()
	}

	rec, err := newRecorder(tp.Tracer(scopeName), mp.Meter(scopeName))
	if err != nil {
		_ = tp.Shutdown(context.Background())
		return nil, engramerr.Wrap(err, engramerr.CodeTelemetrySetupFailure, "creating metric instruments")
	}

	return &Telemetry{Recorder: rec, tp: tp}, nil
}

// Shutdown flushes and stops the tracer provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t.tp == nil {
		return nil
	}
	if err := t.tp.Shutdown(ctx); err != nil {
		return engramerr.Wrap(err, engramerr.CodeTelemetryShutdownFailure, "stopping tracer provider")
	}
	return nil
}
