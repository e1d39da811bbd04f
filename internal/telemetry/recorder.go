// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Recorder instruments the request path: one span per request plus
// request, latency, and failure instruments. All methods are safe on a
// nil receiver so disabled telemetry needs no branching at call sites.
type Recorder struct {
	tracer   trace.Tracer
	requests metric.Int64Counter
	latency  metric.Float64Histogram
	failures metric.Int64Counter
}

func newRecorder(tracer trace.Tracer, meter metric.Meter) (*Recorder, error) {
	r := &Recorder{tracer: tracer}
	var err error

	r.requests, err = meter.Int64Counter(
		"rpc.requests",
		metric.WithDescription("Requests handled, including those answered with an error"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	r.latency, err = meter.Float64Histogram(
		"rpc.duration",
		metric.WithDescription("Request handling duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	r.failures, err = meter.Int64Counter(
		"rpc.failures",
		metric.WithDescription("Requests answered with an error envelope"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	return r, nil
}

// StartRequest opens a span for one request and returns the context
// carrying it plus a completion func. The completion func records the
// tool name when the method was a tool call and the error kind when
// the request failed; pass empty strings otherwise.
func (r *Recorder) StartRequest(ctx context.Context, method string) (context.Context, func(tool, errKind string)) {
	if r == nil {
		return ctx, func(string, string) {}
	}

	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "rpc."+method)

	return ctx, func(tool, errKind string) {
		elapsed := float64(time.Since(start)) / float64(time.Millisecond)

		attrs := []attribute.KeyValue{attribute.String("rpc.method", method)}
		if tool != "" {
			attrs = append(attrs, attribute.String("rpc.tool", tool))
		}
		span.SetAttributes(attrs...)

		opts := metric.WithAttributes(attrs...)
		r.requests.Add(ctx, 1, opts)
		r.latency.Record(ctx, elapsed, opts)

		if errKind != "" {
			span.SetStatus(codes.Error, errKind)
			r.failures.Add(ctx, 1, metric.WithAttributes(
				append(attrs, attribute.String("error.kind", errKind))...))
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}
