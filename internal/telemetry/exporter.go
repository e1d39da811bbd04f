// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package telemetry

import (
	"context"
	"log/slog"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// logExporter writes completed spans to the structured log. Export
// never fails: a span that cannot be logged is not worth breaking the
// trace pipeline over.
type logExporter struct {
	logger *slog.Logger
}

func newLogExporter(logger *slog.Logger) *logExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &logExporter{logger: logger}
}

func (e *logExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		sc := span.SpanContext()
		attrs := []any{
			"name", span.Name(),
			"trace_id", sc.TraceID().String(),
			"span_id", sc.SpanID().String(),
			"duration_ms", span.EndTime().Sub(span.StartTime()).Milliseconds(),
			"status", span.Status().Code.String(),
		}
		if desc := span.Status().Description; desc != "" {
			attrs = append(attrs, "status_description", desc)
		}
		for _, kv := range span.Attributes() {
			attrs = append(attrs, string(kv.Key), kv.Value.AsString())
		}
		e.logger.Debug("span completed", attrs...)
	}
	return nil
}

func (e *logExporter) Shutdown(context.Context) error {
	return nil
}
