// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package telemetry_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engram-dev/engram/internal/telemetry"
)

func TestNew_Disabled(t *testing.T) {
	tel, err := telemetry.New(telemetry.Config{Enabled: false})
	require.NoError(t, err)
	require.Nil(t, tel.Recorder)

	// A nil recorder must still hand back a usable completion func.
	ctx, end := tel.Recorder.StartRequest(context.Background(), "tools/call")
	assert.NotNil(t, ctx)
	end("lookupEntity", "")

	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNew_EnabledExportsSpansToLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tel, err := telemetry.New(telemetry.Config{
		Enabled:        true,
		ServiceName:    "engram",
		ServiceVersion: "test",
		Logger:         logger,
	})
	require.NoError(t, err)
	require.NotNil(t, tel.Recorder)
	defer func() { assert.NoError(t, tel.Shutdown(context.Background())) }()

	_, end := tel.Recorder.StartRequest(context.Background(), "tools/call")
	end("lookupEntity", "")

	out := buf.String()
	assert.Contains(t, out, "span completed")
	assert.Contains(t, out, "rpc.tools/call")
	assert.Contains(t, out, "lookupEntity")
	assert.Contains(t, out, "status=Ok")
}

func TestStartRequest_ErrorKindMarksSpan(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tel, err := telemetry.New(telemetry.Config{
		Enabled:     true,
		ServiceName: "engram",
		Logger:      logger,
	})
	require.NoError(t, err)
	defer func() { assert.NoError(t, tel.Shutdown(context.Background())) }()

	_, end := tel.Recorder.StartRequest(context.Background(), "tools/call")
	end("lookupEntity", "not_found")

	out := buf.String()
	assert.Contains(t, out, "status=Error")
	assert.Contains(t, out, "not_found")
}
