// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package transport_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engram-dev/engram/internal/transport"
)

func startTCP(t *testing.T, gate *transport.Gate) (*transport.TCPServer, func()) {
	t.Helper()

	srv, err := transport.NewTCP(transport.TCPConfig{
		Dispatcher: newDispatcher(t, gate),
		Gate:       gate,
		ListenAddr: "127.0.0.1:0",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	require.Eventually(t, func() bool { return srv.Addr() != "" },
		2*time.Second, 10*time.Millisecond, "server never bound")

	stop := func() {
		cancel()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("server did not stop")
		}
	}
	return srv, stop
}

func dialAndSend(t *testing.T, addr string, lines ...string) []map[string]any {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	for _, line := range lines {
		_, err = fmt.Fprintln(conn, line)
		require.NoError(t, err)
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	reader := bufio.NewReader(conn)

	responses := make([]map[string]any, 0, len(lines))
	for range lines {
		raw, err := reader.ReadString('\n')
		require.NoError(t, err)

		var resp map[string]any
		require.NoError(t, json.Unmarshal([]byte(raw), &resp))
		responses = append(responses, resp)
	}
	return responses
}

func TestTCP_ServesRequests(t *testing.T) {
	gate := transport.NewGate()
	srv, stop := startTCP(t, gate)
	defer stop()

	responses := dialAndSend(t, srv.Addr(), `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	require.Len(t, responses, 1)
	assert.Equal(t, float64(1), responses[0]["id"])
	assert.Equal(t, map[string]any{}, responses[0]["result"])
}

func TestTCP_ResponsesKeepRequestOrder(t *testing.T) {
	gate := transport.NewGate()
	srv, stop := startTCP(t, gate)
	defer stop()

	responses := dialAndSend(t, srv.Addr(),
		`{"jsonrpc":"2.0","id":1,"method":"ping"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"ping"}`,
	)
	require.Len(t, responses, 3)
	for i, resp := range responses {
		assert.Equal(t, float64(i+1), resp["id"], "pipelined responses must come back in request order")
	}
}

func TestTCP_MultipleClients(t *testing.T) {
	gate := transport.NewGate()
	srv, stop := startTCP(t, gate)
	defer stop()

	for i := 0; i < 3; i++ {
		responses := dialAndSend(t, srv.Addr(), fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"method":"ping"}`, i+10))
		require.Len(t, responses, 1)
		assert.Equal(t, float64(i+10), responses[0]["id"])
	}
}

func TestTCP_DrainedServerRefusesRequests(t *testing.T) {
	gate := transport.NewGate()
	srv, stop := startTCP(t, gate)
	defer stop()

	require.NoError(t, gate.Drain(time.Second))

	responses := dialAndSend(t, srv.Addr(), `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	require.Len(t, responses, 1)

	errObj := responses[0]["error"].(map[string]any)
	assert.Equal(t, float64(-32001), errObj["code"])
}

func TestNewTCP_Validation(t *testing.T) {
	gate := transport.NewGate()
	dispatcher := newDispatcher(t, gate)

	tests := []struct {
		name string
		cfg  transport.TCPConfig
	}{
		{"missing dispatcher", transport.TCPConfig{Gate: gate, ListenAddr: ":0"}},
		{"missing gate", transport.TCPConfig{Dispatcher: dispatcher, ListenAddr: ":0"}},
		{"missing listen address", transport.TCPConfig{Dispatcher: dispatcher, Gate: gate}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := transport.NewTCP(tt.cfg)
			assert.Error(t, err)
		})
	}
}
