// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package transport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/engram-dev/engram/internal/rpc"
	engramerr "github.com/engram-dev/engram/pkg/errors"
)

// TCPConfig carries the TCP transport's dependencies.
type TCPConfig struct {
	Dispatcher *rpc.Dispatcher
	Gate       *Gate
	ListenAddr string
}

// TCPServer serves the protocol to multiple clients, one goroutine per
// connection. Each connection is read sequentially, so responses on a
// connection come back in request order; connections do not block each
// other.
type TCPServer struct {
	dispatcher *rpc.Dispatcher
	gate       *Gate
	listenAddr string

	mu    sync.Mutex
	ln    net.Listener
	conns map[string]net.Conn
}

func NewTCP(cfg TCPConfig) (*TCPServer, error) {
	if cfg.Dispatcher == nil {
		return nil, engramerr.New(engramerr.CodeTransportListenFailure, "tcp transport requires a dispatcher")
	}
	if cfg.Gate == nil {
		return nil, engramerr.New(engramerr.CodeTransportListenFailure, "tcp transport requires a gate")
	}
	if cfg.ListenAddr == "" {
		return nil, engramerr.New(engramerr.CodeTransportListenFailure, "tcp transport requires a listen address")
	}

	return &TCPServer{
		dispatcher: cfg.Dispatcher,
		gate:       cfg.Gate,
		listenAddr: cfg.ListenAddr,
		conns:      make(map[string]net.Conn),
	}, nil
}

// Addr returns the bound listen address, or "" before Start has bound
// the listener. With a ":0" config this is how callers learn the port.
func (s *TCPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Start listens and serves until the context is cancelled or the
// listener fails, then closes the listener and any open connections.
func (s *TCPServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return engramerr.Wrapf(err, engramerr.CodeTransportListenFailure, "listening on %s", s.listenAddr)
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	slog.Info("tcp transport listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.acceptLoop(ctx, ln); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		_ = ln.Close()
		s.closeConns()
		return <-errCh
	case err := <-errCh:
		_ = ln.Close()
		s.closeConns()
		return err
	}
}

func (s *TCPServer) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return engramerr.Wrap(err, engramerr.CodeTransportListenFailure, "accepting connection")
		}

		id := uuid.NewString()
		s.track(id, conn)
		go s.serveConn(ctx, id, conn)
	}
}

func (s *TCPServer) serveConn(ctx context.Context, id string, conn net.Conn) {
	defer s.untrack(id)
	defer conn.Close()

	slog.Info("connection opened", "conn_id", id, "remote", conn.RemoteAddr().String())

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		release := s.gate.Enter()
		out, respond := s.dispatcher.Handle(ctx, line)
		if respond {
			if _, err := conn.Write(append(out, '\n')); err != nil {
				release()
				slog.Warn("dropping connection: write failed", "conn_id", id, "error", err)
				return
			}
		}
		release()
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		slog.Warn("connection read failed", "conn_id", id, "error", err)
		return
	}

	slog.Info("connection closed", "conn_id", id)
}

func (s *TCPServer) track(id string, conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[id] = conn
}

func (s *TCPServer) untrack(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, id)
}

func (s *TCPServer) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, conn := range s.conns {
		_ = conn.Close()
		delete(s.conns, id)
	}
}
