// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package transport

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/engram-dev/engram/internal/rpc"
	engramerr "github.com/engram-dev/engram/pkg/errors"
)

// maxLineBytes caps a single protocol line. Anything larger aborts the
// connection rather than buffering without bound.
const maxLineBytes = 1 << 20

// StdioConfig carries the stdio transport's dependencies. In and Out
// default to the process streams and are injectable for tests.
type StdioConfig struct {
	Dispatcher *rpc.Dispatcher
	Gate       *Gate
	In         io.Reader
	Out        io.Writer
}

// StdioServer serves the protocol over a single reader/writer pair,
// one JSON-RPC message per line. Requests are handled in arrival
// order, so a client that pipelines sees responses in request order.
type StdioServer struct {
	dispatcher *rpc.Dispatcher
	gate       *Gate
	in         io.Reader

	wmu sync.Mutex
	out io.Writer
}

func NewStdio(cfg StdioConfig) (*StdioServer, error) {
	if cfg.Dispatcher == nil {
		return nil, engramerr.New(engramerr.CodeTransportListenFailure, "stdio transport requires a dispatcher")
	}
	if cfg.Gate == nil {
		return nil, engramerr.New(engramerr.CodeTransportListenFailure, "stdio transport requires a gate")
	}

	in := cfg.In
	if in == nil {
		in = os.Stdin
	}
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}

	return &StdioServer{
		dispatcher: cfg.Dispatcher,
		gate:       cfg.Gate,
		in:         in,
		out:        out,
	}, nil
}

// Run reads lines until EOF, a read failure, or a write failure. EOF
// is the client's clean goodbye and returns nil; a broken pipe on the
// write side returns an error so the caller can begin shutdown.
func (s *StdioServer) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		if err := s.serveLine(ctx, line); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return engramerr.Wrap(err, engramerr.CodeTransportReadFailure, "reading stdio input")
	}

	slog.Info("stdio input closed, transport stopping")
	return nil
}

func (s *StdioServer) serveLine(ctx context.Context, line []byte) error {
	release := s.gate.Enter()
	defer release()

	out, respond := s.dispatcher.Handle(ctx, line)
	if !respond {
		return nil
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()

	if _, err := s.out.Write(append(out, '\n')); err != nil {
		return engramerr.Wrap(err, engramerr.CodeTransportWriteFailure, "writing stdio response")
	}
	return nil
}
