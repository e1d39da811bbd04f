// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/engram-dev/engram/internal/memory"
	"github.com/engram-dev/engram/internal/telemetry"
	engramerr "github.com/engram-dev/engram/pkg/errors"
)

// Config carries the dispatcher's dependencies.
type Config struct {
	Memory   *memory.Memory
	Info     ServerInfo
	Draining func() bool         // nil means never draining
	Recorder *telemetry.Recorder // nil disables instrumentation
}

// Dispatcher turns raw request lines into response payloads. It is
// safe for concurrent use: per-connection ordering is the transport's
// job, the dispatcher itself holds no request state.
type Dispatcher struct {
	mem      *memory.Memory
	info     ServerInfo
	draining func() bool
	recorder *telemetry.Recorder

	initialized atomic.Bool
	received    atomic.Uint64
}

func NewDispatcher(cfg Config) (*Dispatcher, error) {
	if cfg.Memory == nil {
		return nil, engramerr.New(engramerr.CodeRPCInternalFailure, "dispatcher requires a memory facade")
	}

	draining := cfg.Draining
	if draining == nil {
		draining = func() bool { return false }
	}

	return &Dispatcher{
		mem:      cfg.Memory,
		info:     cfg.Info,
		draining: draining,
		recorder: cfg.Recorder,
	}, nil
}

// Initialized reports whether a client completed the handshake.
func (d *Dispatcher) Initialized() bool {
	return d.initialized.Load()
}

// Received returns the number of lines accepted for dispatch.
func (d *Dispatcher) Received() uint64 {
	return d.received.Load()
}

// Handle processes one request line. The returned flag reports whether
// a response should be written back; notifications produce none.
func (d *Dispatcher) Handle(ctx context.Context, line []byte) ([]byte, bool) {
	resp, ok := d.dispatch(ctx, line)
	if !ok {
		return nil, false
	}

	out, err := json.Marshal(resp)
	if err != nil {
		// Result payloads are plain structs, so this indicates a bug.
		d.mem.RecordFault()
		slog.Error("failed to encode response", "error", err)
		fallback := NewError(resp.ID, engramerr.Wrap(err, engramerr.CodeRPCInternalFailure, "encoding response"))
		out, _ = json.Marshal(fallback)
	}
	return out, true
}

func (d *Dispatcher) dispatch(ctx context.Context, line []byte) (*Response, bool) {
	d.received.Add(1)

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		d.mem.RecordFault()
		slog.Warn("rejecting unparseable request", "error", err)
		return NewError(nil, engramerr.Wrap(err, engramerr.CodeRPCParseError, "Parse error")), true
	}

	if d.draining() {
		if req.Notification() {
			return nil, false
		}
		return NewError(req.ID, engramerr.New(engramerr.CodeRPCShuttingDown, "server is shutting down")), true
	}

	if req.JSONRPC != Version || req.Method == "" {
		d.mem.RecordFault()
		return NewError(req.ID, engramerr.Errorf(engramerr.CodeRPCInvalidRequest,
			"invalid request envelope: jsonrpc=%q method=%q", req.JSONRPC, req.Method)), true
	}

	if req.Notification() {
		d.handleNotification(&req)
		return nil, false
	}

	ctx, end := d.recorder.StartRequest(ctx, req.Method)
	resp, tool := d.handleRequest(ctx, &req)

	kind := ""
	if resp.Error != nil {
		kind = resp.Error.Data.Kind
	}
	end(tool, kind)

	return resp, true
}

func (d *Dispatcher) handleNotification(req *Request) {
	switch req.Method {
	case MethodInitialized:
		d.initialized.Store(true)
		slog.Debug("client reported initialized")
	default:
		slog.Debug("ignoring unknown notification", "method", req.Method)
	}
}

func (d *Dispatcher) handleRequest(ctx context.Context, req *Request) (*Response, string) {
	slog.Debug("dispatching request", "method", req.Method)

	switch req.Method {
	case MethodInitialize:
		return d.handleInitialize(req), ""
	case MethodPing:
		return NewResult(req.ID, struct{}{}), ""
	case MethodToolsList:
		return NewResult(req.ID, ToolListResult{Tools: Catalog()}), ""
	case MethodToolsCall:
		return d.handleToolCall(ctx, req)
	default:
		d.mem.RecordFault()
		return NewError(req.ID, engramerr.Errorf(engramerr.CodeRPCUnknownOperation,
			"Method not found: %s", req.Method)), ""
	}
}

func (d *Dispatcher) handleInitialize(req *Request) *Response {
	var params struct {
		ProtocolVersion string     `json:"protocolVersion"`
		ClientInfo      ServerInfo `json:"clientInfo"`
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			d.mem.RecordFault()
			return NewError(req.ID, engramerr.Wrap(err, engramerr.CodeRPCInvalidArguments,
				"decoding initialize params"))
		}
	}

	slog.Debug("initialize handshake",
		"client", params.ClientInfo.Name,
		"client_version", params.ClientInfo.Version,
		"client_protocol", params.ProtocolVersion)

	return NewResult(req.ID, InitializeResult{
		ProtocolVersion: ProtocolVersion,
		ServerInfo:      d.info,
	})
}

func (d *Dispatcher) handleToolCall(ctx context.Context, req *Request) (*Response, string) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if len(req.Params) == 0 {
		d.mem.RecordFault()
		return NewError(req.ID, engramerr.New(engramerr.CodeRPCInvalidArguments,
			"tools/call requires params")), ""
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		d.mem.RecordFault()
		return NewError(req.ID, engramerr.Wrap(err, engramerr.CodeRPCInvalidArguments,
			"decoding tools/call params")), ""
	}
	if params.Name == "" {
		d.mem.RecordFault()
		return NewError(req.ID, missingArgument("name")), ""
	}

	var (
		res CallResult
		err error
	)
	switch params.Name {
	case ToolLookupEntity:
		res, err = d.callLookupEntity(ctx, params.Arguments)
	case ToolAddEntity:
		res, err = d.callAddEntity(ctx, params.Arguments)
	case ToolFindEvents:
		res, err = d.callFindEvents(ctx, params.Arguments)
	case ToolAddEvent:
		res, err = d.callAddEvent(ctx, params.Arguments)
	default:
		d.mem.RecordFault()
		return NewError(req.ID, engramerr.Errorf(engramerr.CodeRPCUnknownOperation,
			"unknown tool: %q", params.Name)), params.Name
	}
	if err != nil {
		return NewError(req.ID, err), params.Name
	}
	return NewResult(req.ID, res), params.Name
}

func (d *Dispatcher) callLookupEntity(_ context.Context, args json.RawMessage) (CallResult, error) {
	var p struct {
		Name string `json:"name"`
	}
	if err := d.decodeArgs(args, &p); err != nil {
		return CallResult{}, err
	}
	if p.Name == "" {
		d.mem.RecordFault()
		return CallResult{}, missingArgument("name")
	}

	entity, err := d.mem.LookupEntity(p.Name)
	if err != nil {
		if engramerr.IsNotFound(err) {
			return errorContent(fmt.Sprintf("Entity not found: %s", p.Name))
		}
		return CallResult{}, err
	}
	return textContent(entity)
}

func (d *Dispatcher) callAddEntity(_ context.Context, args json.RawMessage) (CallResult, error) {
	var p struct {
		Name    string   `json:"name"`
		Summary string   `json:"summary"`
		Born    string   `json:"born"`
		Tags    []string `json:"tags"`
	}
	if err := d.decodeArgs(args, &p); err != nil {
		return CallResult{}, err
	}
	if p.Name == "" {
		d.mem.RecordFault()
		return CallResult{}, missingArgument("name")
	}
	if p.Summary == "" {
		d.mem.RecordFault()
		return CallResult{}, missingArgument("summary")
	}

	replaced, err := d.mem.AddEntity(memory.Entity{
		Name:    p.Name,
		Summary: p.Summary,
		Born:    p.Born,
		Tags:    p.Tags,
	})
	if err != nil {
		return CallResult{}, err
	}

	return textContent(struct {
		Success  bool   `json:"success"`
		Message  string `json:"message"`
		Replaced bool   `json:"replaced"`
	}{Success: true, Message: "Entity added successfully", Replaced: replaced})
}

func (d *Dispatcher) callFindEvents(_ context.Context, args json.RawMessage) (CallResult, error) {
	var p struct {
		Prefix string `json:"prefix"`
		Limit  *int   `json:"limit"`
	}
	if err := d.decodeArgs(args, &p); err != nil {
		return CallResult{}, err
	}

	limit := 0
	if p.Limit != nil {
		if *p.Limit < 1 {
			d.mem.RecordFault()
			return CallResult{}, engramerr.Errorf(engramerr.CodeRPCInvalidArguments,
				"limit must be a positive integer, got %d", *p.Limit)
		}
		limit = *p.Limit
	}

	events, err := d.mem.FindEvents(p.Prefix, limit)
	if err != nil {
		return CallResult{}, err
	}
	return textContent(events)
}

func (d *Dispatcher) callAddEvent(_ context.Context, args json.RawMessage) (CallResult, error) {
	var p struct {
		ID          string `json:"id"`
		Timestamp   string `json:"timestamp"`
		Description string `json:"description"`
		Category    string `json:"category"`
	}
	if err := d.decodeArgs(args, &p); err != nil {
		return CallResult{}, err
	}
	if p.Description == "" {
		d.mem.RecordFault()
		return CallResult{}, missingArgument("description")
	}
	if p.Category == "" {
		d.mem.RecordFault()
		return CallResult{}, missingArgument("category")
	}

	stored, err := d.mem.AddEvent(memory.Event{
		ID:          p.ID,
		Timestamp:   p.Timestamp,
		Description: p.Description,
		Category:    p.Category,
	})
	if err != nil {
		return CallResult{}, err
	}

	return textContent(struct {
		Success bool         `json:"success"`
		Message string       `json:"message"`
		Event   memory.Event `json:"event"`
	}{Success: true, Message: "Event added successfully", Event: stored})
}

func (d *Dispatcher) decodeArgs(args json.RawMessage, into any) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, into); err != nil {
		d.mem.RecordFault()
		return engramerr.Wrap(err, engramerr.CodeRPCInvalidArguments, "decoding tool arguments")
	}
	return nil
}

func missingArgument(name string) error {
	return engramerr.Errorf(engramerr.CodeRPCInvalidArguments, "missing required argument: %s", name)
}
