// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

// Package rpc implements the line-oriented JSON-RPC 2.0 surface: the
// protocol handshake, the tool catalog, and the dispatcher that maps
// requests onto the memory facade. Transports hand it raw lines and
// write back whatever it returns; it holds no connection state.
package rpc

import (
	"encoding/json"

	engramerr "github.com/engram-dev/engram/pkg/errors"
)

// Version is the JSON-RPC version tag required on every request.
const Version = "2.0"

// ProtocolVersion is the protocol revision reported by initialize.
const ProtocolVersion = "2025-06-18"

// Method names accepted by the dispatcher.
const (
	MethodInitialize  = "initialize"
	MethodInitialized = "notifications/initialized"
	MethodPing        = "ping"
	MethodToolsList   = "tools/list"
	MethodToolsCall   = "tools/call"
)

// Request is one JSON-RPC request or notification. The ID is kept raw
// so responses echo it byte for byte, whatever JSON type the client
// chose.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Notification reports whether the request carries no ID and therefore
// must not be answered.
func (r *Request) Notification() bool {
	return len(r.ID) == 0
}

// Response is one JSON-RPC response. A nil ID marshals as null, which
// is what the protocol requires when the request ID could not be
// recovered.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

type ErrorObject struct {
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Data    *ErrorData `json:"data,omitempty"`
}

// ErrorData carries the stable failure classification alongside the
// numeric code, so clients can branch without parsing messages.
type ErrorData struct {
	Kind string `json:"kind"`
}

// NewResult builds a success response echoing the request ID.
func NewResult(id json.RawMessage, result any) *Response {
	return &Response{JSONRPC: Version, ID: id, Result: result}
}

// NewError builds an error response from a classified error.
func NewError(id json.RawMessage, err error) *Response {
	return &Response{
		JSONRPC: Version,
		ID:      id,
		Error: &ErrorObject{
			Code:    engramerr.JSONRPCCode(err),
			Message: err.Error(),
			Data:    &ErrorData{Kind: engramerr.KindOf(err)},
		},
	}
}

// ContentItem is one element of a tools/call result payload.
type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallResult is the tools/call result envelope: the tool outcome
// serialized to JSON and wrapped as text content. IsError marks
// in-domain failures such as a lookup miss, which are results rather
// than protocol errors.
type CallResult struct {
	Content []ContentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

func textContent(v any) (CallResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return CallResult{}, engramerr.Wrap(err, engramerr.CodeRPCInternalFailure, "encoding tool result")
	}
	return CallResult{Content: []ContentItem{{Type: "text", Text: string(data)}}}, nil
}

func errorContent(msg string) (CallResult, error) {
	res, err := textContent(struct {
		Error string `json:"error"`
	}{Error: msg})
	if err != nil {
		return CallResult{}, err
	}
	res.IsError = true
	return res, nil
}
