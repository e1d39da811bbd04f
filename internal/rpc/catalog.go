// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package rpc

import "encoding/json"

// ServerInfo identifies a protocol party in the initialize handshake.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Capabilities advertises what the server supports. Tools only.
type Capabilities struct {
	Tools ToolCapabilities `json:"tools"`
}

type ToolCapabilities struct{}

// InitializeResult is the initialize response payload.
type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    Capabilities `json:"capabilities"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
}

// Tool is one callable catalog entry as served by tools/list.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ToolListResult is the tools/list response payload.
type ToolListResult struct {
	Tools []Tool `json:"tools"`
}

// Tool names.
const (
	ToolLookupEntity = "lookupEntity"
	ToolAddEntity    = "addEntity"
	ToolFindEvents   = "findEvents"
	ToolAddEvent     = "addEvent"
)

// Catalog returns the tool list in its served order. Schemas are
// static; the slice is rebuilt per call so callers can't mutate the
// catalog.
func Catalog() []Tool {
	return []Tool{
		{
			Name:        ToolLookupEntity,
			Description: "Retrieve stored information about an entity by exact name.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"name": {
						"type": "string",
						"description": "The exact name of the entity to look up"
					}
				},
				"required": ["name"]
			}`),
		},
		{
			Name:        ToolAddEntity,
			Description: "Add or update an entity in the memory store.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"name": {
						"type": "string",
						"description": "The name of the entity"
					},
					"summary": {
						"type": "string",
						"description": "A summary of the entity"
					},
					"born": {
						"type": "string",
						"description": "Birth year (optional)"
					},
					"tags": {
						"type": "array",
						"items": {
							"type": "string"
						},
						"description": "Tags associated with the entity"
					}
				},
				"required": ["name", "summary"]
			}`),
		},
		{
			Name:        ToolFindEvents,
			Description: "Return all events whose key starts with the given prefix.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"prefix": {
						"type": "string",
						"description": "The prefix to search for (optional, empty matches all events)"
					},
					"limit": {
						"type": "integer",
						"description": "Maximum number of events to return (optional, defaults to the configured cap)"
					}
				},
				"required": []
			}`),
		},
		{
			Name:        ToolAddEvent,
			Description: "Add a new event to the memory store.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"id": {
						"type": "string",
						"description": "Event ID (optional, will be generated if not provided)"
					},
					"timestamp": {
						"type": "string",
						"description": "Event timestamp (optional, defaults to now)"
					},
					"description": {
						"type": "string",
						"description": "Event description"
					},
					"category": {
						"type": "string",
						"description": "Event category"
					}
				},
				"required": ["description", "category"]
			}`),
		},
	}
}
