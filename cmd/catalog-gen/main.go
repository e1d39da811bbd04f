// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/engram-dev/engram/internal/memory"
	"github.com/engram-dev/engram/internal/rpc"
	"github.com/engram-dev/engram/internal/server"
	"github.com/engram-dev/engram/internal/store"
	_ "github.com/engram-dev/engram/internal/store/radix"
	engramerr "github.com/engram-dev/engram/pkg/errors"
	"github.com/engram-dev/engram/pkg/health"
)

func main() {
	outDir := "api"
	if len(os.Args) > 1 {
		outDir = os.Args[1]
	}

	catalog, err := generateCatalog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	opsSpec, err := generateOpsSpec()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	for path, data := range map[string][]byte{
		filepath.Join(outDir, "catalog", "tools.json"): catalog,
		filepath.Join(outDir, "openapi", "ops.json"):   opsSpec,
	} {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "error creating output dir: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "error writing %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", path)
	}
}

// generateCatalog renders the tools/list payload exactly as the
// dispatcher serves it, so docs stay in lockstep with the wire.
func generateCatalog() ([]byte, error) {
	return json.MarshalIndent(rpc.ToolListResult{Tools: rpc.Catalog()}, "", "  ")
}

// generateOpsSpec creates an ops server with all routes registered and
// extracts the OpenAPI spec huma generates from the Go type annotations.
// Handlers are never invoked during spec generation.
func generateOpsSpec() ([]byte, error) {
	mem, err := memory.New(memory.Config{Store: &store.Config{Backend: "radix"}})
	if err != nil {
		return nil, engramerr.Errorf(engramerr.CodeCLISetupFailure, "creating memory: %w", err)
	}

	srv, err := server.New(server.Config{
		ListenAddr: "127.0.0.1:0",
		Memory:     mem,
		Probe:      health.NewProbe(),
	})
	if err != nil {
		return nil, engramerr.Errorf(engramerr.CodeCLISetupFailure, "creating server: %w", err)
	}

	return json.MarshalIndent(srv.API().OpenAPI(), "", "  ")
}
