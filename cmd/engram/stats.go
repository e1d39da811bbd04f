// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/engram-dev/engram/internal/memory"
	engramerr "github.com/engram-dev/engram/pkg/errors"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show a running daemon's store counters",
		Long:  "Fetch the running daemon's metrics endpoint and display store and request counters.",
		RunE:  runStats,
	}

	cmd.Flags().String("address", "127.0.0.1:3000", "ops address to query")

	return cmd
}

func runStats(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("address")
	out := cmd.OutOrStdout()

	client := newOpsClient(addr)
	var stats memory.Stats
	if err := client.getJSON("/metrics", &stats); err != nil {
		if engramerr.HasCode(err, engramerr.CodeCLIDaemonNotRunning) {
			_, _ = fmt.Fprintf(out, "Daemon at %s is not running (connection refused)\n", addr)
			return nil
		}
		_, _ = fmt.Fprintf(out, "Daemon at %s: %s\n", addr, err)
		return nil
	}

	_, _ = fmt.Fprintf(out, "Daemon at %s\n", addr)
	_, _ = fmt.Fprintf(out, "  entities: %d\n", stats.EntityCount)
	_, _ = fmt.Fprintf(out, "  events:   %d\n", stats.EventCount)
	_, _ = fmt.Fprintf(out, "  lookups:  %d\n", stats.LookupCount)
	_, _ = fmt.Fprintf(out, "  errors:   %d\n", stats.ErrorCount)
	_, _ = fmt.Fprintf(out, "  uptime:   %ds\n", stats.UptimeSeconds)
	return nil
}
