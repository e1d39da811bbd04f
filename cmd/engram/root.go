// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	engramerr "github.com/engram-dev/engram/pkg/errors"
)

// NewRootCmd creates the root engram command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "engram",
		Short:         "Engram, an in-process memory daemon",
		Long:          "Engram is a prefix-searchable key-value memory store serving entity and event records over stdio or TCP, with an HTTP ops surface for probes and counters.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().String("log-level", "", "override the configured log level (debug, info, warn, error)")

	root.AddCommand(
		newInitCmd(),
		newServeCmd(),
		newCheckCmd(),
		newStatsCmd(),
		newVersionCmd(),
	)

	return root
}

// setupLogging installs the process-wide slog handler. Logs go to
// stderr because stdout belongs to the stdio transport.
func setupLogging(level string) error {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return engramerr.Errorf(engramerr.CodeCLISetupFailure,
			"log level must be one of [debug, info, warn, error], got %q", level)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	})))
	return nil
}
