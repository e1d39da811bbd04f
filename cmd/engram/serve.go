// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/engram-dev/engram/internal/config"
	engramerr "github.com/engram-dev/engram/pkg/errors"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the engram daemon",
		Long:  "Load configuration, open the stores, and serve memory requests until interrupted or stdin closes.",
		RunE:  runServe,
	}

	cmd.Flags().String("listen", "", "additionally serve TCP on this address (host:port)")
	cmd.Flags().Bool("no-stdio", false, "disable the stdio transport")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfgPath, err := resolveConfigPath(cfgPath)
	if err != nil {
		return err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	// Flag overrides, re-validated because they bypass Load.
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Transport.Listen = listen
	}
	if noStdio, _ := cmd.Flags().GetBool("no-stdio"); noStdio {
		cfg.Transport.Stdio = false
	}
	if level, _ := cmd.Root().PersistentFlags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return engramerr.Errorf(engramerr.CodeConfigValidateInvalidValue,
			"validating config: %w", errors.Join(errs...))
	}

	if err := setupLogging(cfg.Log.Level); err != nil {
		return err
	}

	daemon, err := WireDaemon(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := daemon.Close(context.Background()); err != nil {
			slog.Warn("daemon close", "error", err)
		}
	}()

	return daemon.Run(cmd.Context())
}

// resolveConfigPath falls back to the default config location when no
// path was given and a file exists there. An empty return means run on
// defaults and environment only.
func resolveConfigPath(flagPath string) (string, error) {
	if flagPath != "" {
		return flagPath, nil
	}

	defaultPath, err := config.DefaultConfigPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(defaultPath); err == nil {
		return defaultPath, nil
	}
	return "", nil
}
