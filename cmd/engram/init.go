// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/engram-dev/engram/internal/config"
	engramerr "github.com/engram-dev/engram/pkg/errors"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		Long:  "Write a commented default config to ~/.config/engram/engram.yaml unless one already exists.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	cfgPath, err := config.DefaultConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); err == nil {
		_, err = fmt.Fprintf(out, "Config already exists at %s\n", cfgPath)
		return err
	}

	if path := config.BootstrapConfig(); path != "" {
		_, err = fmt.Fprintf(out, "Wrote default config to %s\n", path)
		return err
	}

	return engramerr.Errorf(engramerr.CodeCLISetupFailure, "could not write default config to %s", cfgPath)
}
