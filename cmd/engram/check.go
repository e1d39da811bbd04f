// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	engramerr "github.com/engram-dev/engram/pkg/errors"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Probe a running daemon's liveness endpoint",
		Long:  "Exits 0 when the daemon answers the liveness probe and 1 otherwise. Intended for container healthchecks.",
		RunE:  runCheck,
	}

	cmd.Flags().String("address", "127.0.0.1:3000", "ops address to probe")

	return cmd
}

func runCheck(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("address")

	client := newOpsClient(addr)
	var body struct {
		Status string `json:"status"`
	}
	if err := client.getJSON("/health/live", &body); err != nil {
		return err
	}
	if body.Status != "alive" {
		return engramerr.Errorf(engramerr.CodeCLIResponseInvalid,
			"unexpected liveness status %q from %s", body.Status, addr)
	}

	_, err := fmt.Fprintf(cmd.OutOrStdout(), "engram at %s: %s\n", addr, body.Status)
	return err
}
