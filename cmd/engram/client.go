// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package main

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	engramerr "github.com/engram-dev/engram/pkg/errors"
)

// defaultHTTPClient is the package-level HTTP client used by commands
// that talk to a running daemon. Overridden in tests via httptest.
var defaultHTTPClient = &http.Client{
	Timeout: 5 * time.Second,
}

// opsClient provides HTTP access to a running daemon's ops surface.
type opsClient struct {
	baseURL string
	http    *http.Client
}

// newOpsClient creates a client targeting the given host:port address.
func newOpsClient(addr string) *opsClient {
	return &opsClient{
		baseURL: "http://" + addr,
		http:    defaultHTTPClient,
	}
}

// getJSON performs a GET request and decodes the JSON response into dest.
func (c *opsClient) getJSON(path string, dest any) error {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		if isDialError(err) {
			return engramerr.Errorf(engramerr.CodeCLIDaemonNotRunning,
				"daemon is not running (connection refused): %w", err)
		}
		return engramerr.Errorf(engramerr.CodeCLIRequestFailure, "request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return engramerr.Errorf(engramerr.CodeCLIRequestFailure,
			"daemon returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return engramerr.Errorf(engramerr.CodeCLIResponseInvalid, "invalid response: %w", err)
	}
	return nil
}

// isDialError returns true if err is a net dial error (connection refused, etc.).
func isDialError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}
