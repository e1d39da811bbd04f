// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package store

import "errors"

// Sentinel errors for store operations.
// These errors can be checked using errors.Is() for classification.
var (
	// ErrEmptyKey indicates a put/get/delete was attempted with an
	// empty string key. Rejected at the typed-store boundary; backends
	// never see empty keys.
	ErrEmptyKey = errors.New("empty key")

	// ErrInvalidLimit indicates a prefix scan was requested with a
	// non-positive limit.
	ErrInvalidLimit = errors.New("invalid scan limit")

	// ErrNotFound indicates the requested record does not exist. The
	// store itself reports absence through its ok return; this sentinel
	// is for callers that need a lookup miss as an error value.
	ErrNotFound = errors.New("not found")
)
