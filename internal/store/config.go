// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package store

// Config controls which backend the store factory uses.
type Config struct {
	Backend string // "radix" is the only registered backend today.
}
