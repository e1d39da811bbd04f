// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package radix

import (
	"github.com/engram-dev/engram/internal/store"
)

func init() {
	store.RegisterBackend("radix", func() (store.Backend, error) {
		return New(), nil
	})
}
