// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package store

import (
	engramerr "github.com/engram-dev/engram/pkg/errors"
)

// Backend is the untyped ordered key-value store a backend package
// provides. Keys sort byte-lexicographically. Backends may assume keys
// are non-empty; the typed Store enforces that at the call site.
type Backend interface {
	// Put inserts or replaces and reports whether a prior record existed.
	Put(key string, record any) (replaced bool, err error)

	// Get is an exact-match lookup with O(len(key)) expected cost.
	Get(key string) (record any, ok bool, err error)

	// ScanPrefix returns records whose key starts with prefix, in
	// ascending key order, truncated to limit entries. The result is a
	// single consistent snapshot even under concurrent writes.
	ScanPrefix(prefix string, limit int) ([]any, error)

	// Delete removes if present and reports whether it was.
	Delete(key string) (existed bool, err error)

	// Len is the current live entry count.
	Len() int
}

// Store is a typed view over a Backend. Each Store owns its Backend
// exclusively, so every record it retrieves is of type R; anything else
// is an internal fault, not a caller error.
type Store[R any] struct {
	backend Backend
}

// New creates a typed store on a fresh backend selected by cfg.
func New[R any](cfg *Config) (*Store[R], error) {
	b, err := NewBackend(cfg)
	if err != nil {
		return nil, err
	}
	return &Store[R]{backend: b}, nil
}

// Wrap builds a typed store over an existing backend instance. The
// caller must not share the backend with a differently typed store.
func Wrap[R any](b Backend) *Store[R] {
	return &Store[R]{backend: b}
}

func (s *Store[R]) Put(key string, record R) (bool, error) {
	if key == "" {
		return false, engramerr.Wrapf(ErrEmptyKey, engramerr.CodeStoreKeyEmpty, "put")
	}
	return s.backend.Put(key, record)
}

func (s *Store[R]) Get(key string) (R, bool, error) {
	var zero R
	if key == "" {
		return zero, false, engramerr.Wrapf(ErrEmptyKey, engramerr.CodeStoreKeyEmpty, "get")
	}

	v, ok, err := s.backend.Get(key)
	if err != nil || !ok {
		return zero, false, err
	}

	record, isR := v.(R)
	if !isR {
		return zero, false, engramerr.Errorf(engramerr.CodeStoreInternalFailure,
			"record under key %q has unexpected type %T", key, v)
	}
	return record, true, nil
}

func (s *Store[R]) ScanPrefix(prefix string, limit int) ([]R, error) {
	if limit < 1 {
		return nil, engramerr.Wrapf(ErrInvalidLimit, engramerr.CodeStoreLimitInvalid, "scan limit %d", limit)
	}

	raw, err := s.backend.ScanPrefix(prefix, limit)
	if err != nil {
		return nil, err
	}

	out := make([]R, 0, len(raw))
	for _, v := range raw {
		record, isR := v.(R)
		if !isR {
			return nil, engramerr.Errorf(engramerr.CodeStoreInternalFailure,
				"scan under prefix %q hit record of unexpected type %T", prefix, v)
		}
		out = append(out, record)
	}
	return out, nil
}

func (s *Store[R]) Delete(key string) (bool, error) {
	if key == "" {
		return false, engramerr.Wrapf(ErrEmptyKey, engramerr.CodeStoreKeyEmpty, "delete")
	}
	return s.backend.Delete(key)
}

func (s *Store[R]) Len() int {
	return s.backend.Len()
}
