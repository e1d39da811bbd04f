// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

// Package radix implements the store backend on an immutable radix
// tree. Every write produces a new tree root; readers operate on the
// root they loaded, so prefix scans observe one consistent version of
// the data without holding any lock across the traversal.
package radix

import (
	"sync"
	"sync/atomic"

	iradix "github.com/hashicorp/go-immutable-radix/v2"

	"github.com/engram-dev/engram/internal/store"
)

// Store is an in-memory ordered store with copy-on-write semantics.
// Writers serialize on mu; readers are lock-free.
type Store struct {
	mu   sync.Mutex
	root atomic.Pointer[iradix.Tree[any]]
}

var _ store.Backend = (*Store)(nil)

func New() *Store {
	s := &Store{}
	s.root.Store(iradix.New[any]())
	return s
}

func (s *Store) Put(key string, record any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, _, replaced := s.root.Load().Insert([]byte(key), record)
	s.root.Store(next)
	return replaced, nil
}

func (s *Store) Get(key string) (any, bool, error) {
	v, ok := s.root.Load().Get([]byte(key))
	if !ok {
		return nil, false, nil
	}
	return v, true, nil
}

func (s *Store) ScanPrefix(prefix string, limit int) ([]any, error) {
	it := s.root.Load().Root().Iterator()
	it.SeekPrefix([]byte(prefix))

	var out []any
	for _, v, ok := it.Next(); ok; _, v, ok = it.Next() {
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) Delete(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, _, existed := s.root.Load().Delete([]byte(key))
	s.root.Store(next)
	return existed, nil
}

func (s *Store) Len() int {
	return s.root.Load().Len()
}
