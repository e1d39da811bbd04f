// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

// Package memory holds the two domain record kinds and the facade that
// owns their stores. Records are immutable once stored: the facade
// copies on the way in and on the way out, so no caller ever holds an
// alias into store state.
package memory

import (
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/engram-dev/engram/internal/store"
	engramerr "github.com/engram-dev/engram/pkg/errors"
)

// --- Record types ---

// Entity is a named person/organization record keyed by its name.
type Entity struct {
	Name    string   `json:"name" yaml:"name"`
	Summary string   `json:"summary" yaml:"summary"`
	Born    string   `json:"born,omitempty" yaml:"born,omitempty"`
	Tags    []string `json:"tags" yaml:"tags"`
}

func (e Entity) clone() Entity {
	if e.Tags == nil {
		e.Tags = []string{}
	} else {
		e.Tags = slices.Clone(e.Tags)
	}
	return e
}

// Event is a timestamped occurrence record. Its ID doubles as the
// store key and is shaped "<YYYY-MM-DD>:<slug>", so byte order matches
// chronological order at day granularity and a date or date-prefix
// matches all events under it.
type Event struct {
	ID          string `json:"id" yaml:"id"`
	Timestamp   string `json:"timestamp" yaml:"timestamp"`
	Description string `json:"description" yaml:"description"`
	Category    string `json:"category" yaml:"category"`
}

// Stats is a point-in-time operational snapshot safe to serialize to
// JSON, exposed by the ops metrics endpoint.
type Stats struct {
	EntityCount   int       `json:"entity_count"`
	EventCount    int       `json:"event_count"`
	LookupCount   uint64    `json:"lookup_count"`
	ErrorCount    uint64    `json:"error_count"`
	LastAccess    time.Time `json:"last_access"`
	UptimeSeconds uint64    `json:"uptime_seconds"`
}

// --- Facade ---

// DefaultEventLimit bounds findEvents scans when the caller supplies
// no limit and configuration does not override it.
const DefaultEventLimit = 64

// Config carries the construction parameters for a Memory.
type Config struct {
	Store      *store.Config
	EventLimit int              // default and cap for event scans; 0 uses DefaultEventLimit
	Now        func() time.Time // test clock; nil uses time.Now
}

// Memory owns the entity and event stores plus the operational
// counters. The two stores lock independently, so entity and event
// writes never contend with each other.
type Memory struct {
	entities *store.Store[Entity]
	events   *store.Store[Event]

	eventLimit int
	now        func() time.Time

	started    time.Time
	lookups    atomic.Uint64
	faults     atomic.Uint64
	lastAccess atomic.Int64 // unix nanoseconds
}

func New(cfg Config) (*Memory, error) {
	entities, err := store.New[Entity](cfg.Store)
	if err != nil {
		return nil, err
	}
	events, err := store.New[Event](cfg.Store)
	if err != nil {
		return nil, err
	}

	limit := cfg.EventLimit
	if limit <= 0 {
		limit = DefaultEventLimit
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	m := &Memory{
		entities:   entities,
		events:     events,
		eventLimit: limit,
		now:        now,
		started:    now(),
	}
	m.lastAccess.Store(m.started.UnixNano())
	return m, nil
}

// LookupEntity returns the entity stored under name. A miss is
// reported as a not-found error, and counted as a fault like the rest
// of the lookup misses.
func (m *Memory) LookupEntity(name string) (Entity, error) {
	m.touch()
	m.lookups.Add(1)

	e, ok, err := m.entities.Get(name)
	if err != nil {
		m.faults.Add(1)
		return Entity{}, err
	}
	if !ok {
		m.faults.Add(1)
		return Entity{}, engramerr.Wrap(store.ErrNotFound, engramerr.CodeStoreRecordNotFound,
			"entity not found", engramerr.FieldKey(name))
	}
	return e.clone(), nil
}

// AddEntity inserts or replaces the entity under its name and reports
// whether a prior record existed. Last writer wins on conflict.
func (m *Memory) AddEntity(e Entity) (bool, error) {
	m.touch()

	replaced, err := m.entities.Put(e.Name, e.clone())
	if err != nil {
		m.faults.Add(1)
		return false, err
	}
	return replaced, nil
}

// FindEvents returns events whose ID starts with prefix, ascending. A
// non-positive limit selects the configured default; larger limits are
// clamped to it.
func (m *Memory) FindEvents(prefix string, limit int) ([]Event, error) {
	m.touch()
	m.lookups.Add(1)

	if limit <= 0 || limit > m.eventLimit {
		limit = m.eventLimit
	}

	events, err := m.events.ScanPrefix(prefix, limit)
	if err != nil {
		m.faults.Add(1)
		return nil, err
	}
	return events, nil
}

// AddEvent stores the event and returns it with its resolved ID and
// timestamp. An empty timestamp defaults to the current time; an empty
// ID derives as "<date-of-timestamp>:<slugged-category>". Derived IDs
// for same-day events of one category collide deliberately, replacing
// the earlier record; callers wanting distinct records supply IDs.
func (m *Memory) AddEvent(ev Event) (Event, error) {
	m.touch()

	if ev.Timestamp == "" {
		ev.Timestamp = m.now().UTC().Format(time.RFC3339)
	}
	if ev.ID == "" {
		ts, err := time.Parse(time.RFC3339, ev.Timestamp)
		if err != nil {
			m.faults.Add(1)
			return Event{}, engramerr.Errorf(engramerr.CodeRPCInvalidArguments,
				"timestamp %q is not RFC 3339: %w", ev.Timestamp, err)
		}
		ev.ID = ts.UTC().Format(time.DateOnly) + ":" + Slug(ev.Category)
	}

	if _, err := m.events.Put(ev.ID, ev); err != nil {
		m.faults.Add(1)
		return Event{}, err
	}
	return ev, nil
}

// DeleteEntity removes the named entity; part of the store contract
// kept reachable for operational tooling even though no catalog
// operation exposes it yet.
func (m *Memory) DeleteEntity(name string) (bool, error) {
	m.touch()
	return m.entities.Delete(name)
}

// DeleteEvent removes the event stored under id.
func (m *Memory) DeleteEvent(id string) (bool, error) {
	m.touch()
	return m.events.Delete(id)
}

func (m *Memory) EntityCount() int { return m.entities.Len() }
func (m *Memory) EventCount() int  { return m.events.Len() }
func (m *Memory) EventLimit() int  { return m.eventLimit }

// Stats assembles the operational snapshot for the ops surface.
func (m *Memory) Stats() Stats {
	return Stats{
		EntityCount:   m.entities.Len(),
		EventCount:    m.events.Len(),
		LookupCount:   m.lookups.Load(),
		ErrorCount:    m.faults.Load(),
		LastAccess:    time.Unix(0, m.lastAccess.Load()).UTC(),
		UptimeSeconds: uint64(m.now().Sub(m.started) / time.Second),
	}
}

// RecordFault bumps the error counter for failures detected outside
// the facade, such as dispatch-level invariant violations.
func (m *Memory) RecordFault() {
	m.faults.Add(1)
}

func (m *Memory) touch() {
	m.lastAccess.Store(m.now().UnixNano())
}

// Slug normalizes a category into the discriminator used in derived
// event IDs: lowercased, spaces to hyphens.
func Slug(category string) string {
	return strings.ToLower(strings.ReplaceAll(category, " ", "-"))
}
