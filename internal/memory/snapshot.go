// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package memory

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	engramerr "github.com/engram-dev/engram/pkg/errors"
)

// Snapshot writes the full contents of both stores to
// <dir>/entities.json and <dir>/events.json. The files round-trip
// through LoadEntities and LoadEvents, so a snapshot taken at shutdown
// seeds the next start.
func (m *Memory) Snapshot(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return engramerr.Wrap(err, engramerr.CodeSnapshotWriteFailure,
			"creating snapshot directory", engramerr.FieldPath(dir))
	}

	entities, err := scanAll(m.entities.Len(), func(limit int) ([]Entity, error) {
		return m.entities.ScanPrefix("", limit)
	})
	if err != nil {
		return err
	}
	if err := writeSnapshotFile(filepath.Join(dir, "entities.json"), entities); err != nil {
		return err
	}

	events, err := scanAll(m.events.Len(), func(limit int) ([]Event, error) {
		return m.events.ScanPrefix("", limit)
	})
	if err != nil {
		return err
	}
	if err := writeSnapshotFile(filepath.Join(dir, "events.json"), events); err != nil {
		return err
	}

	slog.Info("snapshot written", "dir", dir, "entities", len(entities), "events", len(events))
	return nil
}

func scanAll[R any](n int, scan func(limit int) ([]R, error)) ([]R, error) {
	if n == 0 {
		return []R{}, nil
	}
	return scan(n)
}

func writeSnapshotFile(path string, records any) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return engramerr.Wrap(err, engramerr.CodeSnapshotWriteFailure,
			"encoding snapshot", engramerr.FieldPath(path))
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return engramerr.Wrap(err, engramerr.CodeSnapshotWriteFailure,
			"writing snapshot", engramerr.FieldPath(path))
	}
	return nil
}
