// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Engram Contributors

package memory

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	engramerr "github.com/engram-dev/engram/pkg/errors"
)

// LoadEntities bulk-loads entity records from a JSON or YAML file,
// chosen by extension. Any malformed record aborts the load: startup
// data is either fully trusted or rejected, never partially applied.
// Returns the number of records stored.
func (m *Memory) LoadEntities(path string) (int, error) {
	var records []Entity
	if err := loadRecords(path, &records); err != nil {
		return 0, err
	}

	for i, e := range records {
		if e.Name == "" {
			return 0, engramerr.Errorf(engramerr.CodeLoadRecordCorrupt,
				"entity record %d in %s has no name", i, path)
		}
	}
	for _, e := range records {
		if _, err := m.AddEntity(e); err != nil {
			return 0, err
		}
	}

	slog.Info("loaded entities", "path", path, "count", len(records))
	return len(records), nil
}

// LoadEvents bulk-loads event records. Unlike AddEvent, loaded records
// must carry explicit IDs: derivation depends on the clock, and replay
// from a file must be deterministic.
func (m *Memory) LoadEvents(path string) (int, error) {
	var records []Event
	if err := loadRecords(path, &records); err != nil {
		return 0, err
	}

	for i, ev := range records {
		if ev.ID == "" {
			return 0, engramerr.Errorf(engramerr.CodeLoadRecordCorrupt,
				"event record %d in %s has no id", i, path)
		}
	}
	for _, ev := range records {
		if _, err := m.events.Put(ev.ID, ev); err != nil {
			return 0, err
		}
	}

	slog.Info("loaded events", "path", path, "count", len(records))
	return len(records), nil
}

func loadRecords(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return engramerr.Wrap(err, engramerr.CodeLoadFileReadFailure,
			"reading data file", engramerr.FieldPath(path))
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, out)
	default:
		err = json.Unmarshal(data, out)
	}
	if err != nil {
		return engramerr.Wrap(err, engramerr.CodeLoadFileCorrupt,
			"parsing data file", engramerr.FieldPath(path))
	}
	return nil
}
