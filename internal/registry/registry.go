// Package registry loads and saves the discovered node entries that seed a
// harvest run.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/scoretree/internal/hupu"
	"github.com/fortuna/scoretree/internal/logging"
)

// DefaultPath is the side store written by discovery.
const DefaultPath = "nba_root_ids.json"

// NodeLister is satisfied by the Postgres node repository.
type NodeLister interface {
	GetAll(ctx context.Context) ([]hupu.NodeEntry, error)
}

// LoadFile reads the JSON array at path. A missing or malformed file logs a
// warning and yields no entries.
func LoadFile(path string, logger logrus.FieldLogger) []hupu.NodeEntry {
	log := logging.Component(logger, "registry").WithField("path", path)

	content, err := os.ReadFile(path)
	if err != nil {
		log.WithError(err).Warn("node registry unavailable, continuing with no entries")
		return []hupu.NodeEntry{}
	}

	var entries []hupu.NodeEntry
	if err := json.Unmarshal(content, &entries); err != nil {
		log.WithError(err).Warn("node registry malformed, continuing with no entries")
		return []hupu.NodeEntry{}
	}
	if entries == nil {
		entries = []hupu.NodeEntry{}
	}

	log.WithField(logging.FieldCount, len(entries)).Info("loaded node registry")
	return entries
}

// SaveFile writes entries as an indented JSON array readable by LoadFile.
func SaveFile(path string, entries []hupu.NodeEntry) error {
	if entries == nil {
		entries = []hupu.NodeEntry{}
	}

	content, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode node registry: %w", err)
	}
	if err := os.WriteFile(path, append(content, '\n'), 0o644); err != nil {
		return fmt.Errorf("write node registry %s: %w", path, err)
	}
	return nil
}

// LoadRepository reads entries persisted by a previous discovery run, with
// the same never-fatal contract as LoadFile.
func LoadRepository(ctx context.Context, repo NodeLister, logger logrus.FieldLogger) []hupu.NodeEntry {
	log := logging.Component(logger, "registry")

	entries, err := repo.GetAll(ctx)
	if err != nil {
		log.WithError(err).Warn("node repository unavailable, continuing with no entries")
		return []hupu.NodeEntry{}
	}
	if entries == nil {
		entries = []hupu.NodeEntry{}
	}

	log.WithField(logging.FieldCount, len(entries)).Info("loaded node entries from database")
	return entries
}
