// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package query

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/connectx-campus/connectx/lib/codec"
)

const snapshotVersion = 1

type snapshotFile struct {
	Version int                      `cbor:"version"`
	Entries map[string]snapshotEntry `cbor:"entries"`
}

type snapshotEntry struct {
	FetchedAt time.Time        `cbor:"fetched_at"`
	Value     codec.RawMessage `cbor:"value"`
}

// Save writes every decoded entry to path with mode 0600.
func (c *Cache) Save(path string) error {
	c.mu.Lock()
	snapshot := snapshotFile{Version: snapshotVersion, Entries: make(map[string]snapshotEntry, len(c.entries))}
	for key, entry := range c.entries {
		raw := entry.raw
		if raw == nil {
			encoded, err := codec.Marshal(entry.Value)
			if err != nil {
				c.mu.Unlock()
				return fmt.Errorf("query: encoding %q: %w", key, err)
			}
			raw = encoded
		}
		snapshot.Entries[key] = snapshotEntry{FetchedAt: codec.Stamp(entry.FetchedAt), Value: raw}
	}
	c.mu.Unlock()

	data, err := codec.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("query: encoding snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("query: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("query: writing snapshot: %w", err)
	}
	return nil
}

// Load restores entries from path. Restored entries are stale. A
// missing file is not an error.
func (c *Cache) Load(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("query: reading snapshot: %w", err)
	}
	var snapshot snapshotFile
	if err := codec.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("query: decoding snapshot: %w", err)
	}
	if snapshot.Version != snapshotVersion {
		c.logger.Info("ignoring snapshot from another version", "version", snapshot.Version)
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for key, restored := range snapshot.Entries {
		if _, live := c.entries[key]; live {
			continue
		}
		c.entries[key] = &Entry{FetchedAt: restored.FetchedAt, Stale: true, raw: restored.Value}
	}
	return nil
}
