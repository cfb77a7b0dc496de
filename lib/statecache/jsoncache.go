// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package statecache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// JSONCache is a [Backend] backed by a single JSON file, flushed with
// an atomic write-then-rename. Grounded on
// original_source/crates/tcfs-sync/src/state.rs: the whole map is
// loaded into memory at open, a dirty flag short-circuits no-op
// flushes, and every flush writes a ".tmp" sibling before renaming it
// over the live file. Suited to small fleets where rewriting the
// entire file on each flush is cheap.
type JSONCache struct {
	mu      sync.RWMutex
	path    string
	entries map[string]Entry
	dirty   bool
}

// OpenJSONCache loads an existing state file at path, or starts with
// an empty cache if it does not yet exist.
func OpenJSONCache(path string) (*JSONCache, error) {
	c := &JSONCache{path: path, entries: make(map[string]Entry)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state cache %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, fmt.Errorf("parsing state cache %s: %w", path, err)
	}
	return c, nil
}

func (c *JSONCache) Get(path string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[path]
	return e.Clone(), ok
}

func (c *JSONCache) Set(path string, entry Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = entry.Clone()
	c.dirty = true
	return nil
}

func (c *JSONCache) Remove(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[path]; ok {
		delete(c.entries, path)
		c.dirty = true
	}
	return nil
}

func (c *JSONCache) All() (map[string]Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Entry, len(c.entries))
	for k, v := range c.entries {
		out[k] = v.Clone()
	}
	return out, nil
}

// Flush writes the in-memory map to disk if it is dirty, using a
// temp-file-then-rename to avoid leaving a partially-written cache
// behind a crash mid-write.
func (c *JSONCache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushLocked()
}

func (c *JSONCache) flushLocked() error {
	if !c.dirty {
		return nil
	}

	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating state cache directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing state cache: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing state cache temp file %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("renaming state cache into place %s: %w", c.path, err)
	}

	c.dirty = false
	return nil
}

// Close flushes any pending changes. The JSON backend holds no other
// resources.
func (c *JSONCache) Close() error {
	return c.Flush()
}

var _ Backend = (*JSONCache)(nil)
