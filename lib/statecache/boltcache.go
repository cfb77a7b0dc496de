// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package statecache

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var stateBucket = []byte("state")

// BoltCache is a [Backend] backed by an embedded go.etcd.io/bbolt
// database, for fleets with enough tracked paths that rewriting an
// entire JSON file on every flush (as [JSONCache] does) becomes
// costly. Each entry is stored as a JSON value under its path key in
// a single bucket; bbolt's own write-ahead log and mmap'd B+tree give
// per-Set durability without an external server, matching the
// single-file embedded-store shape the rest of this codebase favors
// for on-disk indexes.
type BoltCache struct {
	db *bolt.DB
}

// OpenBoltCache opens (creating if necessary) a bbolt database at
// path and ensures the state bucket exists.
func OpenBoltCache(path string) (*BoltCache, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening bolt state cache %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(stateBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing bolt state bucket: %w", err)
	}

	return &BoltCache{db: db}, nil
}

func (c *BoltCache) Get(path string) (Entry, bool) {
	var entry Entry
	var found bool

	_ = c.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(stateBucket).Get([]byte(path))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil
		}
		found = true
		return nil
	})

	return entry, found
}

func (c *BoltCache) Set(path string, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("serializing state cache entry for %s: %w", path, err)
	}

	err = c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(stateBucket).Put([]byte(path), data)
	})
	if err != nil {
		return fmt.Errorf("writing state cache entry for %s: %w", path, err)
	}
	return nil
}

func (c *BoltCache) Remove(path string) error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(stateBucket).Delete([]byte(path))
	})
	if err != nil {
		return fmt.Errorf("removing state cache entry for %s: %w", path, err)
	}
	return nil
}

func (c *BoltCache) All() (map[string]Entry, error) {
	out := make(map[string]Entry)

	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(stateBucket).ForEach(func(k, v []byte) error {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("parsing state cache entry for %s: %w", k, err)
			}
			out[string(k)] = entry
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Flush is a no-op: every Set/Remove is already durable once its
// transaction commits.
func (c *BoltCache) Flush() error {
	return nil
}

func (c *BoltCache) Close() error {
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("closing bolt state cache: %w", err)
	}
	return nil
}

var _ Backend = (*BoltCache)(nil)
