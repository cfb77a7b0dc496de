// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package statecache implements the local, persistent map from a
// local file path to its last-known sync state: remote manifest key,
// file hash, size, vector clock, and sync status. It is what lets a
// device short-circuit re-uploads of unchanged files and reconstruct
// its local vector clock on restart, per spec.md §3's "State cache"
// data model entry.
//
// Two backends implement the same [Backend] contract: jsoncache, a
// single JSON file flushed with atomic write-then-rename (grounded on
// original_source/crates/tcfs-sync/src/state.rs), for small fleets;
// and boltcache, backed by an embedded go.etcd.io/bbolt database, for
// large fleets where rewriting the whole file on every flush is too
// costly.
package statecache
