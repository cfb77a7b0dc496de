// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest implements the SyncManifest store: the versioned,
// deterministic on-wire description of a logical file's chunk list,
// size, hash, vector clock, and optional wrapped file key.
//
// v2 is the canonical JSON format; v1 is a legacy newline-delimited
// textual format, read-only, grounded on
// original_source/crates/tcfs-sync/src/manifest.rs.
package manifest
