// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package syncengine ties the chunker, codec, CAS, manifest store,
// state cache, and fleet coordinator into the push/pull/reconcile
// operations of spec.md §4.6.2-§4.6.5, grounded on
// original_source/crates/tcfs-sync/src/engine.rs's upload_file,
// download_file, and push_tree.
package syncengine
