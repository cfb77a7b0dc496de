// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package stub implements the local placeholder-file format used for
// not-yet-hydrated content: a small JSON document carrying enough
// metadata to locate a file's manifest in CAS without fetching any
// chunk bytes. A virtual-filesystem adapter replaces a stub with real
// content on hydrate, and writes a stub back on "unsync" eviction.
//
// Field set grounded on original_source/crates/tcfs-core/src/types.rs's
// StubMeta, expanded to spec.md §6's full list (format version,
// original name and size, file-hash, chunk count, manifest key,
// remote prefix, optional MIME, modified-at) plus a directory-stub
// variant listing child entries.
//
// File stubs use the ".tc" extension; directory stubs use ".tcf".
package stub
