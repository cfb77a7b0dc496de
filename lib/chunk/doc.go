// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package chunk implements content-defined chunking (FastCDC/GearHash)
// and plain BLAKE3 hashing over chunk and file content.
//
// Chunking parameters are protocol constants: changing them changes
// chunk boundaries for existing content and therefore breaks
// deduplication against anything already stored. Hashes are unkeyed
// BLAKE3 — there is no domain separation between chunk hashes and file
// hashes, because the file hash is defined directly as BLAKE3 of the
// concatenated plaintext rather than a keyed hash of a Merkle root.
package chunk
