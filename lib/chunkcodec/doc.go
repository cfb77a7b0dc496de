// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package chunkcodec transforms plaintext chunks into storage blobs
// and back: zstd compression and optional per-file XChaCha20-Poly1305
// encryption, framed for the wire. It is grounded on the teacher's
// lib/artifactstore compress.go and encrypt.go, narrowed to the single
// compression algorithm and per-chunk AAD construction the spec
// mandates.
package chunkcodec
