// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cas implements the content-addressed object-store facade:
// a minimal put/get/exists/list verb set over an S3-compatible
// bucket, with retry-with-backoff on transport errors. Chunk blobs are
// returned as stored; their BLAKE3 integrity is checked by the caller
// once the codec has decoded them, since a chunk's key is the hash of
// its plaintext.
//
// The AWS SDK v2 wiring (config, credentials, uploader/downloader,
// pagination) follows mrcawood-History_eXtended's S3Store; the
// retry/backoff shape follows the teacher's lib/github rate-limit
// wait loop, built on lib/clock.Clock so it is deterministically
// testable.
package cas
