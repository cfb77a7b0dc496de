// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package statecache

import (
	"fmt"
	"os"

	"github.com/tinyland-inc/tcfs/lib/chunk"
)

// NeedsSyncReason explains why NeedsSync determined a path should be
// re-pushed, or is empty when the path is already up to date.
type NeedsSyncReason string

const (
	ReasonNone           NeedsSyncReason = ""
	ReasonNewFile        NeedsSyncReason = "new file"
	ReasonSizeChanged    NeedsSyncReason = "size changed"
	ReasonContentChanged NeedsSyncReason = "content changed"
)

// NeedsSync is the fast path that lets a push skip chunking and
// uploading for files that have not changed since the last sync: it
// compares the cached size against a stat first and, when the sizes
// match, compares a BLAKE3 hash of plaintext against the cached file
// hash. The modification time is not consulted, so a file whose size
// is unchanged is always rehashed. Grounded on
// original_source/crates/tcfs-sync/src/state.rs's needs_sync.
func NeedsSync(backend Backend, path string, plaintext []byte) (NeedsSyncReason, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	cached, ok := backend.Get(path)
	if !ok {
		return ReasonNewFile, nil
	}

	if cached.Size != info.Size() {
		return ReasonSizeChanged, nil
	}

	hash := chunk.HashFile(plaintext)
	if hash.String() != cached.FileHash {
		return ReasonContentChanged, nil
	}

	return ReasonNone, nil
}
