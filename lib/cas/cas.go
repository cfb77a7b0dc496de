// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cas

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/tinyland-inc/tcfs/lib/chunk"
)

// Store is the capability abstraction every CAS backend satisfies:
// put/get/exists/list over opaque keys. Two implementations exist in
// this package — [S3Store] for production, [MemoryStore] for tests —
// satisfying the same contract, per spec.md §9's "Polymorphism"
// design note.
type Store interface {
	// Put uploads data under key. Idempotent: if key already holds
	// content-addressed data, callers are expected to check Exists
	// first so repeated pushes of unchanged content are no-ops.
	Put(ctx context.Context, key string, data []byte) error

	// Get downloads the bytes stored at key. Returns an error
	// wrapping [tcfserr.ErrNotFound] if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// List returns every key with the given prefix. Used only by the
	// device registry and reconciliation/GC scans.
	List(ctx context.Context, prefix string) ([]string, error)
}

// ChunkKey returns the CAS key for a chunk's plaintext hash, under
// {prefix}/chunks/{hex(hash)}.
func ChunkKey(prefix string, hash chunk.Hash) string {
	return joinPrefix(prefix, "chunks/"+hex.EncodeToString(hash[:]))
}

// ManifestKey returns the CAS key for a manifest, under
// {prefix}/manifests/{hex(file_hash)}.
func ManifestKey(prefix string, fileHash chunk.Hash) string {
	return joinPrefix(prefix, "manifests/"+hex.EncodeToString(fileHash[:]))
}

// DeviceRegistryKey returns the CAS key for the device registry blob,
// under {prefix}/devices/registry.
func DeviceRegistryKey(prefix string) string {
	return joinPrefix(prefix, "devices/registry")
}

// ManifestsPrefix returns the key prefix under which every manifest
// lives, for enumerating manifests with List. Reconciliation (spec.md
// S5) lists path pointers under [PathPointersPrefix] instead.
func ManifestsPrefix(prefix string) string {
	return joinPrefix(prefix, "manifests/")
}

// PathPointerKey returns the CAS key for path's pointer record, under
// {prefix}/pointers/{hex(blake3(path))}. Manifests are purely
// content-addressed (spec.md §9's "Manifest naming" open question:
// "this spec adopts file-hash as the canonical manifest key"), which
// leaves no way for a device that has never seen a path's events to
// discover its current manifest. The pointer record closes that gap:
// every successful push also writes path -> current file_hash here,
// which is what a reconciliation pass (spec.md S5) lists and follows.
func PathPointerKey(prefix, path string) string {
	h := chunk.HashFile([]byte(path))
	return joinPrefix(prefix, "pointers/"+hex.EncodeToString(h[:]))
}

// PathPointersPrefix returns the key prefix under which every path
// pointer lives, for use with List during reconciliation.
func PathPointersPrefix(prefix string) string {
	return joinPrefix(prefix, "pointers/")
}

func joinPrefix(prefix, rest string) string {
	if prefix == "" {
		return rest
	}
	return fmt.Sprintf("%s/%s", prefix, rest)
}

// PutChunk uploads a chunk under its content address, first checking
// Exists so that re-pushing unchanged content performs no upload —
// the idempotence property spec.md §8 property 5 and scenario S6 rely
// on. Returns whether an upload actually happened, for callers that
// track how many chunks were newly written.
func PutChunk(ctx context.Context, store Store, prefix string, hash chunk.Hash, wire []byte) (uploaded bool, err error) {
	key := ChunkKey(prefix, hash)

	exists, err := store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("checking chunk %s existence: %w", hash, err)
	}
	if exists {
		return false, nil
	}

	if err := store.Put(ctx, key, wire); err != nil {
		return false, fmt.Errorf("putting chunk %s: %w", hash, err)
	}
	return true, nil
}

// GetChunk downloads a chunk's wire bytes by hash. Integrity
// verification of the returned bytes against hash is the caller's
// responsibility for every backend, because the wire bytes may be
// compressed or encrypted and the plaintext hash cannot be checked
// until the codec has decoded them.
func GetChunk(ctx context.Context, store Store, prefix string, hash chunk.Hash) ([]byte, error) {
	return store.Get(ctx, ChunkKey(prefix, hash))
}
