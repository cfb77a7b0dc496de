// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncengine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/tinyland-inc/tcfs/lib/cas"
	"github.com/tinyland-inc/tcfs/lib/chunk"
	"github.com/tinyland-inc/tcfs/lib/chunkcodec"
	"github.com/tinyland-inc/tcfs/lib/fleet"
	"github.com/tinyland-inc/tcfs/lib/manifest"
	"github.com/tinyland-inc/tcfs/lib/secret"
	"github.com/tinyland-inc/tcfs/lib/statecache"
	"github.com/tinyland-inc/tcfs/lib/tcfserr"
)

// Pull runs the pull sequence of spec.md §4.6.3 for path: fetch the
// manifest identified by fileHash, fetch and decode every chunk,
// verify the reassembled plaintext's hash, and atomically replace the
// local file. remoteDeviceID is recorded only for error context; it
// plays no role in the verification itself. Pull satisfies
// [github.com/tinyland-inc/tcfs/lib/fleet.PullFunc] so it can be
// wired directly as a [fleet.Coordinator]'s callback.
func (e *Engine) Pull(ctx context.Context, path, fileHash, remoteDeviceID string) error {
	hash, err := chunk.ParseHash(fileHash)
	if err != nil {
		return fmt.Errorf("%w: malformed file hash %q for %s: %v", tcfserr.ErrIntegrity, fileHash, path, err)
	}

	m, err := e.manifests.Read(ctx, hash)
	if err != nil {
		return fmt.Errorf("reading manifest for %s from %s: %w", path, remoteDeviceID, err)
	}

	return e.applyManifest(ctx, path, m, fleet.TransitionRemoteAfter, fleet.TransitionPullCommit)
}

// applyManifest is the shared core of Pull, Reconcile, and conflict
// resolution: decode every chunk of an already-fetched manifest,
// verify, and atomically replace path with the result. transitions
// drives the per-file state machine (spec.md §4.6.5) from whatever
// state path is cached in to the Synced state this commit produces;
// callers pick the transition sequence appropriate to how they got
// here — a plain pull applies RemoteAfter then PullCommit, while a
// conflict resolution that adopts the remote side applies ConflictApply
// directly from Conflict.
func (e *Engine) applyManifest(ctx context.Context, path string, m *manifest.Manifest, transitions ...fleet.Transition) error {
	plaintext, err := e.decodeManifest(ctx, path, m)
	if err != nil {
		return err
	}

	if err := atomicReplace(path, plaintext); err != nil {
		return fmt.Errorf("%w: replacing %s: %v", tcfserr.ErrIo, path, err)
	}

	cached, hadCache := e.state.Get(path)
	state, err := applyTransitions(currentFileState(cached, hadCache), transitions...)
	if err != nil {
		return fmt.Errorf("advancing file state for %s: %w", path, err)
	}

	entry := statecache.Entry{
		RemoteKey:   m.FileHash,
		FileHash:    m.FileHash,
		Size:        m.FileSize,
		VectorClock: m.VectorClock,
		Status:      state.Status,
	}
	if err := e.state.Set(path, entry); err != nil {
		return fmt.Errorf("updating state cache for %s: %w", path, err)
	}
	return e.state.Flush()
}

// decodeManifest fetches, decrypts, decompresses, reassembles, and
// verifies the plaintext described by m, without touching the
// filesystem or state cache. Shared by applyManifest (which writes the
// result to path) and the conflict resolver's sibling-preserve path
// (which writes it to a renamed sibling instead).
func (e *Engine) decodeManifest(ctx context.Context, path string, m *manifest.Manifest) ([]byte, error) {
	hash, err := chunk.ParseHash(m.FileHash)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed file hash %q for %s: %v", tcfserr.ErrIntegrity, m.FileHash, path, err)
	}

	var fileKey *secret.Buffer
	if len(m.EncryptedFileKey) > 0 {
		if e.masterKey == nil {
			return nil, fmt.Errorf("%w: %s is encrypted but no master key is configured", tcfserr.ErrConfig, path)
		}
		fileKey, err = chunkcodec.UnwrapFileKey(e.masterKey, hash, m.EncryptedFileKey)
		if err != nil {
			return nil, fmt.Errorf("unwrapping file key for %s: %w", path, err)
		}
		defer fileKey.Close()
	}

	plaintext, err := e.fetchAndReassemble(ctx, hash, m, fileKey)
	if err != nil {
		return nil, err
	}

	if err := m.VerifyFileHash(plaintext); err != nil {
		return nil, err
	}

	return plaintext, nil
}

// fetchAndReassemble downloads and decodes every chunk in m with a
// bounded worker pool, then concatenates the plaintext in file order.
// On cancellation mid-pull, no partial file is ever written — the
// caller's atomicReplace only runs once every chunk has succeeded.
func (e *Engine) fetchAndReassemble(ctx context.Context, fileHash chunk.Hash, m *manifest.Manifest, fileKey *secret.Buffer) ([]byte, error) {
	plaintexts := make([][]byte, len(m.Chunks))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(e.maxParallelChunks)

	for i, desc := range m.Chunks {
		i, desc := i, desc
		group.Go(func() error {
			chunkHash, err := chunk.ParseHash(desc.Hash)
			if err != nil {
				return fmt.Errorf("%w: malformed chunk hash %q at index %d: %v", tcfserr.ErrIntegrity, desc.Hash, i, err)
			}

			wire, err := cas.GetChunk(gctx, e.objects, e.prefix, chunkHash)
			if err != nil {
				return fmt.Errorf("fetching chunk %d: %w", i, err)
			}

			plaintext, err := chunkcodec.DecodeChunk(wire, i, fileHash, fileKey, desc.Compressed, desc.Length)
			if err != nil {
				return fmt.Errorf("decoding chunk %d: %w", i, err)
			}

			if chunk.HashChunk(plaintext) != chunkHash {
				return fmt.Errorf("%w: chunk %d content does not match its declared hash", tcfserr.ErrIntegrity, i)
			}

			plaintexts[i] = plaintext
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	out := make([]byte, 0, m.FileSize)
	for _, p := range plaintexts {
		out = append(out, p...)
	}
	return out, nil
}

// atomicReplace writes data to a temporary sibling of path, fsyncs
// it, and renames it into place, per spec.md §4.6.3's "reassembly is
// atomic from the caller's viewpoint." On cancellation the caller
// never calls atomicReplace at all since fetchAndReassemble returns
// before producing a complete plaintext.
func atomicReplace(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tcfs-tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	succeeded := false
	defer func() {
		if !succeeded {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming into place: %w", err)
	}

	succeeded = true
	return nil
}
