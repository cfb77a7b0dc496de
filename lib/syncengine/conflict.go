// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncengine

import (
	"context"
	"fmt"
	"os"

	"github.com/tinyland-inc/tcfs/lib/chunk"
	"github.com/tinyland-inc/tcfs/lib/fleet"
	"github.com/tinyland-inc/tcfs/lib/statecache"
	"github.com/tinyland-inc/tcfs/lib/tcfserr"
)

// ResolveConflict applies resolver's decision for a Concurrent
// conflict on path, per spec.md §4.6.4: the losing side is never
// silently discarded. It is preserved as a sibling file suffixed
// ".conflict-<device>", and the winning side (if remote) is then
// adopted at path. ResolveConflict satisfies [fleet.ConflictFunc] so
// it can be wired directly into a [fleet.Coordinator].
func (e *Engine) ResolveConflict(ctx context.Context, path, fileHash, remoteDeviceID string, resolution fleet.Resolution) error {
	if resolution == fleet.Defer {
		return nil
	}

	if err := e.markConflict(path); err != nil {
		return err
	}

	switch resolution {
	case fleet.KeepRemote:
		if err := preserveLocalSibling(path, e.selfID); err != nil {
			return err
		}

		hash, err := chunk.ParseHash(fileHash)
		if err != nil {
			return fmt.Errorf("%w: malformed file hash %q for %s: %v", tcfserr.ErrIntegrity, fileHash, path, err)
		}
		m, err := e.manifests.Read(ctx, hash)
		if err != nil {
			return fmt.Errorf("reading winning manifest for %s from %s: %w", path, remoteDeviceID, err)
		}
		return e.applyManifest(ctx, path, m, fleet.TransitionConflictApply)

	case fleet.KeepLocal, fleet.KeepBoth:
		// The local file stays at path unchanged; the remote loser is
		// preserved alongside it rather than discarded. KeepBoth has no
		// winner to apply differently from KeepLocal here, since
		// nothing in this resolution names which side should occupy
		// the canonical path beyond "local stays put".
		if err := e.pullToSibling(ctx, path, fileHash, remoteDeviceID); err != nil {
			return err
		}
		return e.commitConflictResolved(path)

	default:
		return fmt.Errorf("unrecognized conflict resolution %v for %s", resolution, path)
	}
}

// markConflict records path as Conflict in the state cache ahead of
// resolving it. This bypasses the state machine's own transition
// table rather than calling Apply: per spec.md §4.6.5, Concurrent can
// arise from either Synced or ModifiedLocal, and there is no single
// transition name covering both origins.
func (e *Engine) markConflict(path string) error {
	cached, _ := e.state.Get(path)
	cached.Status = statecache.StatusConflict
	if err := e.state.Set(path, cached); err != nil {
		return fmt.Errorf("marking %s conflicted: %w", path, err)
	}
	return e.state.Flush()
}

// commitConflictResolved drives path's cached status from Conflict
// back to Synced once a KeepLocal/KeepBoth resolution has finished
// preserving the remote loser as a sibling. The local manifest, hash,
// and vector clock are left as they were; the local side was already
// authoritative.
func (e *Engine) commitConflictResolved(path string) error {
	cached, hadCache := e.state.Get(path)
	state, err := applyTransitions(currentFileState(cached, hadCache), fleet.TransitionConflictApply)
	if err != nil {
		return fmt.Errorf("completing conflict resolution for %s: %w", path, err)
	}
	cached.Status = state.Status
	if err := e.state.Set(path, cached); err != nil {
		return fmt.Errorf("updating state cache for %s: %w", path, err)
	}
	return e.state.Flush()
}

// pullToSibling fetches and decodes the remote manifest identified by
// fileHash and writes the result to path's conflict sibling rather
// than to path itself, preserving the losing remote content without
// disturbing the local winner. The state cache is not touched, since
// the sibling is not itself a tracked path.
func (e *Engine) pullToSibling(ctx context.Context, path, fileHash, remoteDeviceID string) error {
	hash, err := chunk.ParseHash(fileHash)
	if err != nil {
		return fmt.Errorf("%w: malformed file hash %q for %s: %v", tcfserr.ErrIntegrity, fileHash, path, err)
	}

	m, err := e.manifests.Read(ctx, hash)
	if err != nil {
		return fmt.Errorf("reading losing manifest for %s from %s: %w", path, remoteDeviceID, err)
	}

	plaintext, err := e.decodeManifest(ctx, path, m)
	if err != nil {
		return err
	}

	sibling := conflictSiblingPath(path, remoteDeviceID)
	if err := atomicReplace(sibling, plaintext); err != nil {
		return fmt.Errorf("%w: writing conflict sibling %s: %v", tcfserr.ErrIo, sibling, err)
	}
	return nil
}

// preserveLocalSibling renames path's current content to its conflict
// sibling ahead of overwriting path with the winning remote content.
// A missing local file (nothing to preserve) is not an error.
func preserveLocalSibling(path, deviceID string) error {
	sibling := conflictSiblingPath(path, deviceID)
	if err := os.Rename(path, sibling); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: preserving local conflict copy of %s: %v", tcfserr.ErrIo, path, err)
	}
	return nil
}

// conflictSiblingPath returns the sibling path a conflict's losing
// side is preserved under, per spec.md S3's "suffix .conflict-<B>".
func conflictSiblingPath(path, deviceID string) string {
	return path + ".conflict-" + deviceID
}
