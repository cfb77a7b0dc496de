// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncengine

import (
	"context"
	"fmt"

	"github.com/tinyland-inc/tcfs/lib/chunk"
	"github.com/tinyland-inc/tcfs/lib/fleet"
	"github.com/tinyland-inc/tcfs/lib/vclock"
)

// ReconcileResult summarizes one Reconcile run.
type ReconcileResult struct {
	// Checked is the number of path pointers examined.
	Checked int
	// Pulled lists every path whose reconciliation finished without
	// error, including paths that were already up to date and left
	// unchanged.
	Pulled []string
	// Failed maps a path to the error encountered pulling it;
	// Reconcile continues past individual failures so one bad
	// manifest does not block convergence of every other path.
	Failed map[string]error
}

// Reconcile runs the reconciliation pass of spec.md §4.6.1/S5: a
// device returning online past the event bus's retention window lists
// every path pointer, compares each against its local state cache,
// and pulls whichever are After or Concurrent with what it already
// has. Concurrent pointers are resolved the same way a live event
// would be, via resolver.
func (e *Engine) Reconcile(ctx context.Context, resolver fleet.Resolver) (ReconcileResult, error) {
	pointers, err := e.manifests.ListPointers(ctx)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("listing pointers for reconciliation: %w", err)
	}

	result := ReconcileResult{Failed: make(map[string]error)}

	for _, pointer := range pointers {
		result.Checked++

		if err := e.reconcileOne(ctx, pointer.Path, pointer.FileHash, resolver); err != nil {
			result.Failed[pointer.Path] = err
			continue
		}
		result.Pulled = append(result.Pulled, pointer.Path)
	}

	return result, nil
}

func (e *Engine) reconcileOne(ctx context.Context, path, remoteFileHash string, resolver fleet.Resolver) error {
	remoteHash, err := chunk.ParseHash(remoteFileHash)
	if err != nil {
		return fmt.Errorf("malformed pointer hash for %s: %w", path, err)
	}

	remoteManifest, err := e.manifests.Read(ctx, remoteHash)
	if err != nil {
		return fmt.Errorf("reading manifest for %s: %w", path, err)
	}

	cached, ok := e.state.Get(path)
	if ok && cached.FileHash == remoteFileHash {
		// Already converged; nothing to do.
		return nil
	}

	localClock := vclock.New()
	if ok {
		for k, v := range cached.VectorClock {
			localClock[vclock.DeviceID(k)] = v
		}
	}
	remoteClock := remoteManifest.VectorClockValue()

	ordering := remoteClock.Compare(localClock)
	switch ordering {
	case vclock.Equal, vclock.Before:
		return nil

	case vclock.After:
		return e.applyManifest(ctx, path, remoteManifest, fleet.TransitionRemoteAfter, fleet.TransitionPullCommit)

	case vclock.Concurrent:
		conflict := fleet.ConflictInfo{
			Path:         path,
			LocalClock:   cached.VectorClock,
			RemoteClock:  remoteManifest.VectorClock,
			LocalHash:    cached.FileHash,
			RemoteHash:   remoteFileHash,
			LocalDevice:  e.selfID,
			RemoteDevice: remoteManifest.WrittenBy,
		}
		return e.ResolveConflict(ctx, path, remoteFileHash, remoteManifest.WrittenBy, resolver.Resolve(conflict))

	default:
		return fmt.Errorf("unrecognized vector clock ordering %v for %s", ordering, path)
	}
}
