// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"fmt"

	"github.com/tinyland-inc/tcfs/lib/statecache"
	"github.com/tinyland-inc/tcfs/lib/vclock"
)

// Transition names the event driving a state-machine step, for
// logging and tests.
type Transition string

const (
	TransitionLocalWrite    Transition = "local_write"
	TransitionPushStart     Transition = "push_start"
	TransitionPushCommit    Transition = "push_commit"
	TransitionRemoteAfter   Transition = "remote_after"
	TransitionPullCommit    Transition = "pull_commit"
	TransitionConflictApply Transition = "conflict_apply"
)

// FileState is the per-file state machine described by spec.md
// §4.6.5. States are perpetual: there is no terminal state short of
// device shutdown.
type FileState struct {
	Status statecache.Status
}

// NewFileState starts a file in the Synced state, the default for a
// path the state cache has never seen diverge.
func NewFileState() FileState {
	return FileState{Status: statecache.StatusSynced}
}

// Apply advances the state machine by one transition, returning the
// new state or an error if the transition is not valid from the
// current state.
func (s FileState) Apply(t Transition) (FileState, error) {
	switch t {
	case TransitionLocalWrite:
		return FileState{Status: statecache.StatusModifiedLocal}, nil

	case TransitionPushStart:
		if s.Status != statecache.StatusModifiedLocal {
			return s, fmt.Errorf("push_start is only valid from modified_local, got %s", s.Status)
		}
		return FileState{Status: statecache.StatusPendingUpload}, nil

	case TransitionPushCommit:
		if s.Status != statecache.StatusPendingUpload {
			return s, fmt.Errorf("push_commit is only valid from pending_upload, got %s", s.Status)
		}
		return FileState{Status: statecache.StatusSynced}, nil

	case TransitionRemoteAfter:
		// spec.md §4.6.5: Synced + remote After → PendingDownload;
		// ModifiedLocal + remote After → Conflict (the local tick is
		// pending, so clocks are Concurrent from the remote's view).
		switch s.Status {
		case statecache.StatusSynced:
			return FileState{Status: statecache.StatusPendingDownload}, nil
		case statecache.StatusModifiedLocal:
			return FileState{Status: statecache.StatusConflict}, nil
		default:
			return s, fmt.Errorf("remote_after is not valid from %s", s.Status)
		}

	case TransitionPullCommit:
		if s.Status != statecache.StatusPendingDownload {
			return s, fmt.Errorf("pull_commit is only valid from pending_download, got %s", s.Status)
		}
		return FileState{Status: statecache.StatusSynced}, nil

	case TransitionConflictApply:
		if s.Status != statecache.StatusConflict {
			return s, fmt.Errorf("conflict_apply is only valid from conflict, got %s", s.Status)
		}
		return FileState{Status: statecache.StatusSynced}, nil

	default:
		return s, fmt.Errorf("unknown transition %q", t)
	}
}

// ClassifyRemoteUpdate maps a vclock comparison between a local and
// remote manifest onto the transition (if any) the pull/auto-pull
// sequence should drive, per spec.md §4.6.3.
func ClassifyRemoteUpdate(ordering vclock.Ordering) (transition Transition, shouldApply bool) {
	switch ordering {
	case vclock.After:
		return TransitionRemoteAfter, true
	default:
		// Equal: no-op. Before: no-op (local is ahead). Concurrent is
		// handled by the caller invoking the conflict resolver
		// directly rather than through this state transition, since
		// Concurrent can arise from either Synced or ModifiedLocal.
		return "", false
	}
}
