// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncengine

import (
	"github.com/tinyland-inc/tcfs/lib/fleet"
	"github.com/tinyland-inc/tcfs/lib/statecache"
)

// currentFileState derives the per-file state machine's current state
// from a state-cache entry, defaulting to Synced for a path the cache
// has never recorded anything about.
func currentFileState(cached statecache.Entry, hadCache bool) fleet.FileState {
	if !hadCache || cached.Status == "" {
		return fleet.NewFileState()
	}
	return fleet.FileState{Status: cached.Status}
}

// applyTransitions drives state through each transition in order,
// stopping at the first one the state machine rejects.
func applyTransitions(state fleet.FileState, transitions ...fleet.Transition) (fleet.FileState, error) {
	for _, t := range transitions {
		var err error
		state, err = state.Apply(t)
		if err != nil {
			return state, err
		}
	}
	return state, nil
}
