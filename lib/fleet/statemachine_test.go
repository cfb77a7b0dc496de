// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/tcfs/lib/statecache"
	"github.com/tinyland-inc/tcfs/lib/vclock"
)

func TestFileStateFullPushCycle(t *testing.T) {
	s := NewFileState()
	require.Equal(t, statecache.StatusSynced, s.Status)

	s, err := s.Apply(TransitionLocalWrite)
	require.NoError(t, err)
	require.Equal(t, statecache.StatusModifiedLocal, s.Status)

	s, err = s.Apply(TransitionPushStart)
	require.NoError(t, err)
	require.Equal(t, statecache.StatusPendingUpload, s.Status)

	s, err = s.Apply(TransitionPushCommit)
	require.NoError(t, err)
	require.Equal(t, statecache.StatusSynced, s.Status)
}

func TestFileStatePullCycle(t *testing.T) {
	s := NewFileState()

	s, err := s.Apply(TransitionRemoteAfter)
	require.NoError(t, err)
	require.Equal(t, statecache.StatusPendingDownload, s.Status)

	s, err = s.Apply(TransitionPullCommit)
	require.NoError(t, err)
	require.Equal(t, statecache.StatusSynced, s.Status)
}

func TestFileStateModifiedLocalPlusRemoteAfterGoesToConflict(t *testing.T) {
	s := FileState{Status: statecache.StatusModifiedLocal}

	s, err := s.Apply(TransitionRemoteAfter)
	require.NoError(t, err)
	require.Equal(t, statecache.StatusConflict, s.Status)

	s, err = s.Apply(TransitionConflictApply)
	require.NoError(t, err)
	require.Equal(t, statecache.StatusSynced, s.Status)
}

func TestFileStateRejectsInvalidTransitions(t *testing.T) {
	s := NewFileState()

	_, err := s.Apply(TransitionPushStart)
	require.Error(t, err)

	_, err = s.Apply(TransitionPushCommit)
	require.Error(t, err)

	_, err = s.Apply(TransitionConflictApply)
	require.Error(t, err)
}

func TestFileStateRejectsUnknownTransition(t *testing.T) {
	s := NewFileState()
	_, err := s.Apply(Transition("bogus"))
	require.Error(t, err)
}

func TestClassifyRemoteUpdate(t *testing.T) {
	transition, shouldApply := ClassifyRemoteUpdate(vclock.After)
	require.True(t, shouldApply)
	require.Equal(t, TransitionRemoteAfter, transition)

	_, shouldApply = ClassifyRemoteUpdate(vclock.Before)
	require.False(t, shouldApply)

	_, shouldApply = ClassifyRemoteUpdate(vclock.Equal)
	require.False(t, shouldApply)

	_, shouldApply = ClassifyRemoteUpdate(vclock.Concurrent)
	require.False(t, shouldApply)
}
