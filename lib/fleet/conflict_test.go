// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAutoResolverKeepsLexicographicallySmallerDevice(t *testing.T) {
	resolver := AutoResolver{}

	resolution := resolver.Resolve(ConflictInfo{LocalDevice: "alpha", RemoteDevice: "beta"})
	require.Equal(t, KeepLocal, resolution)

	resolution = resolver.Resolve(ConflictInfo{LocalDevice: "zeta", RemoteDevice: "alpha"})
	require.Equal(t, KeepRemote, resolution)
}

func TestAutoResolverIsDeterministicForEqualDeviceIDs(t *testing.T) {
	resolver := AutoResolver{}
	resolution := resolver.Resolve(ConflictInfo{LocalDevice: "same", RemoteDevice: "same"})
	require.Equal(t, KeepLocal, resolution)
}

func TestInteractiveResolverAlwaysDefersAndQueues(t *testing.T) {
	resolver := NewInteractiveResolver(4)

	resolution := resolver.Resolve(ConflictInfo{Path: "/a.txt"})
	require.Equal(t, Defer, resolution)

	select {
	case conflict := <-resolver.Pending():
		require.Equal(t, "/a.txt", conflict.Path)
	default:
		t.Fatal("expected queued conflict")
	}
}

func TestInteractiveResolverDropsWhenQueueFull(t *testing.T) {
	resolver := NewInteractiveResolver(1)
	resolver.Resolve(ConflictInfo{Path: "/first"})
	resolution := resolver.Resolve(ConflictInfo{Path: "/second"})
	require.Equal(t, Defer, resolution)
}

func TestDeferResolverAlwaysDefers(t *testing.T) {
	resolver := DeferResolver{}
	require.Equal(t, Defer, resolver.Resolve(ConflictInfo{}))
}

func TestResolutionString(t *testing.T) {
	require.Equal(t, "keep_local", KeepLocal.String())
	require.Equal(t, "keep_remote", KeepRemote.String())
	require.Equal(t, "keep_both", KeepBoth.String())
	require.Equal(t, "defer", Defer.String())
}
