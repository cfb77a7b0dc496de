// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package statecache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoltCacheSetGetRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.bolt")
	cache, err := OpenBoltCache(path)
	require.NoError(t, err)
	defer cache.Close()

	entry := Entry{FileHash: "abc", Size: 10, Status: StatusModifiedLocal}
	require.NoError(t, cache.Set("/tmp/file.txt", entry))

	got, ok := cache.Get("/tmp/file.txt")
	require.True(t, ok)
	require.Equal(t, entry.FileHash, got.FileHash)
	require.Equal(t, StatusModifiedLocal, got.Status)

	require.NoError(t, cache.Remove("/tmp/file.txt"))
	_, ok = cache.Get("/tmp/file.txt")
	require.False(t, ok)
}

func TestBoltCacheSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.bolt")

	cache, err := OpenBoltCache(path)
	require.NoError(t, err)
	require.NoError(t, cache.Set("/tmp/a.txt", Entry{FileHash: "h1"}))
	require.NoError(t, cache.Close())

	reopened, err := OpenBoltCache(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, ok := reopened.Get("/tmp/a.txt")
	require.True(t, ok)
	require.Equal(t, "h1", got.FileHash)
}

func TestBoltCacheAllListsEveryEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.bolt")
	cache, err := OpenBoltCache(path)
	require.NoError(t, err)
	defer cache.Close()

	require.NoError(t, cache.Set("/tmp/a.txt", Entry{FileHash: "h1"}))
	require.NoError(t, cache.Set("/tmp/b.txt", Entry{FileHash: "h2"}))

	entries, err := cache.All()
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestBoltCacheGetMissingReturnsFalse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.bolt")
	cache, err := OpenBoltCache(path)
	require.NoError(t, err)
	defer cache.Close()

	_, ok := cache.Get("/tmp/nope.txt")
	require.False(t, ok)
}
