// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package statecache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONCacheOpenNonexistentIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	cache, err := OpenJSONCache(path)
	require.NoError(t, err)

	entries, err := cache.All()
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestJSONCacheSetGetFlushReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	cache, err := OpenJSONCache(path)
	require.NoError(t, err)

	entry := Entry{
		RemoteKey:   "abc123",
		FileHash:    "abc123",
		Size:        5,
		VectorClock: map[string]uint64{"device-a": 1},
		Status:      StatusSynced,
	}
	require.NoError(t, cache.Set("/tmp/file.txt", entry))
	require.NoError(t, cache.Flush())

	reloaded, err := OpenJSONCache(path)
	require.NoError(t, err)

	got, ok := reloaded.Get("/tmp/file.txt")
	require.True(t, ok)
	require.Equal(t, entry.FileHash, got.FileHash)
	require.Equal(t, entry.Size, got.Size)
	require.Equal(t, uint64(1), got.VectorClock["device-a"])
}

func TestJSONCacheRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	cache, err := OpenJSONCache(path)
	require.NoError(t, err)

	require.NoError(t, cache.Set("/tmp/a.txt", Entry{FileHash: "h1", Size: 4}))
	entries, err := cache.All()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, cache.Remove("/tmp/a.txt"))
	_, ok := cache.Get("/tmp/a.txt")
	require.False(t, ok)

	entries, err = cache.All()
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestJSONCacheFlushIsIdempotentWhenClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	cache, err := OpenJSONCache(path)
	require.NoError(t, err)

	require.NoError(t, cache.Flush())
	require.NoError(t, cache.Flush())
}

func TestJSONCacheCloneIsolatesCallers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	cache, err := OpenJSONCache(path)
	require.NoError(t, err)

	require.NoError(t, cache.Set("/tmp/a.txt", Entry{
		FileHash:    "h1",
		VectorClock: map[string]uint64{"device-a": 1},
	}))

	got, ok := cache.Get("/tmp/a.txt")
	require.True(t, ok)
	got.VectorClock["device-a"] = 99

	got2, ok := cache.Get("/tmp/a.txt")
	require.True(t, ok)
	require.Equal(t, uint64(1), got2.VectorClock["device-a"])
}

func TestJSONCacheMultipleEntriesSurviveReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	cache, err := OpenJSONCache(path)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, cache.Set(filepath.Join("/tmp", string(rune('a'+i))), Entry{
			FileHash: "hash",
			Size:     int64(i),
		}))
	}
	require.NoError(t, cache.Flush())

	reloaded, err := OpenJSONCache(path)
	require.NoError(t, err)
	entries, err := reloaded.All()
	require.NoError(t, err)
	require.Len(t, entries, 5)
}
