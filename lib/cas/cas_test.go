// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cas

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/tcfs/lib/chunk"
)

func TestKeyLayout(t *testing.T) {
	hash := chunk.HashChunk([]byte("hello"))

	require.Equal(t, "myprefix/chunks/"+hash.String(), ChunkKey("myprefix", hash))
	require.Equal(t, "myprefix/manifests/"+hash.String(), ManifestKey("myprefix", hash))
	require.Equal(t, "myprefix/devices/registry", DeviceRegistryKey("myprefix"))
	require.Equal(t, "chunks/"+hash.String(), ChunkKey("", hash))
}

func TestPutChunkIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	hash := chunk.HashChunk([]byte("payload"))

	uploaded, err := PutChunk(ctx, store, "p", hash, []byte("wire-bytes"))
	require.NoError(t, err)
	require.True(t, uploaded)
	require.Equal(t, 1, store.PutCount())

	uploaded, err = PutChunk(ctx, store, "p", hash, []byte("wire-bytes"))
	require.NoError(t, err)
	require.False(t, uploaded)
	require.Equal(t, 1, store.PutCount())
}

func TestGetChunkNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	hash := chunk.HashChunk([]byte("absent"))

	_, err := GetChunk(ctx, store, "p", hash)
	require.Error(t, err)
}

func TestListUnderPrefix(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "p/manifests/a", []byte("1")))
	require.NoError(t, store.Put(ctx, "p/manifests/b", []byte("2")))
	require.NoError(t, store.Put(ctx, "p/chunks/c", []byte("3")))

	keys, err := store.List(ctx, ManifestsPrefix("p"))
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"p/manifests/a", "p/manifests/b"}, keys)
}
