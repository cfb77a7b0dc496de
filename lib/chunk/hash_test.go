// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chunk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashFormatRoundTrip(t *testing.T) {
	h := HashChunk([]byte("hello world"))
	formatted := FormatHash(h)
	require.Len(t, formatted, 64)

	parsed, err := ParseHash(formatted)
	require.NoError(t, err)
	require.Equal(t, h, parsed)
}

func TestParseHashRejectsWrongLength(t *testing.T) {
	_, err := ParseHash("abcd")
	require.Error(t, err)
}

func TestFileHasherMatchesHashFile(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")

	fh := NewFileHasher()
	_, err := fh.Write(data[:10])
	require.NoError(t, err)
	_, err = fh.Write(data[10:])
	require.NoError(t, err)

	require.Equal(t, HashFile(data), fh.Sum())
}

func TestHashChunkIsDeterministic(t *testing.T) {
	data := []byte("content addressed")
	require.Equal(t, HashChunk(data), HashChunk(data))
}

func TestHashZero(t *testing.T) {
	var h Hash
	require.True(t, h.IsZero())
	require.False(t, HashChunk([]byte("x")).IsZero())
}
