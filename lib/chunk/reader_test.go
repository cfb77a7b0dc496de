// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chunk

import (
	"bytes"
	"crypto/rand"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReaderMatchesChunkAll(t *testing.T) {
	data := make([]byte, 1<<20)
	_, err := rand.Read(data)
	require.NoError(t, err)

	want := ChunkAll(data)

	reader := NewReader(bytes.NewReader(data))
	var got []Chunk
	for {
		c, err := reader.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, *c)
	}

	require.Equal(t, len(want), len(got))
	for i := range want {
		require.Equal(t, want[i].Hash, got[i].Hash)
		require.True(t, bytes.Equal(want[i].Data, got[i].Data))
	}
}

func TestReaderEmptyStream(t *testing.T) {
	reader := NewReader(bytes.NewReader(nil))
	_, err := reader.Next()
	require.ErrorIs(t, err, io.EOF)
}
