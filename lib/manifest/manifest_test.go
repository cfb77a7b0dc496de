// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/tcfs/lib/chunk"
	"github.com/tinyland-inc/tcfs/lib/tcfserr"
)

func validManifest(t *testing.T, plaintext []byte) *Manifest {
	t.Helper()

	fileHash := chunk.HashFile(plaintext)
	chunkHash := chunk.HashChunk(plaintext)

	return &Manifest{
		FileHash:   fileHash.String(),
		FileSize:   int64(len(plaintext)),
		ChunkCount: 1,
		Chunks: []ChunkDescriptor{
			{Index: 0, Hash: chunkHash.String(), Offset: 0, Length: len(plaintext), CompressedLength: len(plaintext)},
		},
		VectorClock: map[string]uint64{"device-a": 1},
		ModifiedAt:  time.Unix(0, 0).UTC(),
	}
}

func TestMarshalSetsVersionAndChunkCount(t *testing.T) {
	m := validManifest(t, []byte("hello world"))
	m.Version = 0
	m.ChunkCount = 0

	data, err := m.Marshal()
	require.NoError(t, err)
	require.Equal(t, CurrentVersion, m.Version)
	require.Equal(t, 1, m.ChunkCount)

	var round Manifest
	require.NoError(t, FromBytesInto(&round, data))
	require.Equal(t, m.FileHash, round.FileHash)
}

func TestMarshalIsDeterministic(t *testing.T) {
	m1 := validManifest(t, []byte("deterministic payload"))
	m2 := validManifest(t, []byte("deterministic payload"))

	out1, err := m1.Marshal()
	require.NoError(t, err)
	out2, err := m2.Marshal()
	require.NoError(t, err)

	require.Equal(t, out1, out2)
}

func TestValidateAcceptsWellFormedManifest(t *testing.T) {
	m := validManifest(t, []byte("well formed"))
	require.NoError(t, m.Validate())
}

func TestValidateRejectsChunkCountMismatch(t *testing.T) {
	m := validManifest(t, []byte("mismatch"))
	m.ChunkCount = 2

	err := m.Validate()
	require.Error(t, err)
	require.ErrorIs(t, err, tcfserr.ErrIntegrity)
}

func TestValidateRejectsNonContiguousOffsets(t *testing.T) {
	m := validManifest(t, []byte("non-contiguous offsets here"))
	m.Chunks = append(m.Chunks, ChunkDescriptor{
		Index: 1, Hash: m.Chunks[0].Hash, Offset: 100, Length: 5,
	})
	m.ChunkCount = 2
	m.FileSize = int64(m.Chunks[0].Length + 5)

	err := m.Validate()
	require.Error(t, err)
	require.ErrorIs(t, err, tcfserr.ErrIntegrity)
}

func TestValidateRejectsFileSizeMismatch(t *testing.T) {
	m := validManifest(t, []byte("size mismatch"))
	m.FileSize += 1

	err := m.Validate()
	require.Error(t, err)
	require.ErrorIs(t, err, tcfserr.ErrIntegrity)
}

func TestValidateRejectsMalformedFileHash(t *testing.T) {
	m := validManifest(t, []byte("bad hash"))
	m.FileHash = "not-a-hex-hash"

	err := m.Validate()
	require.Error(t, err)
	require.ErrorIs(t, err, tcfserr.ErrIntegrity)
}

func TestVerifyFileHashDetectsTampering(t *testing.T) {
	plaintext := []byte("integrity matters")
	m := validManifest(t, plaintext)

	require.NoError(t, m.VerifyFileHash(plaintext))

	err := m.VerifyFileHash([]byte("integrity matters!"))
	require.Error(t, err)
	require.True(t, errors.Is(err, tcfserr.ErrIntegrity))
}

func TestVectorClockRoundTrip(t *testing.T) {
	m := validManifest(t, []byte("clock round trip"))
	clk := m.VectorClockValue()
	require.Equal(t, uint64(1), clk.Get("device-a"))

	clk = clk.Tick("device-b")
	m.SetVectorClock(clk)

	require.Equal(t, uint64(1), m.VectorClock["device-a"])
	require.Equal(t, uint64(1), m.VectorClock["device-b"])
}

// FromBytesInto is a small test helper that unmarshals through the
// package's own dispatch path rather than encoding/json directly, so
// tests exercise the same code path production code uses.
func FromBytesInto(m *Manifest, data []byte) error {
	parsed, err := FromBytes(data)
	if err != nil {
		return err
	}
	*m = *parsed
	return nil
}
