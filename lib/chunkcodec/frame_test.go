// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chunkcodec

import (
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/tcfs/lib/chunk"
	"github.com/tinyland-inc/tcfs/lib/tcfserr"
)

func TestRoundTripWithoutEncryption(t *testing.T) {
	plaintext := []byte("the quick brown fox jumps over the lazy dog, repeated. " +
		"the quick brown fox jumps over the lazy dog, repeated.")
	fileHash := chunk.HashFile(plaintext)

	wire, compressed, err := EncodeChunk(plaintext, 0, fileHash, nil)
	require.NoError(t, err)

	decoded, err := DecodeChunk(wire, 0, fileHash, nil, compressed, len(plaintext))
	require.NoError(t, err)
	require.Equal(t, plaintext, decoded)
}

func TestRoundTripWithEncryption(t *testing.T) {
	plaintext := make([]byte, 32*1024)
	_, err := rand.Read(plaintext)
	require.NoError(t, err)
	fileHash := chunk.HashFile(plaintext)

	fileKey, err := GenerateFileKey()
	require.NoError(t, err)
	defer fileKey.Close()

	wire, compressed, err := EncodeChunk(plaintext, 3, fileHash, fileKey)
	require.NoError(t, err)

	decoded, err := DecodeChunk(wire, 3, fileHash, fileKey, compressed, len(plaintext))
	require.NoError(t, err)
	require.Equal(t, plaintext, decoded)
}

func TestDecodeFailsWithWrongKey(t *testing.T) {
	plaintext := []byte("secret content")
	fileHash := chunk.HashFile(plaintext)

	fileKey, err := GenerateFileKey()
	require.NoError(t, err)
	defer fileKey.Close()

	otherKey, err := GenerateFileKey()
	require.NoError(t, err)
	defer otherKey.Close()

	wire, compressed, err := EncodeChunk(plaintext, 0, fileHash, fileKey)
	require.NoError(t, err)

	_, err = DecodeChunk(wire, 0, fileHash, otherKey, compressed, len(plaintext))
	require.Error(t, err)
	require.True(t, errors.Is(err, tcfserr.ErrIntegrity))
}

func TestDecodeFailsWithWrongChunkIndex(t *testing.T) {
	plaintext := []byte("secret content at a specific position")
	fileHash := chunk.HashFile(plaintext)

	fileKey, err := GenerateFileKey()
	require.NoError(t, err)
	defer fileKey.Close()

	wire, compressed, err := EncodeChunk(plaintext, 5, fileHash, fileKey)
	require.NoError(t, err)

	_, err = DecodeChunk(wire, 6, fileHash, fileKey, compressed, len(plaintext))
	require.Error(t, err)
	require.True(t, errors.Is(err, tcfserr.ErrIntegrity))
}

func TestDecodeFailsWithWrongFileHash(t *testing.T) {
	plaintext := []byte("secret content bound to a file")
	fileHash := chunk.HashFile(plaintext)
	otherHash := chunk.HashFile([]byte("a different file"))

	fileKey, err := GenerateFileKey()
	require.NoError(t, err)
	defer fileKey.Close()

	wire, compressed, err := EncodeChunk(plaintext, 0, fileHash, fileKey)
	require.NoError(t, err)

	_, err = DecodeChunk(wire, 0, otherHash, fileKey, compressed, len(plaintext))
	require.Error(t, err)
	require.True(t, errors.Is(err, tcfserr.ErrIntegrity))
}

func TestWrapUnwrapFileKey(t *testing.T) {
	masterKey, err := GenerateFileKey()
	require.NoError(t, err)
	defer masterKey.Close()

	fileKey, err := GenerateFileKey()
	require.NoError(t, err)
	defer fileKey.Close()

	fileHash := chunk.HashFile([]byte("some file content"))

	wrapped, err := WrapFileKey(masterKey, fileHash, fileKey)
	require.NoError(t, err)

	unwrapped, err := UnwrapFileKey(masterKey, fileHash, wrapped)
	require.NoError(t, err)
	defer unwrapped.Close()

	require.True(t, unwrapped.Equal(fileKey.Bytes()))
}

func TestUnwrapFileKeyFailsUnderDifferentFileHash(t *testing.T) {
	masterKey, err := GenerateFileKey()
	require.NoError(t, err)
	defer masterKey.Close()

	fileKey, err := GenerateFileKey()
	require.NoError(t, err)
	defer fileKey.Close()

	wrapped, err := WrapFileKey(masterKey, chunk.HashFile([]byte("file a")), fileKey)
	require.NoError(t, err)

	_, err = UnwrapFileKey(masterKey, chunk.HashFile([]byte("file b")), wrapped)
	require.Error(t, err)
}

func TestIncompressibleDataStoredRaw(t *testing.T) {
	random := make([]byte, 16*1024)
	_, err := rand.Read(random)
	require.NoError(t, err)
	fileHash := chunk.HashFile(random)

	wire, compressed, err := EncodeChunk(random, 0, fileHash, nil)
	require.NoError(t, err)
	require.False(t, compressed)
	require.Equal(t, random, wire)
}
