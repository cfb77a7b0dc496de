// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chunkcodec

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/tinyland-inc/tcfs/lib/chunk"
	"github.com/tinyland-inc/tcfs/lib/secret"
	"github.com/tinyland-inc/tcfs/lib/tcfserr"
)

// NonceSize is the XChaCha20-Poly1305 nonce length used for every
// encrypted chunk frame.
const NonceSize = chacha20poly1305.NonceSizeX

// TagSize is the Poly1305 authentication tag length appended to every
// encrypted chunk frame.
const TagSize = chacha20poly1305.Overhead

// EncodeChunk compresses plaintext and, if fileKey is non-nil,
// encrypts it. The returned wire bytes are what gets stored at
// {prefix}/chunks/{hex(hash)} in the CAS; compressed reports whether
// zstd was applied, matching spec.md §4.2's "encoder may emit raw"
// clause — callers record this flag in the manifest, not the blob,
// so blob identity stays BLAKE3(plaintext).
//
// When fileKey is non-nil, the AEAD binds to index and fileHash as
// associated data, so a chunk frame cannot be replayed at a different
// position or under a different file.
func EncodeChunk(plaintext []byte, index int, fileHash chunk.Hash, fileKey *secret.Buffer) (wire []byte, compressed bool, err error) {
	compressedData, compressed := compressChunk(plaintext)

	if fileKey == nil {
		return compressedData, compressed, nil
	}

	aad := buildChunkAAD(index, fileHash)
	wire, err = encryptBlob(compressedData, fileKey, aad)
	if err != nil {
		return nil, false, fmt.Errorf("chunkcodec: encrypting chunk %d: %w", index, err)
	}
	return wire, compressed, nil
}

// DecodeChunk reverses EncodeChunk. plaintextLen must be the original
// chunk's plaintext length (recorded in the manifest's chunk
// descriptor) so the decompressor can validate its output size.
//
// A tag or AAD mismatch is reported as [tcfserr.ErrIntegrity] and the
// chunk is discarded without attempting any further parsing.
func DecodeChunk(wire []byte, index int, fileHash chunk.Hash, fileKey *secret.Buffer, compressed bool, plaintextLen int) ([]byte, error) {
	compressedData := wire

	if fileKey != nil {
		aad := buildChunkAAD(index, fileHash)
		var err error
		compressedData, err = decryptBlob(wire, fileKey, aad)
		if err != nil {
			return nil, fmt.Errorf("chunkcodec: decrypting chunk %d: %w", index, err)
		}
	}

	plaintext, err := decompressChunk(compressedData, compressed, plaintextLen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tcfserr.ErrIntegrity, err)
	}
	return plaintext, nil
}

// buildChunkAAD constructs the AEAD associated data for a chunk:
// its big-endian chunk index followed by the owning file's hash. This
// prevents an attacker (or a storage bug) from substituting a chunk
// from a different file, or from a different position within the
// same file, without detection.
func buildChunkAAD(index int, fileHash chunk.Hash) []byte {
	aad := make([]byte, 8+len(fileHash))
	binary.BigEndian.PutUint64(aad[:8], uint64(index))
	copy(aad[8:], fileHash[:])
	return aad
}

// encryptBlob seals plaintext under key with a fresh random nonce,
// returning [nonce][ciphertext][tag].
func encryptBlob(plaintext []byte, key *secret.Buffer, aad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key.Bytes())
	if err != nil {
		return nil, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	out := make([]byte, NonceSize, NonceSize+len(plaintext)+aead.Overhead())
	copy(out, nonce)
	out = aead.Seal(out, nonce, plaintext, aad)
	return out, nil
}

// decryptBlob reverses encryptBlob.
func decryptBlob(wire []byte, key *secret.Buffer, aad []byte) ([]byte, error) {
	if len(wire) < NonceSize+TagSize {
		return nil, fmt.Errorf("%w: encrypted frame is %d bytes, minimum is %d", tcfserr.ErrIntegrity, len(wire), NonceSize+TagSize)
	}

	aead, err := chacha20poly1305.NewX(key.Bytes())
	if err != nil {
		return nil, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}

	nonce := wire[:NonceSize]
	ciphertext := wire[NonceSize:]

	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("%w: AEAD authentication failed", tcfserr.ErrIntegrity)
	}
	return plaintext, nil
}
