// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chunk

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/zeebo/blake3"
)

// Hash is a 32-byte BLAKE3 digest. Chunk hashes and file hashes share
// the same unkeyed hash space: a file hash is the BLAKE3 digest of the
// file's concatenated plaintext, not a keyed hash over a tree of chunk
// hashes.
type Hash [32]byte

// HashChunk computes the BLAKE3 hash of a chunk's plaintext bytes.
// Chunk hashes are always computed on uncompressed, unencrypted bytes
// so that deduplication is unaffected by codec choices.
func HashChunk(data []byte) Hash {
	return blake3.Sum256(data)
}

// HashFile computes the BLAKE3 hash of a file's full plaintext, given
// in memory as one slice. Callers that see the content chunk by chunk
// use [FileHasher] instead, which yields the same hash.
func HashFile(data []byte) Hash {
	return blake3.Sum256(data)
}

// FileHasher accumulates chunk plaintext incrementally and produces
// the file-level BLAKE3 hash once all chunks have been written. This
// lets callers compute the file hash alongside streaming chunking
// without buffering the whole file a second time.
type FileHasher struct {
	hasher *blake3.Hasher
}

// NewFileHasher creates an empty file hasher.
func NewFileHasher() *FileHasher {
	return &FileHasher{hasher: blake3.New()}
}

// Write feeds chunk plaintext into the running file hash. It never
// returns an error; the signature satisfies [io.Writer].
func (f *FileHasher) Write(data []byte) (int, error) {
	return f.hasher.Write(data)
}

// Sum returns the BLAKE3 hash of everything written so far.
func (f *FileHasher) Sum() Hash {
	var h Hash
	copy(h[:], f.hasher.Sum(nil))
	return h
}

var _ io.Writer = (*FileHasher)(nil)

// FormatHash returns the hex-encoded string representation of a hash.
// This is the canonical format used in manifests, logs, and CLI
// output.
func FormatHash(hash Hash) string {
	return hex.EncodeToString(hash[:])
}

// ParseHash parses a 64-character hex string into a Hash.
func ParseHash(hexString string) (Hash, error) {
	var hash Hash
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return hash, fmt.Errorf("parsing hash: %w", err)
	}
	if len(decoded) != 32 {
		return hash, fmt.Errorf("hash is %d bytes, want 32", len(decoded))
	}
	copy(hash[:], decoded)
	return hash, nil
}

// String returns the hex encoding of the hash, satisfying
// [fmt.Stringer].
func (h Hash) String() string {
	return FormatHash(h)
}

// IsZero reports whether h is the all-zero hash, used as the sentinel
// for "no hash computed yet".
func (h Hash) IsZero() bool {
	return h == Hash{}
}
