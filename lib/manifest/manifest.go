// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tinyland-inc/tcfs/lib/chunk"
	"github.com/tinyland-inc/tcfs/lib/tcfserr"
	"github.com/tinyland-inc/tcfs/lib/vclock"
)

// CurrentVersion is the manifest format version produced by Write.
// Version 1 ("legacy") is read-only — see legacy.go.
const CurrentVersion = 2

// ChunkDescriptor records one chunk's position and framing within a
// file, in the order the chunks appear.
type ChunkDescriptor struct {
	// Index is the zero-based position within the file.
	Index int `json:"index"`
	// Hash is the hex-encoded BLAKE3 hash of the chunk's plaintext —
	// its CAS key.
	Hash string `json:"hash"`
	// Offset is the start byte of this chunk within the file.
	Offset int64 `json:"offset"`
	// Length is the plaintext length of this chunk.
	Length int `json:"length"`
	// CompressedLength is the on-wire length after zstd, before any
	// encryption framing. Equal to Length when Compressed is false.
	CompressedLength int `json:"compressed_length"`
	// Compressed reports whether zstd was applied to this chunk (see
	// spec.md §4.2 — the encoder may emit raw bytes when compression
	// does not shrink the chunk).
	Compressed bool `json:"compressed"`
}

// Manifest is the v2 SyncManifest: the canonical, deterministically
// encoded description of one logical file.
type Manifest struct {
	// Version is always CurrentVersion for a freshly written
	// manifest; Read may also return a Version-1 in-memory
	// representation normalized from the legacy format.
	Version int `json:"version"`
	// FileHash is the hex-encoded BLAKE3 hash over the file's
	// concatenated plaintext.
	FileHash string `json:"file_hash"`
	// FileSize is the total plaintext size; must equal the sum of
	// every chunk's Length.
	FileSize int64 `json:"file_size"`
	// ChunkCount is len(Chunks), recorded redundantly so readers can
	// validate without counting.
	ChunkCount int `json:"chunk_count"`
	// Chunks is the ordered, contiguous, non-overlapping chunk list.
	Chunks []ChunkDescriptor `json:"chunks"`
	// VectorClock is the causal history at the time this manifest
	// was published. encoding/json sorts map keys when marshaling a
	// map[string]T, which is what makes this field deterministic
	// without any extra machinery.
	VectorClock map[string]uint64 `json:"vector_clock"`
	// EncryptedFileKey is the per-file symmetric key, wrapped under
	// the master key, present only when encryption is enabled.
	EncryptedFileKey []byte `json:"encrypted_file_key,omitempty"`
	// MimeType is an optional content-type hint.
	MimeType string `json:"mime_type,omitempty"`
	// ModifiedAt is the source file's modification time.
	ModifiedAt time.Time `json:"modified_at"`
	// WrittenBy is the device-id of the writer that published this
	// manifest, used to break ties in conflict resolution.
	WrittenBy string `json:"written_by,omitempty"`
}

// VectorClockValue returns m's vector clock as a [vclock.Clock] value,
// ready for Compare/Merge/Tick.
func (m *Manifest) VectorClockValue() vclock.Clock {
	c := make(vclock.Clock, len(m.VectorClock))
	for k, v := range m.VectorClock {
		c[vclock.DeviceID(k)] = v
	}
	return c
}

// SetVectorClock stores clk as m's vector clock.
func (m *Manifest) SetVectorClock(clk vclock.Clock) {
	out := make(map[string]uint64, len(clk))
	for k, v := range clk {
		out[string(k)] = v
	}
	m.VectorClock = out
}

// Marshal serializes m as canonical v2 JSON, pretty-printed for
// readability in the object store (the extra whitespace has no effect
// on determinism since it is produced the same way every time).
func (m *Manifest) Marshal() ([]byte, error) {
	m.Version = CurrentVersion
	m.ChunkCount = len(m.Chunks)

	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling manifest: %w", err)
	}
	return out, nil
}

// Validate checks the invariants of spec.md §3: chunks are
// contiguous and non-overlapping starting at offset 0, file_size
// equals the sum of chunk lengths, and chunk_count matches len(Chunks).
func (m *Manifest) Validate() error {
	if m.ChunkCount != len(m.Chunks) {
		return fmt.Errorf("%w: chunk_count %d does not match %d chunks", tcfserr.ErrIntegrity, m.ChunkCount, len(m.Chunks))
	}

	var offset int64
	var total int64
	for i, c := range m.Chunks {
		if c.Index != i {
			return fmt.Errorf("%w: chunk at position %d has index %d", tcfserr.ErrIntegrity, i, c.Index)
		}
		if c.Offset != offset {
			return fmt.Errorf("%w: chunk %d offset %d does not follow previous chunk (expected %d)", tcfserr.ErrIntegrity, i, c.Offset, offset)
		}
		if c.Length <= 0 {
			return fmt.Errorf("%w: chunk %d has non-positive length %d", tcfserr.ErrIntegrity, i, c.Length)
		}
		offset += int64(c.Length)
		total += int64(c.Length)
	}

	if total != m.FileSize {
		return fmt.Errorf("%w: file_size %d does not match sum of chunk lengths %d", tcfserr.ErrIntegrity, m.FileSize, total)
	}

	if _, err := chunk.ParseHash(m.FileHash); err != nil {
		return fmt.Errorf("%w: invalid file_hash: %v", tcfserr.ErrIntegrity, err)
	}

	return nil
}

// VerifyFileHash recomputes BLAKE3 over reassembled plaintext and
// compares it against m.FileHash, per spec.md §4.3's "manifest's own
// file_hash is also verified by hashing the reassembled plaintext
// after pull".
func (m *Manifest) VerifyFileHash(plaintext []byte) error {
	got := chunk.HashFile(plaintext)
	if got.String() != m.FileHash {
		return fmt.Errorf("%w: reassembled file hash %s does not match manifest file_hash %s", tcfserr.ErrIntegrity, got, m.FileHash)
	}
	return nil
}
