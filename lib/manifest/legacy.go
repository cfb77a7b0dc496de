// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tinyland-inc/tcfs/lib/tcfserr"
)

// legacyVersion is the version value recognized as v1 (legacy) text.
const legacyVersion = "1"

// looksLikeLegacy reports whether data appears to be the v1
// newline-delimited header format rather than v2 JSON: v2 always
// starts (after optional whitespace) with '{'.
func looksLikeLegacy(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] != '{'
}

// parseLegacy parses the v1 newline-delimited manifest format:
// "key: value" lines for version, chunks (comma-separated hex
// hashes), compressed, fetched, oid, origin, size. On read, a v1
// manifest is normalized into a v2 in-memory representation with an
// empty vector clock and no encrypted file key, per spec.md §4.4.
func parseLegacy(data []byte) (*Manifest, error) {
	fields := make(map[string]string)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("%w: legacy manifest line %q is not \"key: value\"", tcfserr.ErrIntegrity, line)
		}
		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading legacy manifest: %w", err)
	}

	if fields["version"] != legacyVersion {
		return nil, fmt.Errorf("%w: unrecognized legacy manifest version %q", tcfserr.ErrIntegrity, fields["version"])
	}

	size, err := strconv.ParseInt(fields["size"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing legacy size: %v", tcfserr.ErrIntegrity, err)
	}

	var chunkHashes []string
	if raw := fields["chunks"]; raw != "" {
		chunkHashes = strings.Split(raw, ",")
	}

	m := &Manifest{
		Version:     1,
		FileHash:    fields["oid"],
		FileSize:    size,
		ChunkCount:  len(chunkHashes),
		VectorClock: map[string]uint64{},
	}

	// The legacy format records only whole-file size and an "oid"
	// (whole-file hash) — not per-chunk offsets/lengths. Normalized
	// chunk descriptors are therefore reference-only (hash lookup);
	// downstream code must not treat Offset/Length on a
	// normalized-from-v1 manifest as trustworthy.
	for i, h := range chunkHashes {
		m.Chunks = append(m.Chunks, ChunkDescriptor{
			Index: i,
			Hash:  strings.TrimSpace(h),
		})
	}

	return m, nil
}

// FromBytes parses manifest bytes, detecting v1 vs v2 automatically.
// A v1 manifest is normalized into the v2 in-memory representation
// with an empty vector clock and no encrypted file key. On write,
// only v2 is ever produced — see [Manifest.Marshal].
func FromBytes(data []byte) (*Manifest, error) {
	if looksLikeLegacy(data) {
		return parseLegacy(data)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parsing v2 manifest: %v", tcfserr.ErrIntegrity, err)
	}
	return &m, nil
}

// IsLegacy reports whether m was parsed from the v1 format.
func (m *Manifest) IsLegacy() bool {
	return m.Version == 1
}
