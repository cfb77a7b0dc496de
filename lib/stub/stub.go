// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stub

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tinyland-inc/tcfs/lib/tcfserr"
)

// FormatVersion is the stub document version written by this package.
const FormatVersion = 1

// FileExt and DirExt are the extension conventions that mark a stub,
// per spec.md §6: ".tc" for a file stub, ".tcf" for a directory stub.
const (
	FileExt = ".tc"
	DirExt  = ".tcf"
)

// File is the stub document for a single not-yet-hydrated file.
type File struct {
	// Version is the stub format version; readers reject any value
	// they do not recognize rather than guess at the layout.
	Version int `json:"version"`
	// FileHash is the hex-encoded BLAKE3 hash of the original
	// plaintext, used to resolve the manifest in CAS.
	FileHash string `json:"file_hash"`
	// Name is the original file name (not a path).
	Name string `json:"name"`
	// Size is the original plaintext size in bytes.
	Size int64 `json:"size"`
	// ModifiedAt is the original file's modification time.
	ModifiedAt time.Time `json:"modified_at"`
	// ChunkCount is the number of chunks recorded in the manifest.
	ChunkCount int `json:"chunk_count"`
	// ManifestKey is the object-store key of the file's manifest.
	ManifestKey string `json:"manifest_key"`
	// RemotePrefix is the storage prefix chunks and the manifest were
	// uploaded under.
	RemotePrefix string `json:"remote_prefix"`
	// MimeType is an optional content-type hint.
	MimeType string `json:"mime_type,omitempty"`
}

// DirEntry is one child of a directory stub: either a nested
// directory stub or a file stub, distinguished by IsDir.
type DirEntry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
}

// Dir is the stub document for a directory, listing its immediate
// children by name so a listing does not require hydrating anything.
type Dir struct {
	Version int        `json:"version"`
	Name    string     `json:"name"`
	Entries []DirEntry `json:"entries"`
}

// MarshalFile serializes a file stub as indented JSON.
func MarshalFile(s *File) ([]byte, error) {
	s.Version = FormatVersion
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling file stub: %w", err)
	}
	return data, nil
}

// UnmarshalFile parses a file stub document, rejecting any version it
// does not recognize.
func UnmarshalFile(data []byte) (*File, error) {
	var s File
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: parsing file stub: %v", tcfserr.ErrIntegrity, err)
	}
	if s.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported file stub version %d", tcfserr.ErrIntegrity, s.Version)
	}
	return &s, nil
}

// MarshalDir serializes a directory stub as indented JSON.
func MarshalDir(d *Dir) ([]byte, error) {
	d.Version = FormatVersion
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling directory stub: %w", err)
	}
	return data, nil
}

// UnmarshalDir parses a directory stub document, rejecting any
// version it does not recognize.
func UnmarshalDir(data []byte) (*Dir, error) {
	var d Dir
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: parsing directory stub: %v", tcfserr.ErrIntegrity, err)
	}
	if d.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported directory stub version %d", tcfserr.ErrIntegrity, d.Version)
	}
	return &d, nil
}

// LooksLikeStub reports whether name's extension marks it as a stub,
// the first half of spec.md §6's "detected by extension and by a
// version header" contract.
func LooksLikeStub(name string) bool {
	return hasExt(name, FileExt) || hasExt(name, DirExt)
}

func hasExt(name, ext string) bool {
	if len(name) < len(ext) {
		return false
	}
	return name[len(name)-len(ext):] == ext
}
