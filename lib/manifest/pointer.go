// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tinyland-inc/tcfs/lib/cas"
	"github.com/tinyland-inc/tcfs/lib/tcfserr"
)

// Pointer records the current manifest for one local path, closing
// the gap left by content-addressed manifests having no path of their
// own (see [cas.PathPointerKey] and spec.md §9's manifest-naming note).
// WritePointer is called by syncengine after every successful push;
// ListPointers drives the reconciliation pass of spec.md S5.
type Pointer struct {
	Path     string `json:"path"`
	FileHash string `json:"file_hash"`
}

// WritePointer stores path's current file hash at its pointer key.
func (s *Store) WritePointer(ctx context.Context, path, fileHash string) error {
	data, err := json.Marshal(Pointer{Path: path, FileHash: fileHash})
	if err != nil {
		return fmt.Errorf("marshaling pointer for %s: %w", path, err)
	}

	if err := s.objects.Put(ctx, cas.PathPointerKey(s.prefix, path), data); err != nil {
		return fmt.Errorf("writing pointer for %s: %w", path, err)
	}
	return nil
}

// ReadPointer returns path's current pointer record.
func (s *Store) ReadPointer(ctx context.Context, path string) (Pointer, error) {
	data, err := s.objects.Get(ctx, cas.PathPointerKey(s.prefix, path))
	if err != nil {
		return Pointer{}, fmt.Errorf("reading pointer for %s: %w", path, err)
	}

	var p Pointer
	if err := json.Unmarshal(data, &p); err != nil {
		return Pointer{}, fmt.Errorf("%w: parsing pointer for %s: %v", tcfserr.ErrIntegrity, path, err)
	}
	return p, nil
}

// ListPointers returns every path pointer under the store's prefix,
// for the reconciliation pass of spec.md S5.
func (s *Store) ListPointers(ctx context.Context) ([]Pointer, error) {
	keys, err := s.objects.List(ctx, cas.PathPointersPrefix(s.prefix))
	if err != nil {
		return nil, fmt.Errorf("listing pointers: %w", err)
	}

	pointers := make([]Pointer, 0, len(keys))
	for _, key := range keys {
		data, err := s.objects.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("reading pointer %s: %w", key, err)
		}

		var p Pointer
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%w: parsing pointer %s: %v", tcfserr.ErrIntegrity, key, err)
		}
		pointers = append(pointers, p)
	}
	return pointers, nil
}
