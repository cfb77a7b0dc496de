// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"context"
	"fmt"

	"github.com/tinyland-inc/tcfs/lib/cas"
	"github.com/tinyland-inc/tcfs/lib/chunk"
)

// Store persists and retrieves manifests, keyed by file hash per
// spec.md §9's resolution of the manifest-naming open question
// (file-hash is the canonical manifest key; the state cache maps
// local paths to file hashes).
type Store struct {
	objects cas.Store
	prefix  string
}

// NewStore wraps a CAS object store as a manifest store under prefix.
func NewStore(objects cas.Store, prefix string) *Store {
	return &Store{objects: objects, prefix: prefix}
}

// Write serializes m as canonical v2 JSON and uploads it to
// {prefix}/manifests/{file_hash}, returning once the CAS backend acks
// the write durably.
func (s *Store) Write(ctx context.Context, m *Manifest) error {
	data, err := m.Marshal()
	if err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}

	if err := m.Validate(); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}

	fileHash, err := chunk.ParseHash(m.FileHash)
	if err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}

	if err := s.objects.Put(ctx, cas.ManifestKey(s.prefix, fileHash), data); err != nil {
		return fmt.Errorf("writing manifest %s: %w", m.FileHash, err)
	}
	return nil
}

// Read downloads and parses the manifest for fileHash, transparently
// handling v1-vs-v2 detection and validating v2 invariants.
func (s *Store) Read(ctx context.Context, fileHash chunk.Hash) (*Manifest, error) {
	data, err := s.objects.Get(ctx, cas.ManifestKey(s.prefix, fileHash))
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", fileHash, err)
	}

	m, err := FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", fileHash, err)
	}

	if !m.IsLegacy() {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("validating manifest %s: %w", fileHash, err)
		}
	}

	return m, nil
}

// Exists reports whether a manifest for fileHash has been written.
func (s *Store) Exists(ctx context.Context, fileHash chunk.Hash) (bool, error) {
	exists, err := s.objects.Exists(ctx, cas.ManifestKey(s.prefix, fileHash))
	if err != nil {
		return false, fmt.Errorf("checking manifest %s existence: %w", fileHash, err)
	}
	return exists, nil
}

// ListAll returns every manifest key under the store's prefix, for
// maintenance tasks (e.g. a future CAS garbage collector) that need to
// enumerate manifests directly rather than through path pointers.
// Reconciliation (spec.md §4.6.1, scenario S5) uses ListPointers
// instead, since a bare manifest key carries no path to reconcile
// against.
func (s *Store) ListAll(ctx context.Context) ([]string, error) {
	keys, err := s.objects.List(ctx, cas.ManifestsPrefix(s.prefix))
	if err != nil {
		return nil, fmt.Errorf("listing manifests: %w", err)
	}
	return keys, nil
}
