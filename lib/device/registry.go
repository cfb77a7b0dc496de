// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tinyland-inc/tcfs/lib/cas"
	"github.com/tinyland-inc/tcfs/lib/tcfserr"
)

// Registry is the fleet-wide device identity list, persisted as a
// single JSON blob in CAS under {prefix}/devices/registry.
type Registry struct {
	objects cas.Store
	prefix  string
}

// NewRegistry wraps a CAS object store as a device registry.
func NewRegistry(objects cas.Store, prefix string) *Registry {
	return &Registry{objects: objects, prefix: prefix}
}

// Load reads and parses the registry, returning an empty list if none
// has been written yet.
func (r *Registry) Load(ctx context.Context) ([]Identity, error) {
	data, err := r.objects.Get(ctx, cas.DeviceRegistryKey(r.prefix))
	if err != nil {
		if errors.Is(err, tcfserr.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading device registry: %w", err)
	}

	var identities []Identity
	if err := json.Unmarshal(data, &identities); err != nil {
		return nil, fmt.Errorf("%w: parsing device registry: %v", tcfserr.ErrIntegrity, err)
	}
	return identities, nil
}

func (r *Registry) save(ctx context.Context, identities []Identity) error {
	data, err := json.MarshalIndent(identities, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing device registry: %w", err)
	}
	if err := r.objects.Put(ctx, cas.DeviceRegistryKey(r.prefix), data); err != nil {
		return fmt.Errorf("writing device registry: %w", err)
	}
	return nil
}

// Enroll appends a new identity to the registry. Returns an error if
// a device with the same ID is already present.
func (r *Registry) Enroll(ctx context.Context, identity Identity) error {
	identities, err := r.Load(ctx)
	if err != nil {
		return err
	}

	for _, existing := range identities {
		if existing.ID == identity.ID {
			return fmt.Errorf("%w: device %s is already enrolled", tcfserr.ErrConflict, identity.ID)
		}
	}

	identities = append(identities, identity)
	return r.save(ctx, identities)
}

// Revoke flips the revoked flag for id. Returns tcfserr.ErrNotFound if
// no such device is enrolled.
func (r *Registry) Revoke(ctx context.Context, id ID) error {
	identities, err := r.Load(ctx)
	if err != nil {
		return err
	}

	found := false
	for i := range identities {
		if identities[i].ID == id {
			identities[i].Revoked = true
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: device %s is not enrolled", tcfserr.ErrNotFound, id)
	}

	return r.save(ctx, identities)
}

// Get returns the identity for id, if enrolled.
func (r *Registry) Get(ctx context.Context, id ID) (Identity, error) {
	identities, err := r.Load(ctx)
	if err != nil {
		return Identity{}, err
	}
	for _, identity := range identities {
		if identity.ID == id {
			return identity, nil
		}
	}
	return Identity{}, fmt.Errorf("%w: device %s is not enrolled", tcfserr.ErrNotFound, id)
}
