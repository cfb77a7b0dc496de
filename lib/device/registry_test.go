// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/tcfs/lib/cas"
	"github.com/tinyland-inc/tcfs/lib/tcfserr"
)

func TestRegistryLoadEmptyWhenNeverWritten(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(cas.NewMemoryStore(), "p")

	identities, err := reg.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, identities)
}

func TestRegistryEnrollAndGet(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(cas.NewMemoryStore(), "p")

	identity := Identity{
		ID:         NewID(),
		Name:       "laptop",
		PublicKey:  []byte("pubkey-bytes"),
		EnrolledAt: time.Unix(0, 0).UTC(),
	}
	require.NoError(t, reg.Enroll(ctx, identity))

	got, err := reg.Get(ctx, identity.ID)
	require.NoError(t, err)
	require.Equal(t, identity.Name, got.Name)
	require.False(t, got.Revoked)
}

func TestRegistryEnrollRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(cas.NewMemoryStore(), "p")

	identity := Identity{ID: NewID(), Name: "laptop"}
	require.NoError(t, reg.Enroll(ctx, identity))

	err := reg.Enroll(ctx, identity)
	require.Error(t, err)
	require.ErrorIs(t, err, tcfserr.ErrConflict)
}

func TestRegistryRevokeFlipsFlagWithoutDeleting(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(cas.NewMemoryStore(), "p")

	identity := Identity{ID: NewID(), Name: "phone"}
	require.NoError(t, reg.Enroll(ctx, identity))
	require.NoError(t, reg.Revoke(ctx, identity.ID))

	got, err := reg.Get(ctx, identity.ID)
	require.NoError(t, err)
	require.True(t, got.Revoked)
	require.Equal(t, identity.Name, got.Name)

	identities, err := reg.Load(ctx)
	require.NoError(t, err)
	require.Len(t, identities, 1)
}

func TestRegistryRevokeUnknownDeviceFails(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(cas.NewMemoryStore(), "p")

	err := reg.Revoke(ctx, NewID())
	require.Error(t, err)
	require.ErrorIs(t, err, tcfserr.ErrNotFound)
}

func TestRegistryGetUnknownDeviceFails(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(cas.NewMemoryStore(), "p")

	_, err := reg.Get(ctx, NewID())
	require.Error(t, err)
	require.ErrorIs(t, err, tcfserr.ErrNotFound)
}

func TestRegistryEnrollMultipleDevices(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(cas.NewMemoryStore(), "p")

	a := Identity{ID: NewID(), Name: "a"}
	b := Identity{ID: NewID(), Name: "b"}
	require.NoError(t, reg.Enroll(ctx, a))
	require.NoError(t, reg.Enroll(ctx, b))

	identities, err := reg.Load(ctx)
	require.NoError(t, err)
	require.Len(t, identities, 2)
}
