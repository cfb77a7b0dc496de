// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package device implements device identity: the persistent record of
// a device-id, human-readable name, public key, enrollment timestamp,
// and revoked flag described by spec.md §3's "Device identity" data
// model entry. Identities live in a single append-mostly registry
// blob in the object store, mutated only by enrolling a new device or
// flipping an existing one's revoked flag — never deleted in place.
package device
