// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fleet implements the fleet coordinator: the durable event
// bus devices use to announce synced/deleted/renamed files, presence,
// and conflict resolutions (spec.md §4.6), plus the conflict resolver
// and per-file state machine that consume those events.
//
// The event bus is NATS JetStream, confirmed by
// original_source/crates/tcfs-sync/src/nats.rs, generalized to the
// subject hierarchy spec.md §4.6.1 names: one durable stream per fleet
// namespace, one durable named consumer per device.
package fleet
