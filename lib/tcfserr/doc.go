// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tcfserr defines the error kinds shared across the sync
// core: Io, Transport, NotFound, Integrity, Conflict, Config, and
// Cancelled. Components wrap an underlying cause with one of the
// sentinel errors via fmt.Errorf("...: %w", ...) so that callers can
// classify a failure with errors.Is/errors.As without the core
// depending on any particular RPC or status-code surface.
package tcfserr
