// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tcfserr

import "errors"

// Sentinel errors for the kinds in spec §7. Wrap one of these with
// fmt.Errorf("doing x: %w", ErrNotFound) to produce a classifiable
// error; use Kind to recover the classification.
var (
	// ErrIo marks a local filesystem failure. The affected operation
	// is aborted and the error surfaces to the caller; it is never
	// retried automatically.
	ErrIo = errors.New("io error")

	// ErrTransport marks an object-store or event-bus transient
	// error. Retried with backoff by the CAS client; after budget
	// exhaustion the wrapping error surfaces unchanged.
	ErrTransport = errors.New("transport error")

	// ErrNotFound marks a missing key. Never retried. A missing
	// chunk during pull is fatal for that file; a missing manifest
	// during reconciliation is expected and not an error condition
	// on its own.
	ErrNotFound = errors.New("not found")

	// ErrIntegrity marks a hash, tag, or invariant mismatch. Never
	// retried; always logged and surfaced.
	ErrIntegrity = errors.New("integrity error")

	// ErrConflict marks a conflicting state. The device registry
	// returns it when an already-enrolled device id is enrolled again.
	// A Defer conflict resolution is not reported with it: the sync
	// engine returns nil and leaves the file as it is.
	ErrConflict = errors.New("conflict")

	// ErrConfig marks malformed configuration or a missing
	// credential. Fatal at startup.
	ErrConfig = errors.New("config error")

	// ErrCancelled marks cooperative cancellation. Not logged as an
	// error.
	ErrCancelled = errors.New("cancelled")
)

// Kind classifies err against the sentinel errors above, in the
// order listed, using errors.Is. It returns "" if err does not wrap
// any recognized sentinel.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrIo):
		return "io"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrIntegrity):
		return "integrity"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrConfig):
		return "config"
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	default:
		return ""
	}
}

// IsRetryable reports whether err should be retried by the CAS
// client's backoff loop: transport errors only.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransport)
}
