// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package statecache

// Status is the local sync status of one cached path.
type Status string

const (
	// StatusSynced means the local file matches the last-known remote
	// manifest for this path.
	StatusSynced Status = "synced"
	// StatusModifiedLocal means the local file has changed since the
	// last successful push.
	StatusModifiedLocal Status = "modified_local"
	// StatusPendingUpload means a push is in flight or queued.
	StatusPendingUpload Status = "pending_upload"
	// StatusPendingDownload means a pull is in flight or queued.
	StatusPendingDownload Status = "pending_download"
	// StatusConflict means the local and remote vector clocks are
	// Concurrent and have not yet been resolved.
	StatusConflict Status = "conflict"
)

// Entry is one state-cache record: everything needed to decide
// whether a local path needs to be pushed or pulled without touching
// the network, per spec.md §3.
type Entry struct {
	// RemoteKey is the manifest's CAS key (its file hash, hex-encoded).
	RemoteKey string `json:"remote_key"`
	// FileHash is the hex-encoded BLAKE3 hash of the local file's
	// plaintext as of the last successful sync.
	FileHash string `json:"file_hash"`
	// Size is the local file's size in bytes as of the last successful
	// sync.
	Size int64 `json:"size"`
	// VectorClock is the last-known vector clock for this path,
	// serialized as device-id to counter.
	VectorClock map[string]uint64 `json:"vector_clock"`
	// Status is the path's current sync status.
	Status Status `json:"status"`
}

// Clone returns a deep copy of e so callers can mutate the copy
// without affecting any value still held by a [Backend].
func (e Entry) Clone() Entry {
	clock := make(map[string]uint64, len(e.VectorClock))
	for k, v := range e.VectorClock {
		clock[k] = v
	}
	e.VectorClock = clock
	return e
}
