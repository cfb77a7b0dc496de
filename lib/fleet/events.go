// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event-type discriminator constants, matching spec.md §3's "State
// event" tagged union: FileSynced, FileDeleted, FileRenamed,
// DeviceOnline, DeviceOffline, ConflictResolved.
const (
	EventTypeFileSynced       = "file_synced"
	EventTypeFileDeleted      = "file_deleted"
	EventTypeFileRenamed      = "file_renamed"
	EventTypeDeviceOnline     = "device_online"
	EventTypeDeviceOffline    = "device_offline"
	EventTypeConflictResolved = "conflict_resolved"
)

// Event is the envelope every fleet message is published and consumed
// as: a "type" discriminator plus type-specific payload fields. The
// timestamp is wall-clock, for display only — spec.md §3 is explicit
// that it is "not used for ordering" (vector clocks are).
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// FileSynced / FileDeleted / ConflictResolved
	Path string `json:"path,omitempty"`

	// FileSynced (FileHash, VectorClock); DeviceID is set by every
	// constructor.
	FileHash    string            `json:"file_hash,omitempty"`
	VectorClock map[string]uint64 `json:"vector_clock,omitempty"`
	DeviceID    string            `json:"device_id,omitempty"`

	// FileRenamed
	OldPath string `json:"old_path,omitempty"`
	NewPath string `json:"new_path,omitempty"`

	// ConflictResolved
	Chosen   string `json:"chosen,omitempty"`
	Strategy string `json:"strategy,omitempty"`
}

// NewFileSynced constructs a FileSynced event.
func NewFileSynced(path, fileHash string, vectorClock map[string]uint64, deviceID string) Event {
	return Event{
		Type:        EventTypeFileSynced,
		Path:        path,
		FileHash:    fileHash,
		VectorClock: vectorClock,
		DeviceID:    deviceID,
	}
}

// NewFileDeleted constructs a FileDeleted event.
func NewFileDeleted(path, deviceID string) Event {
	return Event{Type: EventTypeFileDeleted, Path: path, DeviceID: deviceID}
}

// NewFileRenamed constructs a FileRenamed event.
func NewFileRenamed(oldPath, newPath, deviceID string) Event {
	return Event{Type: EventTypeFileRenamed, OldPath: oldPath, NewPath: newPath, DeviceID: deviceID}
}

// NewDeviceOnline constructs a DeviceOnline event.
func NewDeviceOnline(deviceID string) Event {
	return Event{Type: EventTypeDeviceOnline, DeviceID: deviceID}
}

// NewDeviceOffline constructs a DeviceOffline event.
func NewDeviceOffline(deviceID string) Event {
	return Event{Type: EventTypeDeviceOffline, DeviceID: deviceID}
}

// NewConflictResolved constructs a ConflictResolved event. chosen is
// the winning device-id; strategy is the resolver that decided it.
func NewConflictResolved(path, chosen, strategy, deviceID string) Event {
	return Event{
		Type:     EventTypeConflictResolved,
		Path:     path,
		Chosen:   chosen,
		Strategy: strategy,
		DeviceID: deviceID,
	}
}

// Marshal serializes e as JSON for publication on the bus.
func (e Event) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshaling fleet event: %w", err)
	}
	return data, nil
}

// UnmarshalEvent parses a fleet event from its wire bytes.
func UnmarshalEvent(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("parsing fleet event: %w", err)
	}
	return e, nil
}

// Subject returns the NATS subject an event of this type, published
// by deviceID, is sent on: "STATE.{device_id}.{event_type}" per
// spec.md §4.6.1.
func Subject(deviceID, eventType string) string {
	return fmt.Sprintf("STATE.%s.%s", deviceID, eventType)
}
