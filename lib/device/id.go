// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"fmt"

	"github.com/google/uuid"
)

// ID is an opaque device identifier: a UUID generated at enrollment.
// The wrapper type exists to prevent accidental confusion with other
// string-shaped identifiers (paths, hashes, manifest keys) at compile
// time.
type ID struct {
	id string
}

// NewID generates a fresh, random device ID.
func NewID() ID {
	return ID{id: uuid.NewString()}
}

// ParseID constructs an ID from a raw string. Returns an error if the
// string is empty or not a well-formed UUID.
func ParseID(raw string) (ID, error) {
	if raw == "" {
		return ID{}, fmt.Errorf("device id is empty")
	}
	if _, err := uuid.Parse(raw); err != nil {
		return ID{}, fmt.Errorf("device id %q is not a valid uuid: %w", raw, err)
	}
	return ID{id: raw}, nil
}

// String returns the raw device id string.
func (d ID) String() string {
	return d.id
}

// IsZero reports whether d is the zero value.
func (d ID) IsZero() bool {
	return d.id == ""
}

// MarshalText implements encoding.TextMarshaler.
func (d ID) MarshalText() ([]byte, error) {
	if d.id == "" {
		return nil, fmt.Errorf("cannot marshal zero device id")
	}
	return []byte(d.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// produces the zero value.
func (d *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*d = ID{}
		return nil
	}
	parsed, err := ParseID(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
