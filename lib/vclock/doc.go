// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package vclock implements the vector-clock algebra used to detect
// concurrent edits across devices: tick, merge, and partial-order
// comparison. It is grounded on the conflict-detection vector clock
// in the original Rust sync engine, re-expressed as an immutable Go
// value type rather than a mutable BTreeMap.
package vclock
