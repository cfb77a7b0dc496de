// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import "context"

// Handler processes one delivered event. Returning an error leaves
// the event unacked so the bus redelivers it, matching spec.md
// §4.6.1's "redelivered on crash between receive and ack."
type Handler func(ctx context.Context, event Event) error

// Bus is the durable pub/sub contract the sync engine publishes to
// and subscribes from. Implementations must provide at-least-once
// delivery and a durable, per-consumer cursor that survives restart.
type Bus interface {
	// Publish sends event on behalf of deviceID, at-least-once.
	Publish(ctx context.Context, deviceID string, event Event) error
	// Subscribe registers handler as the durable consumer named
	// consumerName, receiving every event published under
	// "STATE.*.*". A device typically runs one subscription per
	// process, naming the consumer after its own device id.
	Subscribe(ctx context.Context, consumerName string, handler Handler) error
	// Close releases the bus connection.
	Close() error
}
