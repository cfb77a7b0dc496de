// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"context"
	"sync"
)

// MemoryBus is an in-process [Bus] implementation for tests: events
// published are delivered synchronously, in publish order, to every
// subscribed handler. It does not model redelivery-on-crash or
// per-consumer cursors — those are NatsBus-specific durability
// properties this fake does not need to reproduce for unit tests of
// event-driven logic.
type MemoryBus struct {
	mu       sync.Mutex
	handlers map[string]Handler
	order    []string
}

// NewMemoryBus creates an empty in-memory bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{handlers: make(map[string]Handler)}
}

func (b *MemoryBus) Publish(ctx context.Context, deviceID string, event Event) error {
	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.handlers))
	for _, name := range b.order {
		handlers = append(handlers, b.handlers[name])
	}
	b.mu.Unlock()

	for _, h := range handlers {
		if err := h(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(_ context.Context, consumerName string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.handlers[consumerName]; !exists {
		b.order = append(b.order, consumerName)
	}
	b.handlers[consumerName] = handler
	return nil
}

func (b *MemoryBus) Close() error {
	return nil
}

var _ Bus = (*MemoryBus)(nil)
