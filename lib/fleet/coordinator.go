// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tinyland-inc/tcfs/lib/statecache"
	"github.com/tinyland-inc/tcfs/lib/vclock"
)

// PullFunc performs the pull/auto-pull sequence of spec.md §4.6.3 for
// one path once the coordinator has decided a remote update applies:
// fetch the remote manifest's chunks, reassemble, verify, and replace
// the local file atomically. fileHash identifies the remote manifest
// to fetch (manifests are content-addressed, not path-addressed, so
// the coordinator must carry it through from the triggering event).
type PullFunc func(ctx context.Context, path, fileHash, remoteDeviceID string) error

// ConflictFunc resolves a Concurrent conflict on path once a Resolver
// has decided the outcome, per spec.md §4.6.4: it must preserve
// whichever side loses as a sibling file rather than discard it, and
// adopt the winning side at path when the remote manifest won.
type ConflictFunc func(ctx context.Context, path, fileHash, remoteDeviceID string, resolution Resolution) error

// Coordinator runs the auto-pull loop: it subscribes to the fleet bus
// and, for every FileSynced event whose vector clock is strictly
// after the locally known one, invokes PullFunc; for Concurrent
// clocks, it invokes the configured Resolver and then ConflictFunc to
// carry out whatever the resolver decided.
type Coordinator struct {
	bus             Bus
	backend         statecache.Backend
	resolver        Resolver
	pull            PullFunc
	resolveConflict ConflictFunc
	selfID          string
	log             *slog.Logger
}

// NewCoordinator wires a fleet bus, state cache backend, conflict
// resolver, pull callback, and conflict-resolution callback into an
// auto-pull loop for device selfID.
func NewCoordinator(bus Bus, backend statecache.Backend, resolver Resolver, pull PullFunc, resolveConflict ConflictFunc, selfID string, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{bus: bus, backend: backend, resolver: resolver, pull: pull, resolveConflict: resolveConflict, selfID: selfID, log: log}
}

// Run subscribes the coordinator as a durable consumer named after
// its device id and processes events until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) error {
	return c.bus.Subscribe(ctx, c.selfID, c.handle)
}

func (c *Coordinator) handle(ctx context.Context, event Event) error {
	switch event.Type {
	case EventTypeFileSynced:
		return c.handleFileSynced(ctx, event)
	case EventTypeFileDeleted, EventTypeFileRenamed, EventTypeDeviceOnline,
		EventTypeDeviceOffline, EventTypeConflictResolved:
		// Handled by higher-level sync engine wiring (state-cache
		// path remapping, presence tracking, clock merge on
		// resolution); the coordinator's own responsibility per
		// spec.md §4.6 is the auto-pull loop.
		return nil
	default:
		c.log.Warn("ignoring unknown fleet event type", "type", event.Type)
		return nil
	}
}

func (c *Coordinator) handleFileSynced(ctx context.Context, event Event) error {
	if event.DeviceID == c.selfID {
		return nil
	}

	remoteClock := make(vclock.Clock, len(event.VectorClock))
	for k, v := range event.VectorClock {
		remoteClock[vclock.DeviceID(k)] = v
	}

	cached, ok := c.backend.Get(event.Path)
	localClock := vclock.New()
	if ok {
		for k, v := range cached.VectorClock {
			localClock[vclock.DeviceID(k)] = v
		}
	}

	ordering := remoteClock.Compare(localClock)

	if _, shouldApply := ClassifyRemoteUpdate(ordering); shouldApply {
		if err := c.pull(ctx, event.Path, event.FileHash, event.DeviceID); err != nil {
			return fmt.Errorf("pulling %s from %s: %w", event.Path, event.DeviceID, err)
		}
		return nil
	}

	switch ordering {
	case vclock.Equal, vclock.Before:
		return nil

	case vclock.Concurrent:
		conflict := ConflictInfo{
			Path:         event.Path,
			LocalClock:   cached.VectorClock,
			RemoteClock:  event.VectorClock,
			LocalHash:    cached.FileHash,
			RemoteHash:   event.FileHash,
			LocalDevice:  c.selfID,
			RemoteDevice: event.DeviceID,
		}

		resolution := c.resolver.Resolve(conflict)
		if err := c.resolveConflict(ctx, event.Path, event.FileHash, event.DeviceID, resolution); err != nil {
			return fmt.Errorf("resolving conflict for %s: %w", event.Path, err)
		}
		return nil

	default:
		return fmt.Errorf("unrecognized vector clock ordering %v for %s", ordering, event.Path)
	}
}
