// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Tcfsd is the tcfs sync daemon. It loads its configuration, wires the
// CAS, manifest, state-cache, and fleet-bus components into a
// [syncengine.Engine], runs the fleet coordinator's auto-pull loop,
// and periodically reconciles against the object store's path
// pointers to catch up on any events missed past the bus's retention
// window (spec.md §4.6.1, S5).
//
// Pushing local changes onto the bus (the filesystem-watch half of
// spec.md §4.6.2) is out of this expansion's core scope; tcfsd only
// exercises the pull/reconcile side end to end. A production build
// would add an fsnotify-driven watcher calling engine.Push.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tinyland-inc/tcfs/internal/config"
	"github.com/tinyland-inc/tcfs/lib/cas"
	"github.com/tinyland-inc/tcfs/lib/fleet"
	"github.com/tinyland-inc/tcfs/lib/secret"
	"github.com/tinyland-inc/tcfs/lib/statecache"
	"github.com/tinyland-inc/tcfs/lib/syncengine"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath        string
		deviceID          string
		reconcileInterval time.Duration
	)

	flag.StringVar(&configPath, "config", "", "path to the tcfs config file (overrides TCFS_CONFIG)")
	flag.StringVar(&deviceID, "device-id", "", "this device's id in fleet events and vector clocks (required)")
	flag.DurationVar(&reconcileInterval, "reconcile-interval", 10*time.Minute, "how often to reconcile against path pointers")
	flag.Parse()

	if deviceID == "" {
		return fmt.Errorf("--device-id is required")
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	log := slog.Default()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	objects, err := cas.NewS3Store(ctx, cas.S3Config{
		Bucket:    cfg.Storage.Bucket,
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		PathStyle: cfg.Storage.Endpoint != "",
		Logger:    log,
	})
	if err != nil {
		return fmt.Errorf("connecting to object store: %w", err)
	}

	state, err := openStateBackend(cfg)
	if err != nil {
		return err
	}
	defer state.Close()

	bus, err := fleet.NewNatsBus(ctx, fleet.NatsBusConfig{
		URL:           cfg.Fleet.EventStreamURL,
		RetentionDays: cfg.Fleet.RetentionDays,
		Logger:        log,
	})
	if err != nil {
		return fmt.Errorf("connecting to fleet event bus: %w", err)
	}
	defer bus.Close()

	opts := []syncengine.Option{
		syncengine.WithExcludePatterns(cfg.Sync.ExcludePatterns),
		syncengine.WithLogger(log),
	}
	if cfg.Codec.Encryption {
		key, err := secret.ReadFromPath(cfg.Sync.MasterKeyFile)
		if err != nil {
			return fmt.Errorf("reading master key: %w", err)
		}
		defer key.Close()
		opts = append(opts, syncengine.WithMasterKey(key))
	}

	engine := syncengine.New(objects, cfg.Storage.Prefix, state, bus, deviceID, opts...)

	resolver, err := newResolver(cfg.Sync.ConflictMode)
	if err != nil {
		return err
	}

	coordinator := fleet.NewCoordinator(bus, state, resolver, engine.Pull, engine.ResolveConflict, deviceID, log)

	errc := make(chan error, 1)
	go func() {
		errc <- coordinator.Run(ctx)
	}()

	ticker := time.NewTicker(reconcileInterval)
	defer ticker.Stop()

	log.Info("tcfsd started", "device_id", deviceID, "bucket", cfg.Storage.Bucket)

	if result, err := engine.Reconcile(ctx, resolver); err != nil {
		log.Error("initial reconciliation failed", "error", err)
	} else {
		log.Info("initial reconciliation complete", "checked", result.Checked, "pulled", len(result.Pulled), "failed", len(result.Failed))
	}

	for {
		select {
		case <-ctx.Done():
			return waitForCoordinator(errc)
		case err := <-errc:
			return fmt.Errorf("fleet coordinator stopped: %w", err)
		case <-ticker.C:
			result, err := engine.Reconcile(ctx, resolver)
			if err != nil {
				log.Error("reconciliation failed", "error", err)
				continue
			}
			log.Info("reconciliation complete", "checked", result.Checked, "pulled", len(result.Pulled), "failed", len(result.Failed))
		}
	}
}

func waitForCoordinator(errc <-chan error) error {
	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	case <-time.After(5 * time.Second):
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func openStateBackend(cfg *config.Config) (statecache.Backend, error) {
	switch cfg.Sync.StateBackend {
	case config.StateBackendEmbeddedKV:
		return statecache.OpenBoltCache(cfg.Sync.StatePath)
	case config.StateBackendJSON:
		return statecache.OpenJSONCache(cfg.Sync.StatePath)
	default:
		return nil, fmt.Errorf("unknown sync.state_backend %q", cfg.Sync.StateBackend)
	}
}

func newResolver(mode config.ConflictMode) (fleet.Resolver, error) {
	switch mode {
	case config.ConflictModeAuto:
		return fleet.AutoResolver{}, nil
	case config.ConflictModeInteractive:
		return fleet.NewInteractiveResolver(64), nil
	case config.ConflictModeDefer:
		return fleet.DeferResolver{}, nil
	default:
		return nil, fmt.Errorf("unknown sync.conflict_mode %q", mode)
	}
}
