// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for tcfs components.
//
// Configuration is loaded from a single file specified by the
// TCFS_CONFIG environment variable. There are no fallbacks or
// automatic discovery. This ensures deterministic, auditable
// configuration with no hidden overrides.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tinyland-inc/tcfs/lib/chunk"
)

// ConflictMode selects how the fleet coordinator resolves concurrent
// vector clocks, per spec.md §4.6.4.
type ConflictMode string

const (
	ConflictModeAuto        ConflictMode = "auto"
	ConflictModeInteractive ConflictMode = "interactive"
	ConflictModeDefer       ConflictMode = "defer"
)

// StateBackend selects the local state cache implementation.
type StateBackend string

const (
	StateBackendJSON       StateBackend = "json"
	StateBackendEmbeddedKV StateBackend = "embedded-kv"
)

// Config is the master configuration for a tcfs device.
type Config struct {
	Chunk   ChunkConfig   `yaml:"chunk"`
	Codec   CodecConfig   `yaml:"codec"`
	Sync    SyncConfig    `yaml:"sync"`
	Fleet   FleetConfig   `yaml:"fleet"`
	Storage StorageConfig `yaml:"storage"`
}

// ChunkConfig configures the content-defined chunker, per spec.md §6's
// "chunk.min / avg / max". These are protocol constants baked into
// lib/chunk at compile time; the fields here exist so a config file
// documents the values it was produced against, and Validate rejects
// a file that disagrees with the running binary's chunker rather than
// silently producing manifests that can never deduplicate against it.
type ChunkConfig struct {
	Min int `yaml:"min"`
	Avg int `yaml:"avg"`
	Max int `yaml:"max"`
}

// CodecConfig configures per-chunk compression and encryption.
type CodecConfig struct {
	Compression bool `yaml:"compression"`
	Encryption  bool `yaml:"encryption"`
}

// SyncConfig configures sync engine behavior.
type SyncConfig struct {
	StateBackend    StateBackend `yaml:"state_backend"`
	ConflictMode    ConflictMode `yaml:"conflict_mode"`
	SyncGitDirs     bool         `yaml:"sync_git_dirs"`
	ExcludePatterns []string     `yaml:"exclude_patterns"`

	// MasterKeyFile, when set, points at the mlock'd key material
	// unwrapped via lib/secret.ReadFromPath and passed to
	// syncengine.WithMasterKey. Required when Codec.Encryption is true.
	MasterKeyFile string `yaml:"master_key_file"`

	// StatePath is the local state cache file or database path.
	StatePath string `yaml:"state_path"`
}

// FleetConfig configures the durable event bus.
type FleetConfig struct {
	EventStreamURL string `yaml:"event_stream_url"`
	RetentionDays  int    `yaml:"retention_days"`
}

// StorageConfig configures the S3-compatible object store backing CAS.
type StorageConfig struct {
	Prefix   string `yaml:"prefix"`
	Endpoint string `yaml:"endpoint"`
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
}

// Default returns the default configuration. These defaults ensure
// every field has a sensible zero-value before the config file is
// merged in; they are not a fallback for a missing file.
func Default() *Config {
	return &Config{
		Chunk: ChunkConfig{
			Min: chunk.MinChunkSize,
			Avg: chunk.TargetChunkSize,
			Max: chunk.MaxChunkSize,
		},
		Codec: CodecConfig{
			Compression: true,
			Encryption:  false,
		},
		Sync: SyncConfig{
			StateBackend:    StateBackendJSON,
			ConflictMode:    ConflictModeAuto,
			SyncGitDirs:     false,
			ExcludePatterns: []string{".git/**"},
			StatePath:       "tcfs-state.json",
		},
		Fleet: FleetConfig{
			RetentionDays: 7,
		},
		Storage: StorageConfig{
			Prefix: "tcfs",
			Region: "us-east-1",
		},
	}
}

// Load loads configuration from the TCFS_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit
// path. There are no fallbacks or defaults - if TCFS_CONFIG is not
// set, this fails. This ensures deterministic, auditable
// configuration with no hidden overrides.
func Load() (*Config, error) {
	path := os.Getenv("TCFS_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("TCFS_CONFIG environment variable not set; " +
			"set it to the path of your tcfs config file, or use --config")
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path, merging
// over Default() and then validating the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Chunk.Min != chunk.MinChunkSize || c.Chunk.Avg != chunk.TargetChunkSize || c.Chunk.Max != chunk.MaxChunkSize {
		errs = append(errs, fmt.Errorf(
			"chunk.min/avg/max (%d/%d/%d) do not match the compiled chunker (%d/%d/%d); "+
				"changing these breaks deduplication against existing manifests",
			c.Chunk.Min, c.Chunk.Avg, c.Chunk.Max,
			chunk.MinChunkSize, chunk.TargetChunkSize, chunk.MaxChunkSize))
	}

	switch c.Sync.StateBackend {
	case StateBackendJSON, StateBackendEmbeddedKV:
	default:
		errs = append(errs, fmt.Errorf("sync.state_backend must be %q or %q, got %q",
			StateBackendJSON, StateBackendEmbeddedKV, c.Sync.StateBackend))
	}

	switch c.Sync.ConflictMode {
	case ConflictModeAuto, ConflictModeInteractive, ConflictModeDefer:
	default:
		errs = append(errs, fmt.Errorf("sync.conflict_mode must be one of %q, %q, %q, got %q",
			ConflictModeAuto, ConflictModeInteractive, ConflictModeDefer, c.Sync.ConflictMode))
	}

	if c.Codec.Encryption && c.Sync.MasterKeyFile == "" {
		errs = append(errs, fmt.Errorf("codec.encryption is enabled but sync.master_key_file is empty"))
	}

	if c.Storage.Bucket == "" {
		errs = append(errs, fmt.Errorf("storage.bucket is required"))
	}
	if c.Storage.Prefix == "" {
		errs = append(errs, fmt.Errorf("storage.prefix is required"))
	}

	if c.Fleet.EventStreamURL == "" {
		errs = append(errs, fmt.Errorf("fleet.event_stream_url is required"))
	}
	if c.Fleet.RetentionDays <= 0 {
		errs = append(errs, fmt.Errorf("fleet.retention_days must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
