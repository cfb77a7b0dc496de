// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.Equal(t, StateBackendJSON, cfg.Sync.StateBackend)
	require.Equal(t, ConflictModeAuto, cfg.Sync.ConflictMode)
	require.True(t, cfg.Codec.Compression)
	require.False(t, cfg.Codec.Encryption)
	require.Equal(t, 7, cfg.Fleet.RetentionDays)
}

func TestLoadRequiresTCFSConfig(t *testing.T) {
	t.Setenv("TCFS_CONFIG", "")
	os.Unsetenv("TCFS_CONFIG")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "TCFS_CONFIG environment variable not set")
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tcfs.yaml")
	content := `
codec:
  encryption: true
sync:
  conflict_mode: interactive
  master_key_file: /etc/tcfs/master.key
storage:
  bucket: my-bucket
  endpoint: https://seaweed.internal:8333
fleet:
  event_stream_url: nats://fleet.internal:4222
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	require.True(t, cfg.Codec.Encryption)
	require.Equal(t, ConflictModeInteractive, cfg.Sync.ConflictMode)
	require.Equal(t, "my-bucket", cfg.Storage.Bucket)
	require.Equal(t, "nats://fleet.internal:4222", cfg.Fleet.EventStreamURL)
	// Untouched fields retain their defaults.
	require.True(t, cfg.Codec.Compression)
	require.Equal(t, 7, cfg.Fleet.RetentionDays)
}

func TestLoadFileRejectsInvalidConflictMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tcfs.yaml")
	content := `
sync:
  conflict_mode: whenever
storage:
  bucket: my-bucket
fleet:
  event_stream_url: nats://fleet.internal:4222
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := LoadFile(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "sync.conflict_mode")
}

func TestValidateRequiresMasterKeyWhenEncryptionEnabled(t *testing.T) {
	cfg := Default()
	cfg.Codec.Encryption = true
	cfg.Storage.Bucket = "b"
	cfg.Fleet.EventStreamURL = "nats://x:4222"

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "master_key_file")
}

func TestValidateRejectsTamperedChunkParameters(t *testing.T) {
	cfg := Default()
	cfg.Chunk.Avg = 1234
	cfg.Storage.Bucket = "b"
	cfg.Fleet.EventStreamURL = "nats://x:4222"

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "deduplication")
}
