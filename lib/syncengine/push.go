// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncengine

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/tinyland-inc/tcfs/lib/cas"
	"github.com/tinyland-inc/tcfs/lib/chunk"
	"github.com/tinyland-inc/tcfs/lib/chunkcodec"
	"github.com/tinyland-inc/tcfs/lib/fleet"
	"github.com/tinyland-inc/tcfs/lib/manifest"
	"github.com/tinyland-inc/tcfs/lib/secret"
	"github.com/tinyland-inc/tcfs/lib/statecache"
	"github.com/tinyland-inc/tcfs/lib/tcfserr"
	"github.com/tinyland-inc/tcfs/lib/vclock"
)

// Push runs the push sequence of spec.md §4.6.2 for the file at path.
// Steps 1-3 are crash-safe in order (chunks before manifest, manifest
// before event): a crash between chunk upload and manifest write
// leaves orphan chunks, reclaimed by a future GC; a crash between
// manifest write and event publish leaves an unannounced manifest that
// reconciliation still discovers.
func (e *Engine) Push(ctx context.Context, path string) error {
	plaintext, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", tcfserr.ErrIo, path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", tcfserr.ErrIo, path, err)
	}

	reason, err := statecache.NeedsSync(e.state, path, plaintext)
	if err != nil {
		return err
	}
	if reason == statecache.ReasonNone {
		// Re-push of unchanged content is a no-op; spec.md §8
		// property 5 (push-pull idempotence).
		return nil
	}

	fileHash := chunk.HashFile(plaintext)

	cached, hadCache := e.state.Get(path)

	// Content-addressed manifest short-circuit, stronger than
	// per-chunk dedup alone: if some other path or device already
	// published this exact content, adopt its manifest instead of
	// re-chunking and re-uploading, per engine.rs's upload_file.
	if existing, err := e.manifests.Exists(ctx, fileHash); err == nil && existing {
		m, err := e.manifests.Read(ctx, fileHash)
		if err != nil {
			return fmt.Errorf("reading existing manifest for %s: %w", path, err)
		}
		if err := e.commitSynced(ctx, path, m); err != nil {
			return err
		}
		return nil
	}

	chunks := chunk.ChunkAll(plaintext)
	if len(chunks) == 0 {
		return fmt.Errorf("%w: %s produced no chunks", tcfserr.ErrIntegrity, path)
	}

	descriptors, fileKey, err := e.encodeAndUploadChunks(ctx, chunks, fileHash)
	if err != nil {
		return err
	}
	defer func() {
		if fileKey != nil {
			fileKey.Close()
		}
	}()

	priorClock := e.priorClock(ctx, cached, hadCache)
	newClock := priorClock.Tick(vclock.DeviceID(e.selfID))

	m := &manifest.Manifest{
		FileHash:   fileHash.String(),
		FileSize:   info.Size(),
		Chunks:     descriptors,
		ModifiedAt: info.ModTime(),
		WrittenBy:  e.selfID,
	}
	m.SetVectorClock(newClock)

	if fileKey != nil {
		wrapped, err := chunkcodec.WrapFileKey(e.masterKey, fileHash, fileKey)
		if err != nil {
			return fmt.Errorf("wrapping file key for %s: %w", path, err)
		}
		m.EncryptedFileKey = wrapped
	}

	if err := e.manifests.Write(ctx, m); err != nil {
		return fmt.Errorf("writing manifest for %s: %w", path, err)
	}

	if err := e.commitSynced(ctx, path, m); err != nil {
		return err
	}

	event := fleet.NewFileSynced(path, m.FileHash, m.VectorClock, e.selfID)
	if err := e.bus.Publish(ctx, e.selfID, event); err != nil {
		return fmt.Errorf("publishing file_synced for %s: %w", path, err)
	}

	return nil
}

// priorClock loads the vector clock of the path's previously synced
// manifest, if any, so the new tick is causally layered on top of it
// rather than starting fresh every push.
func (e *Engine) priorClock(ctx context.Context, cached statecache.Entry, hadCache bool) vclock.Clock {
	if !hadCache || cached.FileHash == "" {
		return vclock.New()
	}

	priorHash, err := chunk.ParseHash(cached.FileHash)
	if err != nil {
		return vclock.New()
	}

	priorManifest, err := e.manifests.Read(ctx, priorHash)
	if err != nil {
		return vclock.New()
	}

	return priorManifest.VectorClockValue()
}

// encodeAndUploadChunks compresses, optionally encrypts, and uploads
// every chunk with a bounded worker pool (spec.md §5), returning the
// resulting chunk descriptors in file order and the generated file
// key (nil when encryption is disabled).
func (e *Engine) encodeAndUploadChunks(ctx context.Context, chunks []chunk.Chunk, fileHash chunk.Hash) ([]manifest.ChunkDescriptor, *secret.Buffer, error) {
	var fileKey *secret.Buffer
	if e.masterKey != nil {
		var err error
		fileKey, err = chunkcodec.GenerateFileKey()
		if err != nil {
			return nil, nil, fmt.Errorf("generating file key: %w", err)
		}
	}

	offsets := make([]int64, len(chunks))
	var offset int64
	for i, c := range chunks {
		offsets[i] = offset
		offset += int64(len(c.Data))
	}

	descriptors := make([]manifest.ChunkDescriptor, len(chunks))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(e.maxParallelChunks)

	for i, c := range chunks {
		i, c := i, c
		group.Go(func() error {
			wire, compressed, err := chunkcodec.EncodeChunk(c.Data, i, fileHash, fileKey)
			if err != nil {
				return fmt.Errorf("encoding chunk %d: %w", i, err)
			}

			if _, err := cas.PutChunk(gctx, e.objects, e.prefix, c.Hash, wire); err != nil {
				return fmt.Errorf("uploading chunk %d: %w", i, err)
			}

			compressedLength := len(wire)
			if fileKey != nil {
				compressedLength -= chunkcodec.NonceSize + chunkcodec.TagSize
			}

			descriptors[i] = manifest.ChunkDescriptor{
				Index:            i,
				Hash:             c.Hash.String(),
				Offset:           offsets[i],
				Length:           len(c.Data),
				CompressedLength: compressedLength,
				Compressed:       compressed,
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, nil, err
	}

	return descriptors, fileKey, nil
}

// commitSynced updates the state cache and the path's pointer record
// to reflect that path is now synced to manifest m. This runs between
// the manifest write and the event publish, per spec.md §4.6.2 step 4.
func (e *Engine) commitSynced(ctx context.Context, path string, m *manifest.Manifest) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", tcfserr.ErrIo, path, err)
	}

	cached, hadCache := e.state.Get(path)
	state, err := applyTransitions(currentFileState(cached, hadCache),
		fleet.TransitionLocalWrite, fleet.TransitionPushStart, fleet.TransitionPushCommit)
	if err != nil {
		return fmt.Errorf("advancing file state for %s: %w", path, err)
	}

	entry := statecache.Entry{
		RemoteKey:   m.FileHash,
		FileHash:    m.FileHash,
		Size:        info.Size(),
		VectorClock: m.VectorClock,
		Status:      state.Status,
	}
	if err := e.state.Set(path, entry); err != nil {
		return fmt.Errorf("updating state cache for %s: %w", path, err)
	}
	if err := e.state.Flush(); err != nil {
		return err
	}

	if err := e.manifests.WritePointer(ctx, path, m.FileHash); err != nil {
		return fmt.Errorf("updating pointer for %s: %w", path, err)
	}
	return nil
}
