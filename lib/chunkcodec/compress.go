// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chunkcodec

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// zstdEncoder and zstdDecoder are reused across calls to avoid
// repeated initialization overhead. Both are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("chunkcodec: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("chunkcodec: zstd decoder initialization failed: " + err.Error())
	}
}

// compressChunk compresses data with zstd level 3. If the compressed
// output is not smaller than the input, it returns the input
// unchanged and compressed=false — the manifest records which case
// occurred so decode knows whether to run zstd at all.
func compressChunk(data []byte) (out []byte, compressed bool) {
	result := zstdEncoder.EncodeAll(data, nil)
	if len(result) >= len(data) {
		return data, false
	}
	return result, true
}

// decompressChunk reverses compressChunk. uncompressedSize must match
// the original plaintext length exactly; a mismatch is a framing bug
// or tampering and is reported as an error rather than silently
// truncated or padded.
func decompressChunk(data []byte, compressed bool, uncompressedSize int) ([]byte, error) {
	if !compressed {
		if len(data) != uncompressedSize {
			return nil, fmt.Errorf("chunkcodec: uncompressed chunk is %d bytes, want %d", len(data), uncompressedSize)
		}
		return data, nil
	}

	result, err := zstdDecoder.DecodeAll(data, make([]byte, 0, uncompressedSize))
	if err != nil {
		return nil, fmt.Errorf("chunkcodec: zstd decompress: %w", err)
	}
	if len(result) != uncompressedSize {
		return nil, fmt.Errorf("chunkcodec: zstd decompress produced %d bytes, want %d", len(result), uncompressedSize)
	}
	return result, nil
}
