// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chunkcodec

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/tinyland-inc/tcfs/lib/chunk"
	"github.com/tinyland-inc/tcfs/lib/secret"
)

// KeySize is the size in bytes of the per-file symmetric key and the
// master key it is wrapped under.
const KeySize = 32

// hkdfInfoFileKeyWrap provides domain separation for the HKDF
// derivation used to wrap/unwrap a per-file key under the master key.
// Changing it invalidates every wrapped key already in a manifest.
var hkdfInfoFileKeyWrap = []byte("tcfs.codec.filekey.wrap.v1")

// GenerateFileKey creates a fresh random 256-bit per-file key, used
// the first time a file is pushed under encryption. The key is never
// reused across files.
func GenerateFileKey() (*secret.Buffer, error) {
	raw := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return nil, fmt.Errorf("chunkcodec: generating file key: %w", err)
	}
	return secret.NewFromBytes(raw)
}

// WrapFileKey encrypts fileKey under a key derived from masterKey and
// fileHash, producing the bytes stored in the manifest's
// encrypted_file_key field. masterKey and fileKey are borrowed and
// not closed.
func WrapFileKey(masterKey *secret.Buffer, fileHash chunk.Hash, fileKey *secret.Buffer) ([]byte, error) {
	wrapKey, err := deriveWrapKey(masterKey, fileHash)
	if err != nil {
		return nil, err
	}
	defer wrapKey.Close()

	return encryptBlob(fileKey.Bytes(), wrapKey, fileHash[:])
}

// UnwrapFileKey reverses WrapFileKey, recovering the per-file key from
// the manifest's encrypted_file_key bytes.
func UnwrapFileKey(masterKey *secret.Buffer, fileHash chunk.Hash, wrapped []byte) (*secret.Buffer, error) {
	wrapKey, err := deriveWrapKey(masterKey, fileHash)
	if err != nil {
		return nil, err
	}
	defer wrapKey.Close()

	plaintext, err := decryptBlob(wrapped, wrapKey, fileHash[:])
	if err != nil {
		return nil, fmt.Errorf("chunkcodec: unwrapping file key: %w", err)
	}
	return secret.NewFromBytes(plaintext)
}

func deriveWrapKey(masterKey *secret.Buffer, fileHash chunk.Hash) (*secret.Buffer, error) {
	info := make([]byte, len(hkdfInfoFileKeyWrap)+len(fileHash))
	copy(info, hkdfInfoFileKeyWrap)
	copy(info[len(hkdfInfoFileKeyWrap):], fileHash[:])

	reader := hkdf.New(sha256.New, masterKey.Bytes(), nil, info)
	derived := make([]byte, KeySize)
	if _, err := io.ReadFull(reader, derived); err != nil {
		secret.Zero(derived)
		return nil, fmt.Errorf("chunkcodec: deriving file-key wrap key: %w", err)
	}
	return secret.NewFromBytes(derived)
}
