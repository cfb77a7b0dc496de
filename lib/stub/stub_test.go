// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/tcfs/lib/tcfserr"
)

func TestFileStubRoundTrip(t *testing.T) {
	s := &File{
		FileHash:     "abc123",
		Name:         "report.pdf",
		Size:         4096,
		ModifiedAt:   time.Unix(0, 0).UTC(),
		ChunkCount:   3,
		ManifestKey:  "prefix/manifests/abc123",
		RemotePrefix: "prefix",
		MimeType:     "application/pdf",
	}

	data, err := MarshalFile(s)
	require.NoError(t, err)

	got, err := UnmarshalFile(data)
	require.NoError(t, err)
	require.Equal(t, FormatVersion, got.Version)
	require.Equal(t, s.FileHash, got.FileHash)
	require.Equal(t, s.ChunkCount, got.ChunkCount)
	require.Equal(t, s.ManifestKey, got.ManifestKey)
}

func TestUnmarshalFileRejectsUnknownVersion(t *testing.T) {
	_, err := UnmarshalFile([]byte(`{"version": 99, "file_hash": "x"}`))
	require.Error(t, err)
	require.ErrorIs(t, err, tcfserr.ErrIntegrity)
}

func TestUnmarshalFileRejectsMalformedJSON(t *testing.T) {
	_, err := UnmarshalFile([]byte(`not json`))
	require.Error(t, err)
	require.ErrorIs(t, err, tcfserr.ErrIntegrity)
}

func TestDirStubRoundTrip(t *testing.T) {
	d := &Dir{
		Name: "photos",
		Entries: []DirEntry{
			{Name: "a.jpg", IsDir: false},
			{Name: "subdir", IsDir: true},
		},
	}

	data, err := MarshalDir(d)
	require.NoError(t, err)

	got, err := UnmarshalDir(data)
	require.NoError(t, err)
	require.Equal(t, FormatVersion, got.Version)
	require.Len(t, got.Entries, 2)
	require.True(t, got.Entries[1].IsDir)
}

func TestUnmarshalDirRejectsUnknownVersion(t *testing.T) {
	_, err := UnmarshalDir([]byte(`{"version": 7, "name": "x"}`))
	require.Error(t, err)
	require.ErrorIs(t, err, tcfserr.ErrIntegrity)
}

func TestLooksLikeStub(t *testing.T) {
	require.True(t, LooksLikeStub("report.pdf.tc"))
	require.True(t, LooksLikeStub("photos.tcf"))
	require.False(t, LooksLikeStub("report.pdf"))
	require.False(t, LooksLikeStub("tc"))
	require.False(t, LooksLikeStub(""))
}
