// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mongo-wizard/mongo-wizard/common/testtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLocalListCreatesMissingDirectory(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	base := t.TempDir()
	missing := filepath.Join(base, "not-yet-created")
	backend := newLocalBackend(Location{Path: missing}, nil)

	files, err := backend.List(missing, "*")
	require.NoError(t, err)
	assert.Empty(t, files)

	info, err := os.Stat(missing)
	require.NoError(t, err)
	assert.True(t, info.IsDir(), "the directory is created lazily")
}

func TestLocalListPatternFilter(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	dir := t.TempDir()
	writeTestFile(t, dir, "20260825-120000-shop.tar.gz", "aaa")
	writeTestFile(t, dir, "20260825-130000-crm.tar.gz", "bbb")
	writeTestFile(t, dir, "notes.txt", "ccc")

	backend := newLocalBackend(Location{Path: dir}, nil)

	files, err := backend.List(dir, "*.tar.gz")
	require.NoError(t, err)
	require.Len(t, files, 2)
	for _, file := range files {
		assert.Contains(t, file.Name, ".tar.gz")
		assert.Equal(t, int64(3), file.Size)
	}
}

func TestLocalUploadDownloadRoundTrip(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	dir := t.TempDir()
	src := writeTestFile(t, dir, "archive.tar.gz", "payload bytes")
	remote := filepath.Join(dir, "remote", "nested", "archive.tar.gz")

	var lastTransferred, lastTotal int64
	backend := newLocalBackend(Location{Path: dir}, func(transferred, total int64) {
		lastTransferred, lastTotal = transferred, total
	})

	require.NoError(t, backend.Upload(src, remote))
	assert.Equal(t, int64(len("payload bytes")), lastTransferred)
	assert.Equal(t, int64(len("payload bytes")), lastTotal)

	info, err := backend.GetInfo(remote)
	require.NoError(t, err)
	assert.Equal(t, int64(len("payload bytes")), info.Size)

	restored := filepath.Join(dir, "restored", "archive.tar.gz")
	require.NoError(t, backend.Download(remote, restored))

	contents, err := os.ReadFile(restored)
	require.NoError(t, err)
	assert.Equal(t, "payload bytes", string(contents))
}

func TestLocalDeleteIsIdempotent(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	dir := t.TempDir()
	path := writeTestFile(t, dir, "archive.tar.gz", "zzz")
	backend := newLocalBackend(Location{Path: dir}, nil)

	require.NoError(t, backend.Delete(path))
	require.NoError(t, backend.Delete(path), "deleting an absent file is not an error")
}

func TestHumanSize(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	assert.Equal(t, "1.00KB", FileInfo{Size: 1024}.HumanSize())
	assert.Equal(t, "0B", FileInfo{}.HumanSize())
}
