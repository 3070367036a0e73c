// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package storage

import (
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/mongo-wizard/mongo-wizard/common/testtype"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySize(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	assert.NoError(t, verifySize(1024, 1024, "/backups/a.tar.gz"))
	assert.NoError(t, verifySize(0, 0, "/backups/empty"))

	err := verifySize(512, 1024, "/backups/a.tar.gz")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSizeMismatch))
	assert.Contains(t, err.Error(), "512 bytes of 1024")
}

// A file whose stat size disagrees with its readable content drives the
// post-upload check through the full Upload path.
func TestLocalUploadSizeMismatch(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)
	if runtime.GOOS != "linux" {
		t.Skip("needs a file that stats smaller than its content")
	}

	dir := t.TempDir()
	backend := newLocalBackend(Location{Path: dir}, nil)

	// procfs files stat as zero bytes but read non-empty
	err := backend.Upload("/proc/version", filepath.Join(dir, "version"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSizeMismatch))
}

func TestTransferWithTimeout(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	transferErr := errors.New("connection reset")
	err := transferWithTimeout(time.Second, func() error { return transferErr })
	assert.Equal(t, transferErr, err)

	assert.NoError(t, transferWithTimeout(time.Second, func() error { return nil }))

	release := make(chan struct{})
	defer close(release)
	err = transferWithTimeout(10*time.Millisecond, func() error {
		<-release
		return nil
	})
	assert.True(t, errors.Is(err, ErrTransferTimeout))
}
