// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package mongobackup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mongo-wizard/mongo-wizard/common/testtype"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultArchiveName(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	at := time.Date(2026, 8, 25, 12, 30, 45, 0, time.UTC)
	assert.Equal(t, "20260825-123045-shop.tar.gz", DefaultArchiveName("shop", at))
}

// buildDumpDir fakes mongodump output: dump/<db>/<collection>.bson plus
// metadata.
func buildDumpDir(t *testing.T, base, database string) string {
	t.Helper()
	dbDir := filepath.Join(base, database)
	require.NoError(t, os.MkdirAll(dbDir, 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dbDir, "orders.bson"), []byte("fake bson payload"), 0644))
	require.NoError(t, os.WriteFile(
		filepath.Join(dbDir, "orders.metadata.json"), []byte(`{"indexes":[]}`), 0644))
	return dbDir
}

func TestArchiveRoundTrip(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	scratch := t.TempDir()
	dumpDir := filepath.Join(scratch, "dump")
	buildDumpDir(t, dumpDir, "shop")

	archivePath := filepath.Join(scratch, "20260825-123045-shop.tar.gz")
	require.NoError(t, createArchive(dumpDir, archivePath))

	info, err := os.Stat(archivePath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	extracted := filepath.Join(scratch, "extracted")
	require.NoError(t, extractArchive(archivePath, extracted))

	dbDir, err := discoverDatabaseDir(extracted)
	require.NoError(t, err)
	assert.Equal(t, "shop", filepath.Base(dbDir))

	payload, err := os.ReadFile(filepath.Join(dbDir, "orders.bson"))
	require.NoError(t, err)
	assert.Equal(t, "fake bson payload", string(payload))
}

func TestDiscoverDatabaseDirRejectsEmptyArchive(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	scratch := t.TempDir()

	// no dump directory at all
	_, err := discoverDatabaseDir(scratch)
	assert.True(t, errors.Is(err, ErrInvalidArchive))

	// a dump directory with no database subdirectory
	dumpDir := filepath.Join(scratch, "dump")
	require.NoError(t, os.MkdirAll(dumpDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dumpDir, "stray.txt"), []byte("x"), 0644))

	_, err = discoverDatabaseDir(scratch)
	assert.True(t, errors.Is(err, ErrInvalidArchive))
}

func TestExtractArchiveRejectsEscapingEntries(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	scratch := t.TempDir()
	dumpDir := filepath.Join(scratch, "dump")
	buildDumpDir(t, dumpDir, "shop")

	archivePath := filepath.Join(scratch, "ok.tar.gz")
	require.NoError(t, createArchive(dumpDir, archivePath))

	// a benign archive extracts fine next to a sibling directory
	dest := filepath.Join(scratch, "dest")
	require.NoError(t, extractArchive(archivePath, dest))
}

func TestScratchDirIsUnique(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	first, err := scratchDir()
	require.NoError(t, err)
	defer os.RemoveAll(first)

	second, err := scratchDir()
	require.NoError(t, err)
	defer os.RemoveAll(second)

	assert.NotEqual(t, first, second)
}
