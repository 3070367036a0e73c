// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package mongobackup

import (
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"time"

	"github.com/mongo-wizard/mongo-wizard/common/log"
	"github.com/mongo-wizard/mongo-wizard/common/text"
	"github.com/mongo-wizard/mongo-wizard/common/util"
	"github.com/pkg/errors"
)

// BackupResult reports a completed backup.
type BackupResult struct {
	Database         string
	Collections      []string
	CollectionCounts map[string]int64
	ArchiveName      string
	ArchiveSize      int64
	RemotePath       string
}

// Backup dumps the database (or an explicit collection subset) into a
// scratch directory, packages it as a tar.gz archive and uploads it via the
// storage backend. The scratch directory is removed on every exit path. The
// archiveName may be empty; the default is <timestamp>-<database>.tar.gz.
func (mb *MongoBackup) Backup(database string, collections []string, archiveName string) (*BackupResult, error) {
	dumpBin, err := util.FindTool(util.MongodumpBin)
	if err != nil {
		// No fallback exists: the archive format is the dump tool's own.
		return nil, err
	}

	resolved, err := mb.resolveCollections(database, collections)
	if err != nil {
		return nil, err
	}

	// Pre-flight summary before anything touches disk.
	counts, err := mb.collectionCounts(database, resolved)
	if err != nil {
		return nil, err
	}
	for _, name := range resolved {
		log.Logvf(log.Always, "%v.%v: %v %v", database, name, counts[name],
			util.Pluralize(int(counts[name]), "document", "documents"))
	}

	scratch, err := scratchDir()
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(scratch)

	dumpDir := filepath.Join(scratch, archiveDirName)
	if err := mb.runMongodump(dumpBin, dumpDir, database, collections); err != nil {
		return nil, err
	}

	if archiveName == "" {
		archiveName = DefaultArchiveName(database, time.Now())
	}

	// The archive lives outside the scratch directory so a failed upload
	// leaves it behind for a retry.
	archivePath := filepath.Join(os.TempDir(), archiveName)
	if err := createArchive(dumpDir, archivePath); err != nil {
		_ = os.Remove(archivePath)
		return nil, err
	}

	archiveInfo, err := os.Stat(archivePath)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %v", archivePath)
	}
	log.Logvf(log.Info, "packaged %v (%v)", archiveName,
		text.FormatByteAmount(archiveInfo.Size()))

	remotePath := path.Join(mb.Storage.Location().Path, archiveName)
	if err := mb.Storage.Upload(archivePath, remotePath); err != nil {
		// Distinct from a dump failure: the archive exists locally and
		// the upload can be retried.
		return nil, errors.Wrapf(err,
			"upload failed, archive still present locally at %v", archivePath)
	}
	_ = os.Remove(archivePath)

	log.Logvf(log.Always, "uploaded %v to %v", archiveName, mb.Storage.Location())

	return &BackupResult{
		Database:         database,
		Collections:      resolved,
		CollectionCounts: counts,
		ArchiveName:      archiveName,
		ArchiveSize:      archiveInfo.Size(),
		RemotePath:       remotePath,
	}, nil
}

// runMongodump dumps the database into outDir: one invocation per collection
// when a subset was requested, one for the whole database otherwise.
func (mb *MongoBackup) runMongodump(dumpBin, outDir, database string, collections []string) error {
	if len(collections) == 0 {
		return mb.runDumpCommand(dumpBin, outDir, database, "")
	}
	for _, collection := range collections {
		if err := mb.runDumpCommand(dumpBin, outDir, database, collection); err != nil {
			return err
		}
	}
	return nil
}

func (mb *MongoBackup) runDumpCommand(dumpBin, outDir, database, collection string) error {
	args := []string{
		"--uri", mb.uri,
		"--db", database,
		"--out", outDir,
		"--quiet",
	}
	if collection != "" {
		args = append(args, "--collection", collection)
	}

	cmd := exec.Command(dumpBin, args...)
	cmd.Stderr = log.Writer(log.DebugLow)

	log.Logvf(log.DebugLow, "running %v for %v", util.MongodumpBin, database)
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "%v failed for %v", util.MongodumpBin, database)
	}
	return nil
}
