// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package mongobackup

import (
	"context"
	"os"
	"os/exec"
	"path"
	"path/filepath"

	"github.com/mongo-wizard/mongo-wizard/common/log"
	"github.com/mongo-wizard/mongo-wizard/common/util"
	"github.com/pkg/errors"
)

// RestoreResult reports a completed restore: the target database and its
// per-collection document totals.
type RestoreResult struct {
	Database         string
	ArchiveDatabase  string
	CollectionCounts map[string]int64
}

// Restore downloads the named archive from storage, extracts it, discovers
// the database directory inside and restores it into targetDB, remapping the
// archive's database name. When drop is set the target database is dropped
// first, subject to the force/confirmation contract.
func (mb *MongoBackup) Restore(archiveName, targetDB string, drop bool) (*RestoreResult, error) {
	restoreBin, err := util.FindTool(util.MongorestoreBin)
	if err != nil {
		return nil, err
	}

	scratch, err := scratchDir()
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(scratch)

	remotePath := path.Join(mb.Storage.Location().Path, archiveName)
	localArchive := filepath.Join(scratch, archiveName)
	log.Logvf(log.Info, "downloading %v from %v", archiveName, mb.Storage.Location())
	if err := mb.Storage.Download(remotePath, localArchive); err != nil {
		return nil, err
	}

	extractedDir := filepath.Join(scratch, "extracted")
	if err := extractArchive(localArchive, extractedDir); err != nil {
		return nil, err
	}

	databaseDir, err := discoverDatabaseDir(extractedDir)
	if err != nil {
		return nil, err
	}
	archiveDB := filepath.Base(databaseDir)
	log.Logvf(log.Info, "archive contains database %v", archiveDB)

	if drop {
		if err := mb.dropDatabase(targetDB); err != nil {
			return nil, err
		}
	}

	args := []string{
		"--uri", mb.uri,
		"--nsFrom", archiveDB + ".*",
		"--nsTo", targetDB + ".*",
		"--quiet",
		filepath.Dir(databaseDir),
	}
	cmd := exec.Command(restoreBin, args...)
	cmd.Stderr = log.Writer(log.DebugLow)

	log.Logvf(log.Always, "restoring %v into %v", archiveDB, targetDB)
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "%v failed for %v", util.MongorestoreBin, targetDB)
	}

	counts, err := mb.targetCounts(targetDB)
	if err != nil {
		return nil, err
	}

	return &RestoreResult{
		Database:         targetDB,
		ArchiveDatabase:  archiveDB,
		CollectionCounts: counts,
	}, nil
}

// dropDatabase drops the target database, requiring force or interactive
// confirmation when it holds any collections.
func (mb *MongoBackup) dropDatabase(database string) error {
	collections, err := mb.resolveCollections(database, nil)
	if err != nil {
		return err
	}

	if len(collections) > 0 && !mb.Options.Force {
		if mb.Options.Confirm == nil {
			return errors.Wrapf(ErrDropNeedsForce,
				"database %v holds %v collections", database, len(collections))
		}
		if !mb.Options.Confirm("database " + database + " is not empty, drop it and continue?") {
			return ErrDropDeclined
		}
	}

	log.Logvf(log.Info, "dropping database %v", database)
	if err := mb.Provider.DB(database).Drop(context.Background()); err != nil {
		return errors.Wrapf(err, "dropping database %v", database)
	}
	return nil
}

// targetCounts reports the per-collection document totals of the restored
// database.
func (mb *MongoBackup) targetCounts(database string) (map[string]int64, error) {
	collections, err := mb.resolveCollections(database, nil)
	if err != nil {
		return nil, err
	}
	return mb.collectionCounts(database, collections)
}
