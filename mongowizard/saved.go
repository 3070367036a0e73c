// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package mongowizard

import (
	"fmt"
	"strings"

	"github.com/mongo-wizard/mongo-wizard/common/util"
	"github.com/mongo-wizard/mongo-wizard/settings"
	"github.com/pkg/errors"
)

// splitAssignment parses a <name>=<value> argument. The value may itself
// contain '=' characters, as connection strings do.
func splitAssignment(arg string) (string, string, error) {
	name, value, found := strings.Cut(arg, "=")
	if !found || name == "" || value == "" {
		return "", "", errors.Errorf("expected <name>=<value>, got %q", arg)
	}
	return name, value, nil
}

// runSaveHost saves a named connection string.
func (mw *MongoWizard) runSaveHost(arg string) error {
	name, uri, err := splitAssignment(arg)
	if err != nil {
		return err
	}
	if err := mw.Store.SetHost(name, uri); err != nil {
		return err
	}
	fmt.Printf("saved host %v (%v)\n", name, util.SanitizeURI(uri))
	return nil
}

// runSaveStorage saves a named storage location.
func (mw *MongoWizard) runSaveStorage(arg string) error {
	name, location, err := splitAssignment(arg)
	if err != nil {
		return err
	}
	if err := mw.Store.SetStorageLocation(name, location); err != nil {
		return err
	}
	fmt.Printf("saved storage %v (%v)\n", name, maskStorage(location))
	return nil
}

// runSaveTask persists the operation described by the current flags under the
// given name. The variant is selected by --task-type.
func (mw *MongoWizard) runSaveTask(name string) error {
	var task settings.Task
	switch mw.Options.TaskType {
	case settings.TaskTypeCopy:
		task = settings.NewCopyTask(settings.CopyTask{
			Source:           mw.Options.Source,
			SourceDB:         mw.Options.SourceDB,
			Target:           mw.Options.Target,
			TargetDB:         mw.Options.TargetDB,
			Collections:      mw.copyCollections(),
			TargetCollection: mw.Options.TargetCollection,
			Drop:             mw.Options.Drop,
			Verify:           mw.Options.Verify,
		})
	case settings.TaskTypeBackup:
		task = settings.NewBackupTask(settings.BackupTask{
			Host:        mw.Options.Source,
			Database:    mw.Options.SourceDB,
			Collections: mw.Options.Collections,
			Storage:     mw.Options.Storage,
			ArchiveName: mw.Options.ArchiveName,
		})
	case settings.TaskTypeRestore:
		task = settings.NewRestoreTask(settings.RestoreTask{
			Host:     mw.Options.Target,
			Database: mw.Options.TargetDB,
			Storage:  mw.Options.Storage,
			Archive:  mw.Options.ArchiveName,
			Drop:     mw.Options.Drop,
		})
	default:
		return errors.Errorf("unknown task type %q", mw.Options.TaskType)
	}

	if err := mw.Store.SetTask(name, task); err != nil {
		return err
	}
	fmt.Printf("saved task %v (%v)\n", name, task.Type)
	return nil
}

// copyCollections resolves the collection list a saved copy task should
// carry: the single --source-collection when given, otherwise any repeated
// --collection flags.
func (mw *MongoWizard) copyCollections() []string {
	if mw.Options.SourceCollection != "" {
		return []string{mw.Options.SourceCollection}
	}
	return mw.Options.Collections
}

func (mw *MongoWizard) runDeleteHost(name string) error {
	if _, ok := mw.Store.Host(name); !ok {
		return errors.Errorf("no saved host named %q", name)
	}
	if err := mw.Store.DeleteHost(name); err != nil {
		return err
	}
	fmt.Printf("deleted host %v\n", name)
	return nil
}

func (mw *MongoWizard) runDeleteTask(name string) error {
	if _, ok := mw.Store.Task(name); !ok {
		return errors.Errorf("no saved task named %q", name)
	}
	if err := mw.Store.DeleteTask(name); err != nil {
		return err
	}
	fmt.Printf("deleted task %v\n", name)
	return nil
}

func (mw *MongoWizard) runDeleteStorage(name string) error {
	if _, ok := mw.Store.StorageLocation(name); !ok {
		return errors.Errorf("no saved storage named %q", name)
	}
	if err := mw.Store.DeleteStorageLocation(name); err != nil {
		return err
	}
	fmt.Printf("deleted storage %v\n", name)
	return nil
}
