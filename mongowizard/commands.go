// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package mongowizard

import (
	"fmt"
	"sort"

	"github.com/mongo-wizard/mongo-wizard/common/db"
	"github.com/mongo-wizard/mongo-wizard/common/log"
	"github.com/mongo-wizard/mongo-wizard/common/util"
	"github.com/mongo-wizard/mongo-wizard/mongobackup"
	"github.com/mongo-wizard/mongo-wizard/mongocopy"
	"github.com/mongo-wizard/mongo-wizard/settings"
	"github.com/mongo-wizard/mongo-wizard/storage"
	"github.com/pkg/errors"
)

// runVerifyConnection connects and pings one deployment.
func (mw *MongoWizard) runVerifyConnection(nameOrURI string) error {
	uri := mw.resolveHost(nameOrURI)
	provider, err := db.NewSessionProvider(uri, db.OperationTimeout)
	if err != nil {
		return err
	}
	defer provider.Close()
	fmt.Printf("connection to %v verified\n", provider.SanitizedURI())
	return nil
}

// runListHosts prints every saved host with a quick liveness probe. Probes
// use the short timeout so a dead host cannot stall the listing for long.
func (mw *MongoWizard) runListHosts() error {
	names := mw.Store.HostNames()
	if len(names) == 0 {
		fmt.Println("no saved hosts")
		return nil
	}

	for _, name := range names {
		uri, _ := mw.Store.Host(name)
		status := "up"
		provider, err := db.NewSessionProvider(uri, db.QuickCheckTimeout)
		if err != nil {
			status = "down"
		} else {
			provider.Close()
		}
		fmt.Printf("%-24v %-6v %v\n", name, status, util.SanitizeURI(uri))
	}
	return nil
}

// runListTasks prints every saved task.
func (mw *MongoWizard) runListTasks() error {
	names := mw.Store.TaskNames()
	if len(names) == 0 {
		fmt.Println("no saved tasks")
		return nil
	}

	for _, name := range names {
		task, _ := mw.Store.Task(name)
		fmt.Printf("%-24v %-8v %v\n", name, task.Type, describeTask(task))
	}
	return nil
}

// describeTask renders a one-line summary. Tasks may hold raw connection and
// storage strings rather than saved names, so credentials are masked.
func describeTask(task settings.Task) string {
	switch task.Type {
	case settings.TaskTypeCopy:
		return fmt.Sprintf("%v/%v -> %v/%v",
			util.SanitizeURI(task.Copy.Source), task.Copy.SourceDB,
			util.SanitizeURI(task.Copy.Target), task.Copy.TargetDB)
	case settings.TaskTypeBackup:
		return fmt.Sprintf("%v/%v -> %v",
			util.SanitizeURI(task.Backup.Host), task.Backup.Database,
			maskStorage(task.Backup.Storage))
	case settings.TaskTypeRestore:
		return fmt.Sprintf("%v:%v -> %v/%v",
			maskStorage(task.Restore.Storage), task.Restore.Archive,
			util.SanitizeURI(task.Restore.Host), task.Restore.Database)
	}
	return ""
}

// maskStorage renders a storage string with any credential masked. A string
// that does not parse as a location carries no recognizable credential and is
// returned as is.
func maskStorage(location string) string {
	loc, err := storage.ParseLocation(location)
	if err != nil {
		return location
	}
	return loc.String()
}

// runTask looks a saved task up and executes its variant.
func (mw *MongoWizard) runTask(name string) error {
	task, ok := mw.Store.Task(name)
	if !ok {
		return errors.Errorf("no saved task named %q", name)
	}
	log.Logvf(log.Always, "running task %v (%v)", name, task.Type)

	switch task.Type {
	case settings.TaskTypeCopy:
		return mw.runCopy(*task.Copy)
	case settings.TaskTypeBackup:
		return mw.runBackup(*task.Backup)
	case settings.TaskTypeRestore:
		return mw.runRestore(*task.Restore)
	}
	return errors.Errorf("task %q has unknown type %q", name, task.Type)
}

// runCopy performs a copy task: one collection when the task names exactly
// one, otherwise every non-system collection of the source database.
func (mw *MongoWizard) runCopy(task settings.CopyTask) error {
	sourceURI := mw.resolveHost(task.Source)
	targetURI := mw.resolveHost(task.Target)

	source, err := db.NewSessionProvider(sourceURI, db.DefaultConnectTimeout)
	if err != nil {
		return errors.Wrap(err, "connecting to source")
	}
	defer source.Close()

	target, err := db.NewSessionProvider(targetURI, db.DefaultConnectTimeout)
	if err != nil {
		return errors.Wrap(err, "connecting to target")
	}
	defer target.Close()

	mc := mongocopy.New(source, target, sourceURI, targetURI, mongocopy.Options{
		Drop:        task.Drop,
		Force:       mw.Options.AssumeYes,
		ForceDriver: mw.Options.ForceDriver,
		Confirm:     mw.confirm(),
	})

	type pair struct{ src, dst mongocopy.Namespace }
	var pairs []pair

	switch {
	case len(task.Collections) == 1:
		targetCollection := task.TargetCollection
		if targetCollection == "" {
			targetCollection = task.Collections[0]
		}
		pairs = []pair{{
			src: mongocopy.Namespace{DB: task.SourceDB, Collection: task.Collections[0]},
			dst: mongocopy.Namespace{DB: task.TargetDB, Collection: targetCollection},
		}}
		result, err := mc.CopyCollection(pairs[0].src, pairs[0].dst)
		if err != nil {
			return err
		}
		printCopyResult(pairs[0].src, pairs[0].dst, result)
	case len(task.Collections) > 1:
		results, err := mc.CopyCollections(task.SourceDB, task.TargetDB, task.Collections)
		if err != nil {
			return err
		}
		for i, result := range results {
			src := mongocopy.Namespace{DB: task.SourceDB, Collection: task.Collections[i]}
			dst := mongocopy.Namespace{DB: task.TargetDB, Collection: task.Collections[i]}
			pairs = append(pairs, pair{src, dst})
			printCopyResult(src, dst, result)
		}
	default:
		collections, err := mc.SourceCollections(task.SourceDB)
		if err != nil {
			return err
		}
		results, err := mc.CopyCollections(task.SourceDB, task.TargetDB, collections)
		if err != nil {
			return err
		}
		for i, result := range results {
			src := mongocopy.Namespace{DB: task.SourceDB, Collection: collections[i]}
			dst := mongocopy.Namespace{DB: task.TargetDB, Collection: collections[i]}
			pairs = append(pairs, pair{src, dst})
			printCopyResult(src, dst, result)
		}
	}

	if !task.Verify {
		return nil
	}

	failed := false
	for _, p := range pairs {
		report, err := mc.Verify(p.src, p.dst, mongocopy.DefaultSampleSize)
		if err != nil {
			return errors.Wrapf(err, "verifying %v", p.dst)
		}
		printVerification(p.src, report)
		if !report.Ok() {
			failed = true
		}
	}
	if failed {
		return errors.New("verification failed")
	}
	return nil
}

func printCopyResult(src, dst mongocopy.Namespace, result *mongocopy.CopyResult) {
	fmt.Printf("%v -> %v: %v %v copied, %v %v created (%v)\n",
		src, dst,
		result.DocumentsCopied,
		util.Pluralize(int(result.DocumentsCopied), "document", "documents"),
		result.IndexesCreated,
		util.Pluralize(result.IndexesCreated, "index", "indexes"),
		result.Method,
	)
}

func printVerification(src mongocopy.Namespace, report *mongocopy.VerificationReport) {
	status := "OK"
	if !report.Ok() {
		status = "FAILED"
	}
	checksum := "skipped"
	if report.ChecksumMatch != nil {
		checksum = fmt.Sprintf("%v", *report.ChecksumMatch)
	}
	fmt.Printf("verify %v: %v (counts %v/%v, indexes %v/%v, sample mismatches %v, checksum %v)\n",
		src, status,
		report.SourceCount, report.TargetCount,
		report.SourceIndexCount, report.TargetIndexCount,
		len(report.SampleMismatches), checksum,
	)
	for _, mismatch := range report.SampleMismatches {
		fmt.Printf("  mismatch: %v\n", mismatch)
	}
}

// runBackup executes a backup task.
func (mw *MongoWizard) runBackup(task settings.BackupTask) error {
	uri := mw.resolveHost(task.Host)
	provider, err := db.NewSessionProvider(uri, db.DefaultConnectTimeout)
	if err != nil {
		return errors.Wrap(err, "connecting to source")
	}
	defer provider.Close()

	backend, err := storage.New(mw.resolveStorage(task.Storage))
	if err != nil {
		return err
	}
	defer backend.Close()

	mb := mongobackup.New(provider, uri, backend, mongobackup.Options{
		Force:   mw.Options.AssumeYes,
		Confirm: mw.confirm(),
	})

	result, err := mb.Backup(task.Database, task.Collections, task.ArchiveName)
	if err != nil {
		return err
	}

	fmt.Printf("backed up %v (%v %v) to %v as %v (%v)\n",
		result.Database,
		len(result.Collections),
		util.Pluralize(len(result.Collections), "collection", "collections"),
		backend.Location(),
		result.ArchiveName,
		storage.FileInfo{Size: result.ArchiveSize}.HumanSize(),
	)
	return nil
}

// runRestore executes a restore task.
func (mw *MongoWizard) runRestore(task settings.RestoreTask) error {
	uri := mw.resolveHost(task.Host)
	provider, err := db.NewSessionProvider(uri, db.DefaultConnectTimeout)
	if err != nil {
		return errors.Wrap(err, "connecting to target")
	}
	defer provider.Close()

	backend, err := storage.New(mw.resolveStorage(task.Storage))
	if err != nil {
		return err
	}
	defer backend.Close()

	mb := mongobackup.New(provider, uri, backend, mongobackup.Options{
		Force:   mw.Options.AssumeYes,
		Confirm: mw.confirm(),
	})

	result, err := mb.Restore(task.Archive, task.Database, task.Drop)
	if err != nil {
		return err
	}

	fmt.Printf("restored %v into %v:\n", result.ArchiveDatabase, result.Database)
	for _, name := range sortedCollectionNames(result.CollectionCounts) {
		fmt.Printf("  %-32v %v %v\n", name, result.CollectionCounts[name],
			util.Pluralize(int(result.CollectionCounts[name]), "document", "documents"))
	}
	return nil
}

func sortedCollectionNames(counts map[string]int64) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// runListBackups lists archives at the storage location.
func (mw *MongoWizard) runListBackups() error {
	backend, err := storage.New(mw.resolveStorage(mw.Options.Storage))
	if err != nil {
		return err
	}
	defer backend.Close()

	mb := mongobackup.New(nil, "", backend, mongobackup.Options{})
	files, err := mb.ListBackups("", mw.Options.SourceDB)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		fmt.Println("no backups found")
		return nil
	}
	for _, file := range files {
		fmt.Printf("%-48v %10v  %v\n", file.Name, file.HumanSize(),
			file.ModTime.Format("2006-01-02 15:04:05"))
	}
	return nil
}
