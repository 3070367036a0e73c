// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package mongowizard is the command-line surface tying the copy, backup and
// settings layers together.
package mongowizard

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mongo-wizard/mongo-wizard/settings"
	"github.com/pkg/errors"
)

// MongoWizard executes one invocation of the tool.
type MongoWizard struct {
	Options Options
	Store   *settings.Store
}

// New opens the settings store and returns a runnable MongoWizard.
func New(opts Options) (*MongoWizard, error) {
	path := opts.Settings
	if path == "" {
		path = settings.DefaultPath()
	}
	store, err := settings.Open(path)
	if err != nil {
		return nil, err
	}
	return &MongoWizard{Options: opts, Store: store}, nil
}

// ValidateOptions rejects option combinations before any connection is made.
func (mw *MongoWizard) ValidateOptions(args []string) error {
	if len(args) > 0 {
		return errors.Errorf("unexpected positional arguments: %v", strings.Join(args, " "))
	}

	actions := 0
	a := mw.Options.ActionOptions
	for _, set := range []bool{
		a.Task != "", a.ListTasks, a.ListHosts, a.VerifyConnection != "",
		a.Backup, a.Restore != "", a.ListBackups,
		a.SaveHost != "", a.SaveStorage != "", a.SaveTask != "",
		a.DeleteHost != "", a.DeleteTask != "", a.DeleteStorage != "",
	} {
		if set {
			actions++
		}
	}
	if actions > 1 {
		return errors.New("only one action may be specified per invocation")
	}

	if actions == 0 {
		// direct copy
		if mw.Options.Source == "" || mw.Options.Target == "" {
			return errors.New("a direct copy needs --source and --target (or use an action flag)")
		}
		if mw.Options.SourceDB == "" || mw.Options.TargetDB == "" {
			return errors.New("a direct copy needs --source-db and --target-db")
		}
	}

	if a.Backup {
		if mw.Options.Source == "" || mw.Options.SourceDB == "" {
			return errors.New("--backup needs --source and --source-db")
		}
		if mw.Options.Storage == "" {
			return errors.New("--backup needs --storage")
		}
	}
	if a.Restore != "" {
		if mw.Options.Target == "" || mw.Options.TargetDB == "" {
			return errors.New("--restore needs --target and --target-db")
		}
		if mw.Options.Storage == "" {
			return errors.New("--restore needs --storage")
		}
	}
	if a.ListBackups && mw.Options.Storage == "" {
		return errors.New("--list-backups needs --storage")
	}

	if a.SaveHost != "" && !strings.Contains(a.SaveHost, "=") {
		return errors.New("--save-host takes <name>=<uri>")
	}
	if a.SaveStorage != "" && !strings.Contains(a.SaveStorage, "=") {
		return errors.New("--save-storage takes <name>=<location>")
	}
	if a.SaveTask != "" {
		switch mw.Options.TaskType {
		case settings.TaskTypeCopy:
			if mw.Options.Source == "" || mw.Options.SourceDB == "" ||
				mw.Options.Target == "" || mw.Options.TargetDB == "" {
				return errors.New("saving a copy task needs --source, --source-db, --target and --target-db")
			}
		case settings.TaskTypeBackup:
			if mw.Options.Source == "" || mw.Options.SourceDB == "" || mw.Options.Storage == "" {
				return errors.New("saving a backup task needs --source, --source-db and --storage")
			}
		case settings.TaskTypeRestore:
			if mw.Options.Target == "" || mw.Options.TargetDB == "" ||
				mw.Options.Storage == "" || mw.Options.ArchiveName == "" {
				return errors.New("saving a restore task needs --target, --target-db, --storage and --archive-name")
			}
		}
	}

	return nil
}

// Run dispatches to the selected action.
func (mw *MongoWizard) Run() error {
	a := mw.Options.ActionOptions
	switch {
	case a.VerifyConnection != "":
		return mw.runVerifyConnection(a.VerifyConnection)
	case a.ListHosts:
		return mw.runListHosts()
	case a.ListTasks:
		return mw.runListTasks()
	case a.ListBackups:
		return mw.runListBackups()
	case a.SaveHost != "":
		return mw.runSaveHost(a.SaveHost)
	case a.SaveStorage != "":
		return mw.runSaveStorage(a.SaveStorage)
	case a.SaveTask != "":
		return mw.runSaveTask(a.SaveTask)
	case a.DeleteHost != "":
		return mw.runDeleteHost(a.DeleteHost)
	case a.DeleteTask != "":
		return mw.runDeleteTask(a.DeleteTask)
	case a.DeleteStorage != "":
		return mw.runDeleteStorage(a.DeleteStorage)
	case a.Task != "":
		return mw.runTask(a.Task)
	case a.Backup:
		return mw.runBackup(settings.BackupTask{
			Host:        mw.Options.Source,
			Database:    mw.Options.SourceDB,
			Collections: mw.Options.BehaviorOptions.Collections,
			Storage:     mw.Options.Storage,
			ArchiveName: mw.Options.ArchiveName,
		})
	case a.Restore != "":
		return mw.runRestore(settings.RestoreTask{
			Host:     mw.Options.Target,
			Database: mw.Options.TargetDB,
			Storage:  mw.Options.Storage,
			Archive:  a.Restore,
			Drop:     mw.Options.Drop,
		})
	default:
		return mw.runCopy(settings.CopyTask{
			Source:           mw.Options.Source,
			SourceDB:         mw.Options.SourceDB,
			Target:           mw.Options.Target,
			TargetDB:         mw.Options.TargetDB,
			Collections:      collectionList(mw.Options.SourceCollection),
			TargetCollection: mw.Options.TargetCollection,
			Drop:             mw.Options.Drop,
			Verify:           mw.Options.Verify,
		})
	}
}

func collectionList(collection string) []string {
	if collection == "" {
		return nil
	}
	return []string{collection}
}

// resolveHost maps a saved host name to its connection string; anything not
// saved is taken as a connection string itself.
func (mw *MongoWizard) resolveHost(nameOrURI string) string {
	if uri, ok := mw.Store.Host(nameOrURI); ok {
		return uri
	}
	return nameOrURI
}

// resolveStorage maps a saved storage name to its location string.
func (mw *MongoWizard) resolveStorage(nameOrLocation string) string {
	if location, ok := mw.Store.StorageLocation(nameOrLocation); ok {
		return location
	}
	return nameOrLocation
}

// confirm returns the interactive confirmation function, or nil when the
// process cannot ask (no terminal and no --assume-yes).
func (mw *MongoWizard) confirm() func(string) bool {
	if mw.Options.AssumeYes {
		return func(string) bool { return true }
	}
	if !isTerminal(os.Stdin) {
		return nil
	}
	return func(prompt string) bool {
		fmt.Printf("%v [y/N] ", prompt)
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}

func isTerminal(file *os.File) bool {
	info, err := file.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
