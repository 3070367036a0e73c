// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package mongowizard

import (
	"github.com/mongo-wizard/mongo-wizard/common/options"
)

var Usage = `<options>

Copy MongoDB collections between deployments, back databases up to local or
remote storage, and restore them. Saved hosts, tasks and storage locations
come from the settings file.`

// SourceOptions identify the copy source.
type SourceOptions struct {
	Source           string `long:"source" value-name:"<uri-or-host>" description:"source connection string, or the name of a saved host"`
	SourceDB         string `long:"source-db" value-name:"<database>" description:"source database name"`
	SourceCollection string `long:"source-collection" value-name:"<collection>" description:"source collection name; omit to copy the whole database"`
}

// Name returns a human-readable group name for source options.
func (*SourceOptions) Name() string {
	return "source"
}

// TargetOptions identify the copy target.
type TargetOptions struct {
	Target           string `long:"target" value-name:"<uri-or-host>" description:"target connection string, or the name of a saved host"`
	TargetDB         string `long:"target-db" value-name:"<database>" description:"target database name"`
	TargetCollection string `long:"target-collection" value-name:"<collection>" description:"target collection name; defaults to the source collection name"`
}

// Name returns a human-readable group name for target options.
func (*TargetOptions) Name() string {
	return "target"
}

// ActionOptions select what to do. At most one action may be set; with none,
// a direct copy is performed from the source and target options.
type ActionOptions struct {
	Task             string `long:"task" value-name:"<name>" description:"run a saved task"`
	ListTasks        bool   `long:"list-tasks" description:"list saved tasks and exit"`
	ListHosts        bool   `long:"list-hosts" description:"list saved hosts with a quick liveness check and exit"`
	VerifyConnection string `long:"verify-connection" value-name:"<uri-or-host>" description:"check that a deployment is reachable and exit"`
	Backup           bool   `long:"backup" description:"back the source database up to the storage location"`
	Restore          string `long:"restore" value-name:"<archive>" description:"restore the named archive from the storage location into the target database"`
	ListBackups      bool   `long:"list-backups" description:"list archives at the storage location and exit"`
	SaveHost         string `long:"save-host" value-name:"<name>=<uri>" description:"save a named host in the settings file and exit"`
	SaveStorage      string `long:"save-storage" value-name:"<name>=<location>" description:"save a named storage location in the settings file and exit"`
	SaveTask         string `long:"save-task" value-name:"<name>" description:"save the operation described by the other flags as a named task and exit (see --task-type)"`
	DeleteHost       string `long:"delete-host" value-name:"<name>" description:"delete a saved host and exit"`
	DeleteTask       string `long:"delete-task" value-name:"<name>" description:"delete a saved task and exit"`
	DeleteStorage    string `long:"delete-storage" value-name:"<name>" description:"delete a saved storage location and exit"`
}

// Name returns a human-readable group name for action options.
func (*ActionOptions) Name() string {
	return "action"
}

// BehaviorOptions tune how operations run.
type BehaviorOptions struct {
	Drop        bool     `long:"drop" description:"drop the target collection (or database, for restore) before writing"`
	Verify      bool     `long:"verify" description:"verify the copy afterward (counts, indexes, sample, checksum)"`
	ForceDriver bool     `long:"force-driver" description:"always copy through the driver, never the native dump/restore tools"`
	AssumeYes   bool     `short:"y" long:"assume-yes" description:"answer yes to every confirmation prompt; required for destructive operations when not attached to a terminal"`
	Collections []string `long:"collection" value-name:"<name>" description:"collection to include in a backup (repeatable; omit for all non-system collections)"`
	Storage     string   `long:"storage" value-name:"<location>" description:"storage location string, or the name of a saved storage"`
	ArchiveName string   `long:"archive-name" value-name:"<file>" description:"archive file name; defaults to <timestamp>-<database>.tar.gz"`
	TaskType    string   `long:"task-type" value-name:"<type>" choice:"copy" choice:"backup" choice:"restore" default:"copy" description:"the kind of task --save-task saves"`
	Settings    string   `long:"settings" value-name:"<file>" description:"settings file path (default ~/.mongo-wizard.yaml)"`
}

// Name returns a human-readable group name for behavior options.
func (*BehaviorOptions) Name() string {
	return "behavior"
}

// Options bundles every option group of the tool.
type Options struct {
	*options.ToolOptions
	*SourceOptions
	*TargetOptions
	*ActionOptions
	*BehaviorOptions
}

// ParseOptions parses the command line into the tool's option groups.
func ParseOptions(rawArgs []string, versionStr, gitCommit string) ([]string, Options, error) {
	opts := Options{
		ToolOptions:     options.New("mongowizard", versionStr, gitCommit, Usage),
		SourceOptions:   &SourceOptions{},
		TargetOptions:   &TargetOptions{},
		ActionOptions:   &ActionOptions{},
		BehaviorOptions: &BehaviorOptions{},
	}
	opts.AddOptions(opts.SourceOptions)
	opts.AddOptions(opts.TargetOptions)
	opts.AddOptions(opts.ActionOptions)
	opts.AddOptions(opts.BehaviorOptions)

	args, err := opts.ParseArgs(rawArgs)
	if err != nil {
		return nil, Options{}, err
	}
	return args, opts, nil
}
