// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package settings

import (
	"github.com/pkg/errors"
)

// Task type tags as stored in the settings file.
const (
	TaskTypeCopy    = "copy"
	TaskTypeBackup  = "backup"
	TaskTypeRestore = "restore"
)

// CopyTask copies collections between two deployments.
type CopyTask struct {
	Source           string   `yaml:"source"`
	SourceDB         string   `yaml:"source_db"`
	Target           string   `yaml:"target"`
	TargetDB         string   `yaml:"target_db"`
	Collections      []string `yaml:"collections,omitempty"`
	TargetCollection string   `yaml:"target_collection,omitempty"`
	Drop             bool     `yaml:"drop,omitempty"`
	Verify           bool     `yaml:"verify,omitempty"`
}

// BackupTask archives a database to a storage location.
type BackupTask struct {
	Host        string   `yaml:"host"`
	Database    string   `yaml:"database"`
	Collections []string `yaml:"collections,omitempty"`
	Storage     string   `yaml:"storage"`
	ArchiveName string   `yaml:"archive_name,omitempty"`
}

// RestoreTask restores an archive from a storage location into a database.
type RestoreTask struct {
	Host     string `yaml:"host"`
	Database string `yaml:"database"`
	Storage  string `yaml:"storage"`
	Archive  string `yaml:"archive"`
	Drop     bool   `yaml:"drop,omitempty"`
}

// Task is a named, persisted operation. Exactly one variant is set,
// matching the type tag, so invalid field combinations are unrepresentable
// past construction.
type Task struct {
	Type    string
	Copy    *CopyTask
	Backup  *BackupTask
	Restore *RestoreTask
}

// NewCopyTask wraps a CopyTask in its tagged form.
func NewCopyTask(t CopyTask) Task {
	return Task{Type: TaskTypeCopy, Copy: &t}
}

// NewBackupTask wraps a BackupTask in its tagged form.
func NewBackupTask(t BackupTask) Task {
	return Task{Type: TaskTypeBackup, Backup: &t}
}

// NewRestoreTask wraps a RestoreTask in its tagged form.
func NewRestoreTask(t RestoreTask) Task {
	return Task{Type: TaskTypeRestore, Restore: &t}
}

// Validate checks that the variant matches the type tag.
func (t Task) Validate() error {
	switch t.Type {
	case TaskTypeCopy:
		if t.Copy == nil {
			return errors.New("copy task is missing its fields")
		}
	case TaskTypeBackup:
		if t.Backup == nil {
			return errors.New("backup task is missing its fields")
		}
	case TaskTypeRestore:
		if t.Restore == nil {
			return errors.New("restore task is missing its fields")
		}
	default:
		return errors.Errorf("unknown task type %q", t.Type)
	}
	return nil
}

// taggedTask is the on-disk shape: the type tag plus the variant's fields
// nested under the matching copy/backup/restore key.
type taggedTask struct {
	Type    string       `yaml:"type"`
	Copy    *CopyTask    `yaml:"copy,omitempty"`
	Backup  *BackupTask  `yaml:"backup,omitempty"`
	Restore *RestoreTask `yaml:"restore,omitempty"`
}

// MarshalYAML implements yaml.Marshaler.
func (t Task) MarshalYAML() (interface{}, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return taggedTask{
		Type:    t.Type,
		Copy:    t.Copy,
		Backup:  t.Backup,
		Restore: t.Restore,
	}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Task) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var tagged taggedTask
	if err := unmarshal(&tagged); err != nil {
		return err
	}
	*t = Task{
		Type:    tagged.Type,
		Copy:    tagged.Copy,
		Backup:  tagged.Backup,
		Restore: tagged.Restore,
	}
	return t.Validate()
}
