// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package settings persists named hosts, tasks and storage locations to a
// YAML file. The store is an explicit handle, loaded fully at open and
// rewritten fully on every mutation; concurrent external writers are
// last-writer-wins by design.
package settings

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// DefaultFileName is the settings file used when no path is given.
const DefaultFileName = ".mongo-wizard.yaml"

// DefaultPath returns the settings path in the user's home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(home, DefaultFileName)
}

// fileContents is the full on-disk document.
type fileContents struct {
	Hosts    map[string]string `yaml:"hosts,omitempty"`
	Tasks    map[string]Task   `yaml:"tasks,omitempty"`
	Storages map[string]string `yaml:"storages,omitempty"`
}

// Store holds the loaded settings of one file.
type Store struct {
	path     string
	hosts    map[string]string
	tasks    map[string]Task
	storages map[string]string
}

// Open loads the settings file at path, or returns an empty store when the
// file does not exist yet.
func Open(path string) (*Store, error) {
	store := &Store{
		path:     path,
		hosts:    map[string]string{},
		tasks:    map[string]Task{},
		storages: map[string]string{},
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return store, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading settings file %v", path)
	}

	var contents fileContents
	if err := yaml.Unmarshal(data, &contents); err != nil {
		return nil, errors.Wrapf(err, "parsing settings file %v", path)
	}
	if contents.Hosts != nil {
		store.hosts = contents.Hosts
	}
	if contents.Tasks != nil {
		store.tasks = contents.Tasks
	}
	if contents.Storages != nil {
		store.storages = contents.Storages
	}
	return store, nil
}

// save rewrites the whole file.
func (s *Store) save() error {
	data, err := yaml.Marshal(fileContents{
		Hosts:    s.hosts,
		Tasks:    s.tasks,
		Storages: s.storages,
	})
	if err != nil {
		return errors.Wrap(err, "encoding settings")
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "creating settings directory %v", dir)
		}
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return errors.Wrapf(err, "writing settings file %v", s.path)
	}
	return nil
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Host returns a saved connection string by name.
func (s *Store) Host(name string) (string, bool) {
	uri, ok := s.hosts[name]
	return uri, ok
}

// HostNames returns the saved host names, sorted.
func (s *Store) HostNames() []string {
	return sortedKeys(s.hosts)
}

// Hosts returns a copy of the saved hosts map.
func (s *Store) Hosts() map[string]string {
	hosts := make(map[string]string, len(s.hosts))
	for name, uri := range s.hosts {
		hosts[name] = uri
	}
	return hosts
}

// SetHost saves or replaces a named host and rewrites the file.
func (s *Store) SetHost(name, uri string) error {
	s.hosts[name] = uri
	return s.save()
}

// DeleteHost removes a named host and rewrites the file. Removing an absent
// name is not an error.
func (s *Store) DeleteHost(name string) error {
	delete(s.hosts, name)
	return s.save()
}

// Task returns a saved task by name.
func (s *Store) Task(name string) (Task, bool) {
	task, ok := s.tasks[name]
	return task, ok
}

// TaskNames returns the saved task names, sorted.
func (s *Store) TaskNames() []string {
	return sortedKeys(s.tasks)
}

// SetTask saves or replaces a named task and rewrites the file.
func (s *Store) SetTask(name string, task Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	s.tasks[name] = task
	return s.save()
}

// DeleteTask removes a named task and rewrites the file.
func (s *Store) DeleteTask(name string) error {
	delete(s.tasks, name)
	return s.save()
}

// StorageLocation returns a saved storage location string by name.
func (s *Store) StorageLocation(name string) (string, bool) {
	location, ok := s.storages[name]
	return location, ok
}

// StorageNames returns the saved storage names, sorted.
func (s *Store) StorageNames() []string {
	return sortedKeys(s.storages)
}

// SetStorageLocation saves or replaces a named storage location and rewrites
// the file.
func (s *Store) SetStorageLocation(name, location string) error {
	s.storages[name] = location
	return s.save()
}

// DeleteStorageLocation removes a named storage location and rewrites the
// file.
func (s *Store) DeleteStorageLocation(name string) error {
	delete(s.storages, name)
	return s.save()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
