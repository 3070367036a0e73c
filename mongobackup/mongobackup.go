// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package mongobackup drives archive-based backups and restores: mongodump
// into a scratch directory, tar.gz packaging, upload to a storage backend,
// and the reverse path for restore. The native tools are a hard requirement
// here; the dump archive format is theirs.
package mongobackup

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/mongo-wizard/mongo-wizard/common/db"
	"github.com/mongo-wizard/mongo-wizard/storage"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

// ErrDropNeedsForce is returned when a restore into a non-empty target
// database requested a drop non-interactively without the force flag.
var ErrDropNeedsForce = errors.New(
	"target database is not empty; dropping it requires --force or interactive confirmation")

// ErrDropDeclined is returned when the user answered no to the drop
// confirmation prompt.
var ErrDropDeclined = errors.New("drop not confirmed, operation aborted")

// Options control a MongoBackup run.
type Options struct {
	// Force suppresses the interactive confirmation before dropping a
	// non-empty target database on restore.
	Force bool

	// Confirm asks the user a yes/no question. A nil Confirm marks the
	// run as non-interactive.
	Confirm func(prompt string) bool
}

// MongoBackup backs up databases of one deployment to a storage backend and
// restores archives from it.
type MongoBackup struct {
	Provider *db.SessionProvider
	Storage  storage.Backend

	// the connection string the provider was built from, handed to the
	// native tools verbatim
	uri string

	Options Options
}

// New returns a MongoBackup over a connected provider and storage backend.
func New(provider *db.SessionProvider, uri string, backend storage.Backend, opts Options) *MongoBackup {
	return &MongoBackup{
		Provider: provider,
		Storage:  backend,
		uri:      uri,
		Options:  opts,
	}
}

// scratchDir creates a unique scratch directory for one operation. The
// caller removes it unconditionally when done.
func scratchDir() (string, error) {
	dir := filepath.Join(os.TempDir(), "mongo-wizard-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, "creating scratch directory %v", dir)
	}
	return dir, nil
}

// resolveCollections returns the collections included in a backup: the
// explicit subset when given, otherwise every collection of the database
// minus administrative/system ones.
func (mb *MongoBackup) resolveCollections(database string, explicit []string) ([]string, error) {
	names, err := mb.Provider.DB(database).ListCollectionNames(context.Background(), bson.D{})
	if err != nil {
		return nil, errors.Wrapf(err, "listing collections of %v", database)
	}

	available := mapset.NewSet(names...)

	if len(explicit) > 0 {
		requested := mapset.NewSet(explicit...)
		if missing := requested.Difference(available); missing.Cardinality() > 0 {
			return nil, errors.Errorf("collections not found in %v: %v",
				database, strings.Join(missing.ToSlice(), ", "))
		}
		return explicit, nil
	}

	var collections []string
	for _, name := range names {
		if !strings.HasPrefix(name, "system.") {
			collections = append(collections, name)
		}
	}
	return collections, nil
}

// collectionCounts returns the document count of each named collection.
func (mb *MongoBackup) collectionCounts(database string, collections []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(collections))
	for _, name := range collections {
		count, err := mb.Provider.DB(database).
			Collection(name).
			EstimatedDocumentCount(context.Background())
		if err != nil {
			return nil, errors.Wrapf(err, "counting documents in %v.%v", database, name)
		}
		counts[name] = count
	}
	return counts, nil
}
