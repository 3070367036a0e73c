// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package mongocopy implements copying collections between MongoDB
// deployments, either by piping the native dump/restore tools together or by
// a driver-level batch insert loop, plus post-copy verification.
package mongocopy

import (
	"context"
	"strings"

	"github.com/mongo-wizard/mongo-wizard/common/db"
	"github.com/mongo-wizard/mongo-wizard/common/log"
	"github.com/mongo-wizard/mongo-wizard/common/util"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
)

// DefaultBatchSize is the number of documents buffered per bulk insert in
// the driver copy loop.
const DefaultBatchSize = 1000

// Method identifies how documents were moved.
type Method string

const (
	MethodNativeDump Method = "native-dump"
	MethodDriverCopy Method = "driver-copy"
)

// Copy errors surfaced to callers.
var (
	// ErrDropNeedsForce is returned when a drop of a non-empty target was
	// requested non-interactively without the force flag.
	ErrDropNeedsForce = errors.New(
		"target collection is not empty; dropping it requires --force or interactive confirmation")

	// ErrDropDeclined is returned when the user answered no to the drop
	// confirmation prompt.
	ErrDropDeclined = errors.New("drop not confirmed, operation aborted")
)

// Namespace identifies a collection within a database.
type Namespace struct {
	DB         string
	Collection string
}

func (ns Namespace) String() string {
	return ns.DB + "." + ns.Collection
}

// ParseNamespace splits "database.collection" on the first dot.
func ParseNamespace(ns string) (Namespace, error) {
	if err := util.ValidateFullNamespace(ns); err != nil {
		return Namespace{}, err
	}
	database, collection, _ := strings.Cut(ns, ".")
	return Namespace{DB: database, Collection: collection}, nil
}

// CopyResult reports the outcome of a single collection copy. It is produced
// once per copy and never persisted.
type CopyResult struct {
	DocumentsCopied int64
	IndexesCreated  int
	SourceCount     int64
	Method          Method
}

// Options control a MongoCopy run.
type Options struct {
	// Drop the target collection before copying.
	Drop bool

	// Force suppresses the interactive confirmation before dropping a
	// non-empty target.
	Force bool

	// ForceDriver disables the native dump/restore pipe even when the
	// tools are installed.
	ForceDriver bool

	// BatchSize is the bulk insert batch size for the driver copy loop.
	// Zero means DefaultBatchSize.
	BatchSize int

	// Confirm asks the user a yes/no question. A nil Confirm marks the
	// run as non-interactive.
	Confirm func(prompt string) bool
}

// MongoCopy copies collections from a source deployment to a target
// deployment. Both session providers must be connected.
type MongoCopy struct {
	SourceProvider *db.SessionProvider
	TargetProvider *db.SessionProvider

	// connection strings, needed to pass through to the native tools
	sourceURI string
	targetURI string

	Options Options
}

// New returns a MongoCopy over the given connected providers. The URIs are
// the connection strings the providers were built from; they are handed to
// the native tools verbatim.
func New(source, target *db.SessionProvider, sourceURI, targetURI string, opts Options) *MongoCopy {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	return &MongoCopy{
		SourceProvider: source,
		TargetProvider: target,
		sourceURI:      sourceURI,
		targetURI:      targetURI,
		Options:        opts,
	}
}

// CopyCollection copies one collection from source to target, selecting the
// native or driver method per the configured policy.
func (mc *MongoCopy) CopyCollection(src, dst Namespace) (*CopyResult, error) {
	sourceColl := mc.SourceProvider.DB(src.DB).Collection(src.Collection)

	sourceCount, err := sourceColl.EstimatedDocumentCount(context.Background())
	if err != nil {
		return nil, errors.Wrapf(err, "counting documents in %v", src)
	}
	log.Logvf(log.Info, "source %v has an estimated %v %v", src, sourceCount,
		util.Pluralize(int(sourceCount), "document", "documents"))

	if mc.Options.Drop {
		if err := mc.dropTarget(dst); err != nil {
			return nil, err
		}
	}

	if !mc.Options.ForceDriver {
		outcome := mc.runNativePipe(src, dst)
		switch outcome.Status {
		case NativeSucceeded:
			return mc.nativeResult(dst, sourceCount)
		case NativeToolAbsent:
			log.Logvf(log.Always,
				"native database tools not found, falling back to driver copy: %v", outcome.Err)
		case NativeFailed:
			log.Logvf(log.Always,
				"native dump/restore pipe failed, falling back to driver copy: %v", outcome.Err)
		}
	}

	return mc.driverCopy(src, dst, sourceCount)
}

// CopyDatabase copies every non-system collection of srcDB into dstDB.
func (mc *MongoCopy) CopyDatabase(srcDB, dstDB string) ([]*CopyResult, error) {
	collections, err := mc.SourceCollections(srcDB)
	if err != nil {
		return nil, err
	}
	return mc.CopyCollections(srcDB, dstDB, collections)
}

// CopyCollections copies an explicit subset of srcDB's collections into
// dstDB, keeping collection names.
func (mc *MongoCopy) CopyCollections(srcDB, dstDB string, collections []string) ([]*CopyResult, error) {
	results := make([]*CopyResult, 0, len(collections))
	for _, coll := range collections {
		log.Logvf(log.Always, "copying %v.%v to %v.%v", srcDB, coll, dstDB, coll)
		result, err := mc.CopyCollection(
			Namespace{DB: srcDB, Collection: coll},
			Namespace{DB: dstDB, Collection: coll},
		)
		if err != nil {
			return results, errors.Wrapf(err, "copying %v.%v", srcDB, coll)
		}
		results = append(results, result)
	}
	return results, nil
}

// SourceCollections lists the collections of the source database, excluding
// system collections.
func (mc *MongoCopy) SourceCollections(database string) ([]string, error) {
	names, err := mc.SourceProvider.DB(database).ListCollectionNames(context.Background(), bson.D{})
	if err != nil {
		return nil, errors.Wrapf(err, "listing collections of %v", database)
	}

	collections := lo.Filter(names, func(name string, _ int) bool {
		return !strings.HasPrefix(name, "system.")
	})
	return collections, nil
}

// dropTarget enforces the drop contract: a non-empty target is only dropped
// under force or after interactive confirmation. An empty or absent target
// is dropped silently.
func (mc *MongoCopy) dropTarget(dst Namespace) error {
	targetColl := mc.TargetProvider.DB(dst.DB).Collection(dst.Collection)

	count, err := targetColl.EstimatedDocumentCount(context.Background())
	if err != nil {
		return errors.Wrapf(err, "counting documents in target %v", dst)
	}

	if count > 0 && !mc.Options.Force {
		if mc.Options.Confirm == nil {
			return errors.Wrapf(ErrDropNeedsForce, "target %v holds %v documents", dst, count)
		}
		if !mc.Options.Confirm(
			"target " + dst.String() + " is not empty, drop it and continue?") {
			return ErrDropDeclined
		}
	}

	log.Logvf(log.Info, "dropping target collection %v", dst)
	if err := targetColl.Drop(context.Background()); err != nil {
		return errors.Wrapf(err, "dropping target %v", dst)
	}
	return nil
}

// nativeResult builds the CopyResult after a successful native pipe by
// observing the target.
func (mc *MongoCopy) nativeResult(dst Namespace, sourceCount int64) (*CopyResult, error) {
	targetColl := mc.TargetProvider.DB(dst.DB).Collection(dst.Collection)

	copied, err := targetColl.CountDocuments(context.Background(), bson.D{})
	if err != nil {
		return nil, errors.Wrapf(err, "counting documents in target %v", dst)
	}

	indexes, err := listIndexes(targetColl)
	if err != nil {
		return nil, errors.Wrapf(err, "listing indexes on target %v", dst)
	}
	created := 0
	for _, idx := range indexes {
		if idx.Name() != "_id_" {
			created++
		}
	}

	return &CopyResult{
		DocumentsCopied: copied,
		IndexesCreated:  created,
		SourceCount:     sourceCount,
		Method:          MethodNativeDump,
	}, nil
}
