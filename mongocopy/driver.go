// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package mongocopy

import (
	"context"

	"github.com/mongo-wizard/mongo-wizard/common/db"
	"github.com/mongo-wizard/mongo-wizard/common/log"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// driverCopy copies documents through the driver: indexes first, then an
// unordered cursor streamed into unordered bulk inserts. Transfer errors
// propagate; ignorable write errors (duplicate key, document validation) are
// continued through so one bad document cannot abort a batch.
func (mc *MongoCopy) driverCopy(src, dst Namespace, sourceCount int64) (*CopyResult, error) {
	sourceColl := mc.SourceProvider.DB(src.DB).Collection(src.Collection)
	targetColl := mc.TargetProvider.DB(dst.DB).Collection(dst.Collection)

	indexesCreated, err := mc.replicateIndexes(src, dst)
	if err != nil {
		return nil, errors.Wrapf(err, "replicating indexes from %v", src)
	}

	cursor, err := sourceColl.Find(context.Background(), bson.D{})
	if err != nil {
		return nil, errors.Wrapf(err, "opening cursor on %v", src)
	}
	defer cursor.Close(context.Background())

	inserter := db.NewUnorderedBufferedBulkInserter(targetColl, mc.Options.BatchSize).
		SetBypassDocumentValidation(true)

	var copied int64
	for cursor.Next(context.Background()) {
		result, err := inserter.InsertRaw(cursor.Current)
		if err = db.FilterError(false, err); err != nil {
			return nil, errors.Wrapf(err, "inserting documents into %v", dst)
		}
		copied += insertedCount(result)
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading documents from %v", src)
	}

	result, err := inserter.Flush()
	if err = db.FilterError(false, err); err != nil {
		return nil, errors.Wrapf(err, "flushing final batch to %v", dst)
	}
	copied += insertedCount(result)

	// An empty source still materializes the target collection.
	if copied == 0 {
		if err := ensureCollectionExists(targetColl); err != nil {
			return nil, err
		}
	}

	log.Logvf(log.Info, "copied %v documents from %v to %v via the driver", copied, src, dst)

	return &CopyResult{
		DocumentsCopied: copied,
		IndexesCreated:  indexesCreated,
		SourceCount:     sourceCount,
		Method:          MethodDriverCopy,
	}, nil
}

func insertedCount(result *mongo.BulkWriteResult) int64 {
	if result == nil {
		return 0
	}
	return result.InsertedCount
}

// ensureCollectionExists creates the target collection explicitly, which is
// only needed when no document insert did it implicitly. An "already exists"
// error is fine.
func ensureCollectionExists(coll *mongo.Collection) error {
	err := coll.Database().CreateCollection(context.Background(), coll.Name())
	if err == nil {
		return nil
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Name == "NamespaceExists" {
		return nil
	}
	return errors.Wrapf(err, "creating collection %v", coll.Name())
}
