// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package mongocopy

import (
	"context"

	"github.com/mongo-wizard/mongo-wizard/common/log"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// IndexDocument holds information about a collection's index.
type IndexDocument struct {
	Options                 bson.M `bson:",inline"`
	Key                     bson.D `bson:"key"`
	PartialFilterExpression bson.D `bson:"partialFilterExpression,omitempty"`
}

// Name returns the index name recorded in the options, or "".
func (id IndexDocument) Name() string {
	name, _ := id.Options["name"].(string)
	return name
}

// validIndexOptions are taken from https://github.com/mongodb/mongo/blob/master/src/mongo/db/index/index_descriptor.h.
// Anything else on a listed index is server bookkeeping (index version,
// namespace, ...) that is not portable between deployments.
var validIndexOptions = map[string]bool{
	"2dsphereIndexVersion": true,
	"background":           true,
	"bits":                 true,
	"bucketSize":           true,
	"coarsestIndexedLevel": true,
	"collation":            true,
	"default_language":     true,
	"expireAfterSeconds":   true,
	"finestIndexedLevel":   true,
	"language_override":    true,
	"max":                  true,
	"min":                  true,
	"name":                 true,
	"sparse":               true,
	"storageEngine":        true,
	"textIndexVersion":     true,
	"unique":               true,
	"weights":              true,
	"wildcardProjection":   true,
}

// stripIndexOptions removes the non-portable options from an index document,
// keeping only options the target's createIndexes will accept.
func stripIndexOptions(index *IndexDocument) {
	for key := range index.Options {
		if !validIndexOptions[key] {
			delete(index.Options, key)
		}
	}
}

// replicateIndexes copies every index of the source collection except the
// implicit _id index onto the target. Index creations are independent: a
// failure is logged and skipped, favoring partial success over
// all-or-nothing. Returns the number of indexes created.
func (mc *MongoCopy) replicateIndexes(src, dst Namespace) (int, error) {
	sourceColl := mc.SourceProvider.DB(src.DB).Collection(src.Collection)

	indexes, err := listIndexes(sourceColl)
	if err != nil {
		// A missing source collection simply has no indexes to copy.
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Name == "NamespaceNotFound" {
			return 0, nil
		}
		return 0, errors.Wrapf(err, "listing indexes on %v", src)
	}

	created := 0
	for _, index := range indexes {
		if index.Name() == "_id_" {
			continue
		}
		stripIndexOptions(&index)

		if err := createIndex(mc.TargetProvider.DB(dst.DB), dst.Collection, index); err != nil {
			log.Logvf(log.Always, "could not create index %v on %v: %v", index.Name(), dst, err)
			continue
		}
		log.Logvf(log.DebugLow, "created index %v on %v", index.Name(), dst)
		created++
	}
	return created, nil
}

// listIndexes returns the index documents of a collection.
func listIndexes(coll *mongo.Collection) ([]IndexDocument, error) {
	cursor, err := coll.Indexes().List(context.Background())
	if err != nil {
		return nil, err
	}
	defer cursor.Close(context.Background())

	var indexes []IndexDocument
	for cursor.Next(context.Background()) {
		index := IndexDocument{Options: bson.M{}}
		if err := cursor.Decode(&index); err != nil {
			return nil, err
		}
		indexes = append(indexes, index)
	}
	return indexes, cursor.Err()
}

// createIndex issues a createIndexes command so arbitrary listed options can
// be passed through unchanged.
func createIndex(database *mongo.Database, collection string, index IndexDocument) error {
	spec := bson.D{{Key: "key", Value: index.Key}}
	if index.PartialFilterExpression != nil {
		spec = append(spec, bson.E{Key: "partialFilterExpression", Value: index.PartialFilterExpression})
	}
	for key, value := range index.Options {
		spec = append(spec, bson.E{Key: key, Value: value})
	}

	command := bson.D{
		{Key: "createIndexes", Value: collection},
		{Key: "indexes", Value: []bson.D{spec}},
	}
	return database.RunCommand(context.Background(), command).Err()
}
