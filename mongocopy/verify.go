// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package mongocopy

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/mongo-wizard/mongo-wizard/common/log"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// DefaultSampleSize is the number of random documents compared
	// field-by-field between source and target.
	DefaultSampleSize = 100

	// ChecksumThreshold is the largest source count for which the full
	// collection checksum is computed. Above it the checksum is skipped,
	// not failed.
	ChecksumThreshold = 10000
)

// VerificationReport compares a source and target collection after a copy.
// ChecksumMatch is nil when the source was too large for the full scan.
type VerificationReport struct {
	SourceCount      int64
	TargetCount      int64
	CountMatch       bool
	SourceIndexCount int
	TargetIndexCount int
	IndexMatch       bool
	SampleMismatches []string
	SampleMatch      bool
	ChecksumMatch    *bool
}

// Ok reports whether every computed check passed. A nil ChecksumMatch does
// not count as a failure.
func (r *VerificationReport) Ok() bool {
	if !r.CountMatch || !r.IndexMatch || !r.SampleMatch {
		return false
	}
	return r.ChecksumMatch == nil || *r.ChecksumMatch
}

// checksumEligible reports whether a collection of the given size gets the
// full checksum scan.
func checksumEligible(count int64) bool {
	return count <= ChecksumThreshold
}

// Verify compares src and dst by count, index count, a random document
// sample and, for small collections, a full checksum scan.
func (mc *MongoCopy) Verify(src, dst Namespace, sampleSize int) (*VerificationReport, error) {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}

	sourceColl := mc.SourceProvider.DB(src.DB).Collection(src.Collection)
	targetColl := mc.TargetProvider.DB(dst.DB).Collection(dst.Collection)

	report := &VerificationReport{}

	var err error
	if report.SourceCount, err = sourceColl.EstimatedDocumentCount(context.Background()); err != nil {
		return nil, errors.Wrapf(err, "counting documents in %v", src)
	}
	if report.TargetCount, err = targetColl.EstimatedDocumentCount(context.Background()); err != nil {
		return nil, errors.Wrapf(err, "counting documents in %v", dst)
	}
	report.CountMatch = report.SourceCount == report.TargetCount

	sourceIndexes, err := listIndexes(sourceColl)
	if err != nil {
		return nil, errors.Wrapf(err, "listing indexes on %v", src)
	}
	targetIndexes, err := listIndexes(targetColl)
	if err != nil {
		return nil, errors.Wrapf(err, "listing indexes on %v", dst)
	}
	report.SourceIndexCount = len(sourceIndexes)
	report.TargetIndexCount = len(targetIndexes)
	report.IndexMatch = report.SourceIndexCount == report.TargetIndexCount

	if report.SampleMismatches, err = mc.compareSample(sourceColl, targetColl, sampleSize); err != nil {
		return nil, err
	}
	report.SampleMatch = len(report.SampleMismatches) == 0

	if checksumEligible(report.SourceCount) {
		match, err := compareChecksums(sourceColl, targetColl)
		if err != nil {
			return nil, err
		}
		report.ChecksumMatch = &match
	} else {
		log.Logvf(log.Info, "%v exceeds %v documents, skipping checksum", src, ChecksumThreshold)
	}

	return report, nil
}

// compareSample draws a uniform random sample from source and looks each
// document up by _id on target, recording missing documents and field-level
// differences.
func (mc *MongoCopy) compareSample(source, target *mongo.Collection, sampleSize int) ([]string, error) {
	pipeline := []bson.D{{{Key: "$sample", Value: bson.D{{Key: "size", Value: sampleSize}}}}}
	cursor, err := source.Aggregate(context.Background(), pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "sampling source documents")
	}
	defer cursor.Close(context.Background())

	var mismatches []string
	for cursor.Next(context.Background()) {
		var sourceDoc bson.D
		if err := cursor.Decode(&sourceDoc); err != nil {
			return nil, errors.Wrap(err, "decoding sampled document")
		}

		id := lookupID(sourceDoc)
		var targetDoc bson.D
		err := target.FindOne(context.Background(), bson.D{{Key: "_id", Value: id}}).Decode(&targetDoc)
		if err == mongo.ErrNoDocuments {
			mismatches = append(mismatches, idString(id)+" (missing)")
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "looking up sampled document on target")
		}

		equal, err := docsEqual(sourceDoc, targetDoc)
		if err != nil {
			return nil, errors.Wrap(err, "comparing sampled documents")
		}
		if !equal {
			mismatches = append(mismatches, idString(id)+" (differs)")
		}
	}
	return mismatches, cursor.Err()
}

// docsEqual compares two documents structurally: field order may legitimately
// differ, so both are compared in canonical extended JSON form. Going through
// the codec keeps every BSON type comparable, including ones whose Go
// representation has unexported fields.
func docsEqual(source, target bson.D) (bool, error) {
	sourceJSON, err := canonicalJSON(source)
	if err != nil {
		return false, err
	}
	targetJSON, err := canonicalJSON(target)
	if err != nil {
		return false, err
	}
	return bytes.Equal(sourceJSON, targetJSON), nil
}

// compareChecksums scans both collections sorted by _id and accumulates a
// SHA-256 over each document's canonical extended JSON form. Equal digests
// imply full equality.
func compareChecksums(source, target *mongo.Collection) (bool, error) {
	sourceSum, err := collectionChecksum(source)
	if err != nil {
		return false, errors.Wrap(err, "checksumming source")
	}
	targetSum, err := collectionChecksum(target)
	if err != nil {
		return false, errors.Wrap(err, "checksumming target")
	}
	return sourceSum == targetSum, nil
}

func collectionChecksum(coll *mongo.Collection) (string, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := coll.Find(context.Background(), bson.D{}, findOpts)
	if err != nil {
		return "", err
	}
	defer cursor.Close(context.Background())

	hash := sha256.New()
	for cursor.Next(context.Background()) {
		var doc bson.D
		if err := cursor.Decode(&doc); err != nil {
			return "", err
		}
		canonical, err := canonicalJSON(doc)
		if err != nil {
			return "", err
		}
		hash.Write(canonical)
	}
	if err := cursor.Err(); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// canonicalJSON renders a document as canonical extended JSON with keys in a
// stable order, so the digest is reproducible and sensitive to any
// field-level change.
func canonicalJSON(doc bson.D) ([]byte, error) {
	return bson.MarshalExtJSON(canonicalize(doc), true, false)
}

// canonicalize returns a deep copy of the document with element keys sorted
// recursively, including through nested documents and arrays.
func canonicalize(doc bson.D) bson.D {
	sorted := make(bson.D, len(doc))
	for i, elem := range doc {
		sorted[i] = bson.E{Key: elem.Key, Value: canonicalizeValue(elem.Value)}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Key < sorted[j].Key
	})
	return sorted
}

func canonicalizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case bson.D:
		return canonicalize(v)
	case bson.A:
		canonical := make(bson.A, len(v))
		for i, item := range v {
			canonical[i] = canonicalizeValue(item)
		}
		return canonical
	case []interface{}:
		canonical := make(bson.A, len(v))
		for i, item := range v {
			canonical[i] = canonicalizeValue(item)
		}
		return canonical
	default:
		return value
	}
}

func lookupID(doc bson.D) interface{} {
	for _, elem := range doc {
		if elem.Key == "_id" {
			return elem.Value
		}
	}
	return nil
}

func idString(id interface{}) string {
	canonical, err := bson.MarshalExtJSON(bson.D{{Key: "_id", Value: id}}, true, false)
	if err != nil {
		return "?"
	}
	return string(canonical)
}
