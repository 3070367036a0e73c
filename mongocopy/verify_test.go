// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package mongocopy

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mongo-wizard/mongo-wizard/common/testtype"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestChecksumEligibility(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	assert.True(t, checksumEligible(0))
	assert.True(t, checksumEligible(ChecksumThreshold-1))
	assert.True(t, checksumEligible(ChecksumThreshold), "the boundary count is still eligible")
	assert.False(t, checksumEligible(ChecksumThreshold+1))
}

func TestCanonicalizeSortsNestedKeys(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	doc := bson.D{
		{Key: "zeta", Value: int32(1)},
		{Key: "alpha", Value: bson.D{
			{Key: "y", Value: "two"},
			{Key: "x", Value: "one"},
		}},
		{Key: "list", Value: bson.A{
			bson.D{{Key: "b", Value: int32(2)}, {Key: "a", Value: int32(1)}},
		}},
	}

	canonical := canonicalize(doc)

	require.Len(t, canonical, 3)
	assert.Equal(t, "alpha", canonical[0].Key)
	assert.Equal(t, "list", canonical[1].Key)
	assert.Equal(t, "zeta", canonical[2].Key)

	nested, ok := canonical[0].Value.(bson.D)
	require.True(t, ok)
	assert.Equal(t, "x", nested[0].Key)
	assert.Equal(t, "y", nested[1].Key)

	list, ok := canonical[1].Value.(bson.A)
	require.True(t, ok)
	inList, ok := list[0].(bson.D)
	require.True(t, ok)
	assert.Equal(t, "a", inList[0].Key)
}

func TestCanonicalJSONStableAcrossFieldOrder(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	first := bson.D{
		{Key: "_id", Value: int32(1)},
		{Key: "name", Value: "ada"},
		{Key: "tags", Value: bson.A{"a", "b"}},
	}
	second := bson.D{
		{Key: "name", Value: "ada"},
		{Key: "tags", Value: bson.A{"a", "b"}},
		{Key: "_id", Value: int32(1)},
	}

	firstJSON, err := canonicalJSON(first)
	require.NoError(t, err)
	secondJSON, err := canonicalJSON(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON),
		"field order must not affect the digest input")

	changed := bson.D{
		{Key: "_id", Value: int32(1)},
		{Key: "name", Value: "eda"},
		{Key: "tags", Value: bson.A{"a", "b"}},
	}
	changedJSON, err := canonicalJSON(changed)
	require.NoError(t, err)
	assert.NotEqual(t, string(firstJSON), string(changedJSON),
		"a field-level change must change the digest input")
}

func TestDocsEqualIgnoresFieldOrder(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	source := bson.D{{Key: "a", Value: int32(1)}, {Key: "b", Value: "x"}}
	target := bson.D{{Key: "b", Value: "x"}, {Key: "a", Value: int32(1)}}

	equal, err := docsEqual(source, target)
	require.NoError(t, err)
	assert.True(t, equal, cmp.Diff(canonicalize(source), canonicalize(target)))

	target = bson.D{{Key: "b", Value: "y"}, {Key: "a", Value: int32(1)}}
	equal, err = docsEqual(source, target)
	require.NoError(t, err)
	assert.False(t, equal)
}

func TestDocsEqualHandlesDecimal128(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	price, err := primitive.ParseDecimal128("1.5")
	require.NoError(t, err)

	source := bson.D{{Key: "_id", Value: int32(1)}, {Key: "price", Value: price}}
	target := bson.D{{Key: "price", Value: price}, {Key: "_id", Value: int32(1)}}

	equal, err := docsEqual(source, target)
	require.NoError(t, err)
	assert.True(t, equal)

	other, err := primitive.ParseDecimal128("2.5")
	require.NoError(t, err)
	target = bson.D{{Key: "_id", Value: int32(1)}, {Key: "price", Value: other}}

	equal, err = docsEqual(source, target)
	require.NoError(t, err)
	assert.False(t, equal)
}

func TestVerificationReportOk(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	report := &VerificationReport{
		CountMatch:  true,
		IndexMatch:  true,
		SampleMatch: true,
	}
	assert.True(t, report.Ok(), "a skipped checksum does not fail verification")

	report.ChecksumMatch = lo.ToPtr(true)
	assert.True(t, report.Ok())

	report.ChecksumMatch = lo.ToPtr(false)
	assert.False(t, report.Ok())

	report = &VerificationReport{CountMatch: false, IndexMatch: true, SampleMatch: true}
	assert.False(t, report.Ok())
}
