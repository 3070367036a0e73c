// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package mongocopy

import (
	"testing"

	"github.com/mongo-wizard/mongo-wizard/common/testtype"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestStripIndexOptions(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	index := IndexDocument{
		Key: bson.D{{Key: "email", Value: int32(1)}},
		Options: bson.M{
			"name":               "email_1",
			"unique":             true,
			"sparse":             true,
			"expireAfterSeconds": int32(3600),
			// server bookkeeping that must not travel to the target
			"v":          int32(2),
			"ns":         "shop.users",
			"background": true,
			"textIndexVersion": int32(3),
			"somethingNew":     "future-server-field",
		},
	}

	stripIndexOptions(&index)

	assert.Equal(t, "email_1", index.Options["name"])
	assert.Equal(t, true, index.Options["unique"])
	assert.Equal(t, true, index.Options["sparse"])
	assert.Equal(t, int32(3600), index.Options["expireAfterSeconds"])
	assert.Equal(t, true, index.Options["background"])
	assert.Equal(t, int32(3), index.Options["textIndexVersion"])

	assert.NotContains(t, index.Options, "v")
	assert.NotContains(t, index.Options, "ns")
	assert.NotContains(t, index.Options, "somethingNew")
}

func TestIndexDocumentName(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	named := IndexDocument{Options: bson.M{"name": "email_1"}}
	assert.Equal(t, "email_1", named.Name())

	unnamed := IndexDocument{Options: bson.M{}}
	assert.Equal(t, "", unnamed.Name())
}
