// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package db

import (
	"context"
	"testing"

	"github.com/mongo-wizard/mongo-wizard/common/testtype"
	. "github.com/smartystreets/goconvey/convey"
	"go.mongodb.org/mongo-driver/bson"
)

func testURI() string {
	return "mongodb://localhost:" + DefaultTestPort
}

func TestBufferedBulkInserterInserts(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.IntegrationTestType)

	var bufBulk *BufferedBulkInserter

	Convey("With a valid session", t, func() {
		provider, err := NewSessionProvider(testURI(), DefaultConnectTimeout)
		So(provider, ShouldNotBeNil)
		So(err, ShouldBeNil)
		session, err := provider.GetSession()
		So(session, ShouldNotBeNil)
		So(err, ShouldBeNil)

		Convey("using a test collection and a doc limit of 3", func() {
			testCol := session.Database("wizard-test").Collection("bulk1")
			So(testCol.Drop(context.Background()), ShouldBeNil)
			bufBulk = NewUnorderedBufferedBulkInserter(testCol, 3)
			So(bufBulk, ShouldNotBeNil)

			Convey("inserting 10 documents into the BufferedBulkInserter", func() {
				flushCount := 0
				for i := 0; i < 10; i++ {
					result, err := bufBulk.Insert(bson.D{})
					So(err, ShouldBeNil)
					if bufBulk.docCount%3 == 0 {
						flushCount++
						So(result, ShouldNotBeNil)
						So(result.InsertedCount, ShouldEqual, 3)
					} else {
						So(result, ShouldBeNil)
					}
				}

				Convey("should have flushed 3 times with one doc still buffered", func() {
					So(flushCount, ShouldEqual, 3)
					So(bufBulk.docCount, ShouldEqual, 1)
				})
			})
		})

		Convey("a final Flush writes out the partial batch", func() {
			testCol := session.Database("wizard-test").Collection("bulk2")
			So(testCol.Drop(context.Background()), ShouldBeNil)
			bufBulk = NewUnorderedBufferedBulkInserter(testCol, 100)

			for i := 0; i < 10; i++ {
				result, err := bufBulk.Insert(bson.D{{Key: "i", Value: i}})
				So(err, ShouldBeNil)
				So(result, ShouldBeNil)
			}
			result, err := bufBulk.Flush()
			So(err, ShouldBeNil)
			So(result, ShouldNotBeNil)
			So(result.InsertedCount, ShouldEqual, 10)

			count, err := testCol.CountDocuments(context.Background(), bson.D{})
			So(err, ShouldBeNil)
			So(count, ShouldEqual, 10)
		})

		Reset(func() {
			provider.Close()
		})
	})
}

func TestUnorderedBatchResilience(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.IntegrationTestType)

	Convey("With a collection holding a conflicting document", t, func() {
		provider, err := NewSessionProvider(testURI(), DefaultConnectTimeout)
		So(err, ShouldBeNil)
		session, err := provider.GetSession()
		So(err, ShouldBeNil)

		testCol := session.Database("wizard-test").Collection("bulk3")
		So(testCol.Drop(context.Background()), ShouldBeNil)

		_, err = testCol.InsertOne(context.Background(), bson.D{{Key: "_id", Value: 5}})
		So(err, ShouldBeNil)

		Convey("an unordered batch with one duplicate key still lands the rest", func() {
			bufBulk := NewUnorderedBufferedBulkInserter(testCol, 100)
			for i := 0; i < 10; i++ {
				_, err := bufBulk.Insert(bson.D{{Key: "_id", Value: i}})
				So(err, ShouldBeNil)
			}
			result, err := bufBulk.Flush()

			So(CanIgnoreError(err), ShouldBeTrue)
			So(result, ShouldNotBeNil)
			So(result.InsertedCount, ShouldEqual, 9)

			count, err := testCol.CountDocuments(context.Background(), bson.D{})
			So(err, ShouldBeNil)
			So(count, ShouldEqual, 10)
		})

		Reset(func() {
			provider.Close()
		})
	})
}
