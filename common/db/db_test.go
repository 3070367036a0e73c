// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package db

import (
	"testing"

	"github.com/mongo-wizard/mongo-wizard/common/testtype"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestCanIgnoreError(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	assert.True(t, CanIgnoreError(nil))

	assert.True(t, CanIgnoreError(mongo.WriteError{Code: ErrDuplicateKeyCode}))
	assert.True(t, CanIgnoreError(mongo.WriteError{Code: ErrFailedDocumentValidation}))
	assert.False(t, CanIgnoreError(mongo.WriteError{Code: 13}))

	assert.True(t, CanIgnoreError(mongo.BulkWriteException{
		WriteErrors: []mongo.BulkWriteError{
			{WriteError: mongo.WriteError{Code: ErrDuplicateKeyCode}},
			{WriteError: mongo.WriteError{Code: ErrFailedDocumentValidation}},
		},
	}))
	assert.False(t, CanIgnoreError(mongo.BulkWriteException{
		WriteErrors: []mongo.BulkWriteError{
			{WriteError: mongo.WriteError{Code: ErrDuplicateKeyCode}},
			{WriteError: mongo.WriteError{Code: 13}},
		},
	}))

	assert.True(t, CanIgnoreError(mongo.CommandError{Code: ErrDuplicateKeyCode}))
	assert.False(t, CanIgnoreError(errors.New("some network error")))
}

func TestFilterError(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	dupKey := mongo.WriteError{Code: ErrDuplicateKeyCode}

	assert.NoError(t, FilterError(false, nil))
	assert.NoError(t, FilterError(false, dupKey), "ignorable error is continued through")
	assert.Error(t, FilterError(true, dupKey), "stopOnError propagates even ignorable errors")
	assert.Error(t, FilterError(false, mongo.WriteError{Code: 13}))
	assert.NoError(t, FilterError(true, errors.New(ErrUnacknowledgedWrite)))
}

func TestSessionProviderBadURI(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	_, err := NewSessionProvider("not-a-uri", DefaultConnectTimeout)
	assert.Error(t, err)
}
