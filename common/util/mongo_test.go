// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package util

import (
	"strings"
	"testing"

	"github.com/mongo-wizard/mongo-wizard/common/testtype"
	"github.com/stretchr/testify/assert"
)

func TestValidateDBName(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	assert.NoError(t, ValidateDBName("shop"))
	assert.NoError(t, ValidateDBName("shop-2026_eu"))

	assert.Error(t, ValidateDBName("bad.name"))
	assert.Error(t, ValidateDBName("bad name"))
	assert.Error(t, ValidateDBName("bad/name"))
	assert.Error(t, ValidateDBName("bad\\name"))
	assert.Error(t, ValidateDBName("bad\"name"))
	assert.Error(t, ValidateDBName("bad$name"))
	assert.Error(t, ValidateDBName(strings.Repeat("x", 64)))
	assert.NoError(t, ValidateDBName(strings.Repeat("x", 63)))
}

func TestValidateCollectionName(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	assert.NoError(t, ValidateCollectionName("orders"))
	assert.NoError(t, ValidateCollectionName("orders.archive"))

	assert.Error(t, ValidateCollectionName(""))
	assert.Error(t, ValidateCollectionName("system.indexes"))
	assert.Error(t, ValidateCollectionName("or$ders"))
}

func TestValidateFullNamespace(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	assert.NoError(t, ValidateFullNamespace("shop.orders"))
	assert.NoError(t, ValidateFullNamespace("shop.orders.archive"))

	assert.Error(t, ValidateFullNamespace("noseparator"))
	assert.Error(t, ValidateFullNamespace("bad db.orders"))
	assert.Error(t, ValidateFullNamespace("shop.system.indexes"))
}
