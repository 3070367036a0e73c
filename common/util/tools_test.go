// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package util

import (
	"testing"

	"github.com/mongo-wizard/mongo-wizard/common/testtype"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindTool(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	originalLookPath := LookPath
	defer func() { LookPath = originalLookPath }()

	t.Run("tool on PATH", func(t *testing.T) {
		LookPath = func(name string) (string, error) {
			return "/usr/local/bin/" + name, nil
		}
		path, err := FindTool(MongodumpBin)
		require.NoError(t, err)
		assert.Equal(t, "/usr/local/bin/mongodump", path)
	})

	t.Run("tool missing", func(t *testing.T) {
		LookPath = func(name string) (string, error) {
			return "", errors.New("executable file not found in $PATH")
		}
		_, err := FindTool(MongorestoreBin)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrToolUnavailable))
		assert.Contains(t, err.Error(), "mongorestore")
	})
}
