// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package options

import (
	"testing"

	"github.com/mongo-wizard/mongo-wizard/common/testtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerbosityFlag(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	cases := []struct {
		args  []string
		level int
	}{
		{[]string{}, 0},
		{[]string{"-v"}, 1},
		{[]string{"-v", "-v"}, 2},
		{[]string{"-vvv"}, 3},
		{[]string{"--verbose"}, 1},
		{[]string{"--verbose=4"}, 4},
	}

	for _, c := range cases {
		opts := New("testtool", "built-without-version-string", "build-without-git-commit", "<options>")
		_, err := opts.ParseArgs(c.args)
		require.NoError(t, err, "args %v", c.args)
		assert.Equal(t, c.level, opts.Verbosity.Level(), "args %v", c.args)
	}
}

func TestVerbosityReparse(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	opts := New("testtool", "built-without-version-string", "build-without-git-commit", "<options>")

	_, err := opts.ParseArgs([]string{"-vv"})
	require.NoError(t, err)
	assert.Equal(t, 2, opts.Verbosity.Level())

	// reparsing resets the accumulated level instead of stacking it
	_, err = opts.ParseArgs([]string{"-v"})
	require.NoError(t, err)
	assert.Equal(t, 1, opts.Verbosity.Level())
}

func TestQuietAndUnknownFlags(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	opts := New("testtool", "built-without-version-string", "build-without-git-commit", "<options>")
	_, err := opts.ParseArgs([]string{"--quiet"})
	require.NoError(t, err)
	assert.True(t, opts.Verbosity.IsQuiet())

	opts = New("testtool", "built-without-version-string", "build-without-git-commit", "<options>")
	_, err = opts.ParseArgs([]string{"--no-such-flag"})
	assert.Error(t, err)
}

type extraOpts struct {
	Widget string `long:"widget"`
}

func (*extraOpts) Name() string { return "extra" }

func TestExtraOptionsRegistration(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	opts := New("testtool", "built-without-version-string", "build-without-git-commit", "<options>")
	extra := &extraOpts{}
	opts.AddOptions(extra)

	args, err := opts.ParseArgs([]string{"--widget", "gears", "leftover"})
	require.NoError(t, err)
	assert.Equal(t, "gears", extra.Widget)
	assert.Equal(t, []string{"leftover"}, args)
}
