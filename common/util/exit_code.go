// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package util provides commonly used utility functions.
package util

// Exit codes for the tool.
const (
	// ExitClean indicates the tool is exiting without error.
	ExitClean = 0
	// ExitError indicates the tool is exiting due to an operation failure.
	ExitError = 1
	// ExitBadOptions indicates the tool is exiting because of invalid
	// command-line arguments.
	ExitBadOptions = 3
)
