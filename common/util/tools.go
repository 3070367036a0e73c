// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package util

import (
	"os/exec"

	"github.com/pkg/errors"
)

// Names of the external MongoDB database tools this program shells out to.
const (
	MongodumpBin    = "mongodump"
	MongorestoreBin = "mongorestore"
)

// ErrToolUnavailable indicates a required external binary was not found on
// the PATH.
var ErrToolUnavailable = errors.New("native tool unavailable")

// LookPath locates external binaries. It is a variable so tests can simulate
// hosts without the database tools installed.
var LookPath = exec.LookPath

// FindTool returns the full path of the named binary. The returned error
// wraps ErrToolUnavailable when the binary is not on the PATH.
func FindTool(name string) (string, error) {
	path, err := LookPath(name)
	if err != nil {
		return "", errors.Wrapf(ErrToolUnavailable, "%v not found in PATH", name)
	}
	return path, nil
}
