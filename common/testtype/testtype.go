// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package testtype implements functions for gating tests by type, so unit
// tests can run anywhere while integration tests only run against a live
// deployment.
package testtype

import (
	"os"
	"strings"
	"testing"
)

const (
	// UnitTestType tests require no external resources.
	UnitTestType = "unit"
	// IntegrationTestType tests require a running mongod on the test port.
	IntegrationTestType = "integration"
)

var envNames = map[string]string{
	UnitTestType:        "MONGOWIZ_TESTING_UNIT",
	IntegrationTestType: "MONGOWIZ_TESTING_INTEGRATION",
}

// HasTestType returns whether the given test type is enabled in the
// environment.
func HasTestType(testType string) bool {
	envName, ok := envNames[testType]
	if !ok {
		return false
	}
	val := strings.ToLower(os.Getenv(envName))
	return val == "true" || val == "1" || val == "yes"
}

// SkipUnlessTestType skips the test unless the environment enables the given
// test type.
func SkipUnlessTestType(t *testing.T, testType string) {
	if !HasTestType(testType) {
		t.SkipNow()
	}
}
