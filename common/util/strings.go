// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package util

import (
	"regexp"
)

// Pluralize takes an amount and two strings denoting the singular and plural
// noun for that amount, returning the appropriate form.
func Pluralize(amount int, singular, plural string) string {
	if amount == 1 {
		return singular
	}
	return plural
}

// Matches the userinfo component of a URI: anything between the scheme
// separator and an @ that precedes the first path or query separator.
var uriUserinfoRE = regexp.MustCompile(`^([^:]+://)[^/?@]*@`)

// SanitizeURI redacts the userinfo (credentials) from a connection string so
// it can be logged or displayed. URIs without credentials pass through
// unchanged.
func SanitizeURI(u string) string {
	return uriUserinfoRE.ReplaceAllString(u, "$1[**REDACTED**]@")
}
