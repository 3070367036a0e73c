// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package util

import (
	"fmt"
	"strings"
)

// ValidateDBName validates that a string is a valid name for a mongodb
// database. An error is returned if it is not valid.
func ValidateDBName(database string) error {
	// must be < 64 characters
	if len([]byte(database)) > 63 {
		return fmt.Errorf("database name '%v' is longer than 63 characters", database)
	}

	// check for illegal characters
	for _, illegalRune := range "/\\. \"\x00$" {
		if strings.ContainsRune(database, illegalRune) {
			return fmt.Errorf(
				"illegal character '%c' found in database name '%v'",
				illegalRune,
				database,
			)
		}
	}

	return nil
}

// ValidateCollectionName validates that a string is a valid name for a
// mongodb collection. An error is returned if it is not valid.
func ValidateCollectionName(collection string) error {
	if collection == "" {
		return fmt.Errorf("collection name cannot be an empty string")
	}

	// cannot begin with 'system.'
	if strings.HasPrefix(collection, "system.") {
		return fmt.Errorf("collection name '%v' is not allowed to begin with 'system.'", collection)
	}

	// cannot contain '$' or the null character
	for _, illegalRune := range "$\x00" {
		if strings.ContainsRune(collection, illegalRune) {
			return fmt.Errorf(
				"illegal character '%c' found in collection name '%v'",
				illegalRune,
				collection,
			)
		}
	}

	return nil
}

// ValidateFullNamespace validates that a string is a valid namespace of the
// form "database.collection". An error is returned if it is not valid.
func ValidateFullNamespace(namespace string) error {
	database, collection, ok := strings.Cut(namespace, ".")
	if !ok {
		return fmt.Errorf("namespace '%v' is missing a dot", namespace)
	}
	if err := ValidateDBName(database); err != nil {
		return err
	}
	return ValidateCollectionName(collection)
}
