// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package mongobackup

import (
	"strings"

	"github.com/mongo-wizard/mongo-wizard/storage"
	"github.com/samber/lo"
)

// ListBackups enumerates archives at the storage location. An empty pattern
// means every tar.gz archive; a non-empty database filter keeps only
// archives whose default-pattern name ends in -<database>.tar.gz.
func (mb *MongoBackup) ListBackups(pattern, database string) ([]storage.FileInfo, error) {
	if pattern == "" {
		pattern = "*.tar.gz"
	}

	files, err := mb.Storage.List(mb.Storage.Location().Path, pattern)
	if err != nil {
		return nil, err
	}

	if database == "" {
		return files, nil
	}
	return lo.Filter(files, func(fi storage.FileInfo, _ int) bool {
		return strings.HasSuffix(fi.Name, "-"+database+".tar.gz")
	}), nil
}
