// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package mongobackup

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// archiveDirName is the single top-level directory inside every backup
// archive, holding one subdirectory per database.
const archiveDirName = "dump"

// archiveTimeFormat is the timestamp prefix of default archive names.
const archiveTimeFormat = "20060102-150405"

// ErrInvalidArchive is returned when a restore source does not contain a
// recognizable database directory.
var ErrInvalidArchive = errors.New("invalid backup archive: no database directory found")

// DefaultArchiveName names an archive after the backup time and the source
// database: <timestamp>-<database>.tar.gz.
func DefaultArchiveName(database string, t time.Time) string {
	return fmt.Sprintf("%v-%v.tar.gz", t.Format(archiveTimeFormat), database)
}

// createArchive packages the dump directory into a gzip-compressed tar
// archive at outPath. Entries are rooted at "dump/" regardless of where the
// dump directory lives locally.
func createArchive(dumpDir, outPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return errors.Wrapf(err, "creating archive %v", outPath)
	}
	defer out.Close()

	gzWriter := gzip.NewWriter(out)
	tarWriter := tar.NewWriter(gzWriter)

	walkErr := filepath.Walk(dumpDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(dumpDir, path)
		if err != nil {
			return err
		}
		name := archiveDirName
		if relPath != "." {
			name = archiveDirName + "/" + filepath.ToSlash(relPath)
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = name
		if info.IsDir() {
			header.Name += "/"
		}

		if err := tarWriter.WriteHeader(header); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(tarWriter, file)
		return err
	})
	if walkErr != nil {
		return errors.Wrapf(walkErr, "packaging %v", dumpDir)
	}

	if err := tarWriter.Close(); err != nil {
		return errors.Wrap(err, "finalizing tar stream")
	}
	if err := gzWriter.Close(); err != nil {
		return errors.Wrap(err, "finalizing gzip stream")
	}
	return out.Close()
}

// extractArchive unpacks a gzip-compressed tar archive into destDir,
// rejecting entries that would escape it.
func extractArchive(archivePath, destDir string) error {
	in, err := os.Open(archivePath)
	if err != nil {
		return errors.Wrapf(err, "opening archive %v", archivePath)
	}
	defer in.Close()

	gzReader, err := gzip.NewReader(in)
	if err != nil {
		return errors.Wrapf(err, "reading archive %v", archivePath)
	}
	defer gzReader.Close()

	tarReader := tar.NewReader(gzReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "reading archive %v", archivePath)
		}

		target := filepath.Join(destDir, filepath.FromSlash(header.Name))
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return errors.Errorf("archive entry %q escapes the extraction directory", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return errors.Wrapf(err, "creating %v", target)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return errors.Wrapf(err, "creating %v", filepath.Dir(target))
			}
			file, err := os.Create(target)
			if err != nil {
				return errors.Wrapf(err, "creating %v", target)
			}
			if _, err := io.Copy(file, tarReader); err != nil {
				_ = file.Close()
				return errors.Wrapf(err, "extracting %v", header.Name)
			}
			if err := file.Close(); err != nil {
				return errors.Wrapf(err, "closing %v", target)
			}
		}
	}
}

// discoverDatabaseDir locates the database directory inside an extracted
// archive: the first subdirectory of the top-level dump directory. An
// archive without one is not restorable.
func discoverDatabaseDir(extractedDir string) (string, error) {
	dumpDir := filepath.Join(extractedDir, archiveDirName)
	entries, err := os.ReadDir(dumpDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrInvalidArchive
		}
		return "", errors.Wrapf(err, "reading %v", dumpDir)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			return filepath.Join(dumpDir, entry.Name()), nil
		}
	}
	return "", ErrInvalidArchive
}
