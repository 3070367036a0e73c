// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package storage

import (
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/errors"
)

// localBackend stores files on the local filesystem.
type localBackend struct {
	loc      Location
	progress ProgressFunc
}

func newLocalBackend(loc Location, progress ProgressFunc) *localBackend {
	return &localBackend{loc: loc, progress: progress}
}

func (s *localBackend) Location() Location {
	return s.loc
}

func (s *localBackend) Close() error {
	return nil
}

// List enumerates files in dir matching pattern. A missing directory is
// created lazily and yields an empty list.
func (s *localBackend) List(dir, pattern string) ([]FileInfo, error) {
	if dir == "" {
		dir = s.loc.Path
	}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		if mkErr := os.MkdirAll(dir, 0755); mkErr != nil {
			return nil, errors.Wrapf(mkErr, "creating storage directory %v", dir)
		}
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "listing %v", dir)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if pattern != "" {
			matched, matchErr := path.Match(pattern, entry.Name())
			if matchErr != nil {
				return nil, errors.Wrapf(matchErr, "invalid pattern %q", pattern)
			}
			if !matched {
				continue
			}
		}
		info, infoErr := entry.Info()
		if infoErr != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return files, nil
}

func (s *localBackend) Upload(localPath, remotePath string) error {
	srcInfo, err := os.Stat(localPath)
	if err != nil {
		return errors.Wrapf(err, "stat %v", localPath)
	}

	if err := os.MkdirAll(filepath.Dir(remotePath), 0755); err != nil {
		return errors.Wrapf(err, "creating directory for %v", remotePath)
	}

	if err := s.copyFile(localPath, remotePath, srcInfo.Size()); err != nil {
		return err
	}

	dstInfo, err := os.Stat(remotePath)
	if err != nil {
		return errors.Wrapf(err, "stat %v after upload", remotePath)
	}
	return verifySize(dstInfo.Size(), srcInfo.Size(), remotePath)
}

func (s *localBackend) Download(remotePath, localPath string) error {
	srcInfo, err := os.Stat(remotePath)
	if err != nil {
		return errors.Wrapf(err, "stat %v", remotePath)
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return errors.Wrapf(err, "creating directory for %v", localPath)
	}
	return s.copyFile(remotePath, localPath, srcInfo.Size())
}

func (s *localBackend) GetInfo(p string) (FileInfo, error) {
	info, err := os.Stat(p)
	if err != nil {
		return FileInfo{}, errors.Wrapf(err, "stat %v", p)
	}
	return FileInfo{Name: info.Name(), Size: info.Size(), ModTime: info.ModTime()}, nil
}

// Delete removes a file; deleting an absent file is not an error.
func (s *localBackend) Delete(p string) error {
	err := os.Remove(p)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "deleting %v", p)
	}
	return nil
}

func (s *localBackend) copyFile(src, dst string, total int64) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "opening %v", src)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "creating %v", dst)
	}
	defer out.Close()

	reader := &progressReader{r: in, total: total, fn: s.progress}
	if _, err := io.Copy(out, reader); err != nil {
		return errors.Wrapf(err, "copying %v to %v", src, dst)
	}
	return out.Close()
}
