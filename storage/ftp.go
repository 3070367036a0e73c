// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package storage

import (
	"fmt"
	"net/textproto"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/jlaffaye/ftp"
	"github.com/pkg/errors"
)

// ftpBackend stores files on a remote FTP server.
type ftpBackend struct {
	loc      Location
	conn     *ftp.ServerConn
	progress ProgressFunc
}

func newFTPBackend(loc Location, progress ProgressFunc) (*ftpBackend, error) {
	addr := fmt.Sprintf("%v:%v", loc.Host, loc.Port)
	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(ConnectTimeout))
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to %v", loc)
	}

	user, pass := loc.User, loc.Password
	if user == "" {
		user, pass = "anonymous", "anonymous"
	}
	if err := conn.Login(user, pass); err != nil {
		_ = conn.Quit()
		return nil, errors.Wrapf(err, "logging in to %v", loc)
	}

	return &ftpBackend{loc: loc, conn: conn, progress: progress}, nil
}

func (s *ftpBackend) Location() Location {
	return s.loc
}

func (s *ftpBackend) Close() error {
	return s.conn.Quit()
}

func (s *ftpBackend) List(dir, pattern string) ([]FileInfo, error) {
	if dir == "" {
		dir = s.loc.Path
	}

	entries, err := s.conn.List(dir)
	if err != nil {
		// most servers report a missing directory as a 550
		if isFTPNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "listing %v on %v", dir, s.loc)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.Type != ftp.EntryTypeFile {
			continue
		}
		if pattern != "" {
			matched, matchErr := path.Match(pattern, entry.Name)
			if matchErr != nil {
				return nil, errors.Wrapf(matchErr, "invalid pattern %q", pattern)
			}
			if !matched {
				continue
			}
		}
		files = append(files, FileInfo{
			Name:    entry.Name,
			Size:    int64(entry.Size),
			ModTime: entry.Time,
		})
	}
	return files, nil
}

func (s *ftpBackend) Upload(localPath, remotePath string) error {
	srcInfo, err := os.Stat(localPath)
	if err != nil {
		return errors.Wrapf(err, "stat %v", localPath)
	}

	in, err := os.Open(localPath)
	if err != nil {
		return errors.Wrapf(err, "opening %v", localPath)
	}
	defer in.Close()

	s.makeDirs(path.Dir(remotePath))

	reader := &progressReader{r: in, total: srcInfo.Size(), fn: s.progress}
	err = transferWithTimeout(TransferTimeout, func() error {
		return s.conn.Stor(remotePath, reader)
	})
	if err != nil {
		return errors.Wrapf(err, "uploading %v to %v", localPath, s.loc)
	}

	remoteSize, err := s.conn.FileSize(remotePath)
	if err == nil {
		return verifySize(remoteSize, srcInfo.Size(), remotePath)
	}
	return nil
}

func (s *ftpBackend) Download(remotePath, localPath string) error {
	resp, err := s.conn.Retr(remotePath)
	if err != nil {
		return errors.Wrapf(err, "opening %v on %v", remotePath, s.loc)
	}
	defer resp.Close()

	var total int64
	if size, sizeErr := s.conn.FileSize(remotePath); sizeErr == nil {
		total = size
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return errors.Wrapf(err, "creating directory for %v", localPath)
	}
	out, err := os.Create(localPath)
	if err != nil {
		return errors.Wrapf(err, "creating %v", localPath)
	}
	defer out.Close()

	reader := &progressReader{r: resp, total: total, fn: s.progress}
	if _, err := copyWithTimeout(out, reader, TransferTimeout); err != nil {
		return errors.Wrapf(err, "downloading %v from %v", remotePath, s.loc)
	}
	return out.Close()
}

func (s *ftpBackend) GetInfo(p string) (FileInfo, error) {
	size, err := s.conn.FileSize(p)
	if err != nil {
		return FileInfo{}, errors.Wrapf(err, "stat %v on %v", p, s.loc)
	}
	info := FileInfo{Name: path.Base(p), Size: size}
	if modTime, timeErr := s.conn.GetTime(p); timeErr == nil {
		info.ModTime = modTime
	}
	return info, nil
}

func (s *ftpBackend) Delete(p string) error {
	err := s.conn.Delete(p)
	if err != nil && !isFTPNotFound(err) {
		return errors.Wrapf(err, "deleting %v on %v", p, s.loc)
	}
	return nil
}

// makeDirs creates each path segment, ignoring "already exists" errors the
// server reports for intermediate directories.
func (s *ftpBackend) makeDirs(dir string) {
	if dir == "" || dir == "/" || dir == "." {
		return
	}
	var current string
	for _, segment := range strings.Split(strings.Trim(dir, "/"), "/") {
		current = current + "/" + segment
		_ = s.conn.MakeDir(current)
	}
}

func isFTPNotFound(err error) bool {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return protoErr.Code == ftp.StatusFileUnavailable
	}
	return false
}
