// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package storage

import (
	"fmt"
	"net"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// sshBackend stores files on a remote host over SSH, using SFTP for file
// operations.
type sshBackend struct {
	loc      Location
	client   *ssh.Client
	sftp     *sftp.Client
	progress ProgressFunc
}

func newSSHBackend(loc Location, progress ProgressFunc) (*sshBackend, error) {
	config := &ssh.ClientConfig{
		User:            loc.User,
		Auth:            sshAuthMethods(loc),
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         ConnectTimeout,
	}

	addr := fmt.Sprintf("%v:%v", loc.Host, loc.Port)
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to %v", loc)
	}

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "starting sftp session on %v", loc)
	}

	return &sshBackend{loc: loc, client: client, sftp: sftpClient, progress: progress}, nil
}

// sshAuthMethods builds the authentication chain: an explicit password when
// the location carries one, otherwise the running ssh-agent if available.
func sshAuthMethods(loc Location) []ssh.AuthMethod {
	var methods []ssh.AuthMethod
	if loc.Password != "" {
		methods = append(methods, ssh.Password(loc.Password))
	}
	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}
	return methods
}

func (s *sshBackend) Location() Location {
	return s.loc
}

func (s *sshBackend) Close() error {
	_ = s.sftp.Close()
	return s.client.Close()
}

func (s *sshBackend) List(dir, pattern string) ([]FileInfo, error) {
	if dir == "" {
		dir = s.loc.Path
	}

	entries, err := s.sftp.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "listing %v on %v", dir, s.loc)
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
		files = append(files, FileInfo{
			Name:    entry.Name(),
			Size:    entry.Size(),
			ModTime: entry.ModTime(),
		})
	}
	return files, nil
}

func (s *sshBackend) Upload(localPath, remotePath string) error {
	srcInfo, err := os.Stat(localPath)
	if err != nil {
		return errors.Wrapf(err, "stat %v", localPath)
	}

	in, err := os.Open(localPath)
	if err != nil {
		return errors.Wrapf(err, "opening %v", localPath)
	}
	defer in.Close()

	if err := s.sftp.MkdirAll(path.Dir(remotePath)); err != nil {
		return errors.Wrapf(err, "creating remote directory %v", path.Dir(remotePath))
	}

	out, err := s.sftp.Create(remotePath)
	if err != nil {
		return errors.Wrapf(err, "creating %v on %v", remotePath, s.loc)
	}
	defer out.Close()

	reader := &progressReader{r: in, total: srcInfo.Size(), fn: s.progress}
	if _, err := copyWithTimeout(out, reader, TransferTimeout); err != nil {
		return errors.Wrapf(err, "uploading %v to %v", localPath, s.loc)
	}
	if err := out.Close(); err != nil {
		return errors.Wrapf(err, "closing %v on %v", remotePath, s.loc)
	}

	remoteInfo, err := s.sftp.Stat(remotePath)
	if err != nil {
		return errors.Wrapf(err, "stat %v after upload", remotePath)
	}
	return verifySize(remoteInfo.Size(), srcInfo.Size(), remotePath)
}

func (s *sshBackend) Download(remotePath, localPath string) error {
	in, err := s.sftp.Open(remotePath)
	if err != nil {
		return errors.Wrapf(err, "opening %v on %v", remotePath, s.loc)
	}
	defer in.Close()

	var total int64
	if info, statErr := in.Stat(); statErr == nil {
		total = info.Size()
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return errors.Wrapf(err, "creating directory for %v", localPath)
	}
	out, err := os.Create(localPath)
	if err != nil {
		return errors.Wrapf(err, "creating %v", localPath)
	}
	defer out.Close()

	reader := &progressReader{r: in, total: total, fn: s.progress}
	if _, err := copyWithTimeout(out, reader, TransferTimeout); err != nil {
		return errors.Wrapf(err, "downloading %v from %v", remotePath, s.loc)
	}
	return out.Close()
}

func (s *sshBackend) GetInfo(p string) (FileInfo, error) {
	info, err := s.sftp.Stat(p)
	if err != nil {
		return FileInfo{}, errors.Wrapf(err, "stat %v on %v", p, s.loc)
	}
	return FileInfo{Name: path.Base(p), Size: info.Size(), ModTime: info.ModTime()}, nil
}

func (s *sshBackend) Delete(p string) error {
	err := s.sftp.Remove(p)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "deleting %v on %v", p, s.loc)
	}
	return nil
}
