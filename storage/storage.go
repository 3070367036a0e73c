// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package storage provides a uniform file-storage abstraction over the local
// filesystem, SSH/SFTP and FTP, used for shipping backup archives off-host.
package storage

import (
	"io"
	"time"

	"github.com/mongo-wizard/mongo-wizard/common/text"
	"github.com/pkg/errors"
)

// Timeouts for remote backends.
const (
	ConnectTimeout  = 10 * time.Second
	TransferTimeout = 5 * time.Minute
)

// Sentinel errors. Callers distinguish a timed-out transfer from a generic
// transfer failure, and a truncated upload from a successful one.
var (
	ErrTransferTimeout = errors.New("transfer timed out")
	ErrSizeMismatch    = errors.New("transferred size does not match source size")
)

// FileInfo describes one stored file.
type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// HumanSize returns the file size formatted for display, e.g. "12.4MB".
func (fi FileInfo) HumanSize() string {
	return text.FormatByteAmount(fi.Size)
}

// ProgressFunc is invoked during uploads and downloads with the number of
// bytes transferred so far and the total expected. It is advisory only and
// must not affect transfer correctness.
type ProgressFunc func(transferred, total int64)

// Backend is the common contract implemented by every storage variant.
type Backend interface {
	// List enumerates the files under dir whose names match the glob
	// pattern. A missing directory yields an empty list, not an error.
	List(dir, pattern string) ([]FileInfo, error)

	// Upload transfers a local file to the backend, creating intermediate
	// remote directories as needed. The transferred size is verified
	// against the source size; a mismatch is an upload failure even when
	// the transfer itself reported success.
	Upload(localPath, remotePath string) error

	// Download transfers a remote file to the local filesystem.
	Download(remotePath, localPath string) error

	// GetInfo stats a single remote file.
	GetInfo(path string) (FileInfo, error)

	// Delete removes a remote file. Deleting an already-absent file is
	// not an error.
	Delete(path string) error

	// Location returns the location the backend was constructed from,
	// with any credential masked.
	Location() Location

	// Close releases any underlying connection.
	Close() error
}

// progressReader wraps a reader and reports cumulative progress.
type progressReader struct {
	r           io.Reader
	total       int64
	transferred int64
	fn          ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	pr.transferred += int64(n)
	if pr.fn != nil && n > 0 {
		pr.fn(pr.transferred, pr.total)
	}
	return n, err
}

// copyWithTimeout copies src to dst, aborting with ErrTransferTimeout when
// the deadline passes. The underlying reader is expected to be closed by the
// caller on return, which unblocks the copying goroutine.
func copyWithTimeout(dst io.Writer, src io.Reader, timeout time.Duration) (int64, error) {
	type result struct {
		n   int64
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := io.Copy(dst, src)
		done <- result{n, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.n, res.err
	case <-timer.C:
		return 0, ErrTransferTimeout
	}
}

// transferWithTimeout runs one blocking transfer call, giving up with
// ErrTransferTimeout when the deadline passes. An abandoned call may still
// hold its connection; the caller should treat the backend as unusable after
// a timeout.
func transferWithTimeout(timeout time.Duration, transfer func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- transfer()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return ErrTransferTimeout
	}
}

// verifySize confirms a transfer landed exactly the expected number of bytes.
// A mismatch is a failure even when the transfer itself reported success.
func verifySize(transferred, expected int64, path string) error {
	if transferred != expected {
		return errors.Wrapf(ErrSizeMismatch,
			"transferred %v bytes of %v to %v", transferred, expected, path)
	}
	return nil
}
