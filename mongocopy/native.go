// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package mongocopy

import (
	"io"
	"os/exec"

	"github.com/mongo-wizard/mongo-wizard/common/log"
	"github.com/mongo-wizard/mongo-wizard/common/util"
	"github.com/pkg/errors"
	"gopkg.in/tomb.v2"
)

// NativeStatus classifies the outcome of the native dump/restore pipe.
type NativeStatus int

const (
	// NativeSucceeded means both tools ran and exited cleanly.
	NativeSucceeded NativeStatus = iota
	// NativeToolAbsent means one of the tools is not installed; no
	// external process was started.
	NativeToolAbsent
	// NativeFailed means a tool was started but exited non-zero or the
	// pipe broke.
	NativeFailed
)

// NativeOutcome is the result of attempting the native pipe. Fallback to the
// driver copy is a deliberate branch on Status, not error recovery.
type NativeOutcome struct {
	Status NativeStatus
	Err    error
}

// runNativePipe streams mongodump's archive output for the source namespace
// directly into mongorestore on the target, remapping the namespace.
func (mc *MongoCopy) runNativePipe(src, dst Namespace) NativeOutcome {
	dumpBin, err := util.FindTool(util.MongodumpBin)
	if err != nil {
		return NativeOutcome{Status: NativeToolAbsent, Err: err}
	}
	restoreBin, err := util.FindTool(util.MongorestoreBin)
	if err != nil {
		return NativeOutcome{Status: NativeToolAbsent, Err: err}
	}

	dump := exec.Command(dumpBin,
		"--uri", mc.sourceURI,
		"--db", src.DB,
		"--collection", src.Collection,
		"--archive",
		"--quiet",
	)
	restore := exec.Command(restoreBin,
		"--uri", mc.targetURI,
		"--archive",
		"--nsFrom", src.String(),
		"--nsTo", dst.String(),
		"--quiet",
	)

	// The tools' own diagnostics only matter at high verbosity.
	dump.Stderr = log.Writer(log.DebugLow)
	restore.Stderr = log.Writer(log.DebugLow)

	pipeReader, pipeWriter := io.Pipe()
	dump.Stdout = pipeWriter
	restore.Stdin = pipeReader

	log.Logvf(log.Info, "piping %v into %v for %v -> %v",
		util.MongodumpBin, util.MongorestoreBin, src, dst)

	var t tomb.Tomb
	t.Go(func() error {
		t.Go(func() error {
			// Close the write end as soon as the producer exits so the
			// consumer sees EOF instead of blocking forever.
			err := dump.Run()
			if err != nil {
				pipeWriter.CloseWithError(err)
				return errors.Wrap(err, util.MongodumpBin)
			}
			return pipeWriter.Close()
		})

		if err := restore.Run(); err != nil {
			// Unblock the producer if the consumer died first.
			pipeReader.CloseWithError(err)
			return errors.Wrap(err, util.MongorestoreBin)
		}
		return nil
	})

	if err := t.Wait(); err != nil {
		return NativeOutcome{Status: NativeFailed, Err: err}
	}
	return NativeOutcome{Status: NativeSucceeded}
}
