// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package log provides a utility to log timestamped messages to stderr.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Tool Logger verbosity constants
const (
	Always = iota
	Info
	DebugLow
	DebugHigh
)

const (
	ToolTimeFormat = "2006-01-02T15:04:05.000-0700"
)

// VerbosityLevel is an interface that allows a tool's options to configure
// the logger's verbosity.
type VerbosityLevel interface {
	Level() int
	IsQuiet() bool
}

// ToolLogger is a levelled logger for tool output. Writes are serialized and
// prefixed with a timestamp.
type ToolLogger struct {
	mutex      *sync.Mutex
	writer     io.Writer
	format     string
	verbosity  int
	oneTimeMsg map[string]bool
}

func (tl *ToolLogger) SetVerbosity(level VerbosityLevel) {
	if level == nil {
		tl.verbosity = 0
		return
	}

	if level.IsQuiet() {
		tl.verbosity = -1
	} else {
		tl.verbosity = level.Level()
	}
}

func (tl *ToolLogger) SetWriter(writer io.Writer) {
	tl.writer = writer
}

func (tl *ToolLogger) SetDateFormat(dateFormat string) {
	tl.format = dateFormat
}

// Logvf logs the given formatted message if the logger's verbosity is at
// least minVerb. A negative minVerb panics, since it could never be logged.
func (tl *ToolLogger) Logvf(minVerb int, format string, a ...interface{}) {
	if minVerb < 0 {
		panic("cannot set a minimum log verbosity that is less than 0")
	}

	if minVerb <= tl.verbosity {
		tl.mutex.Lock()
		defer tl.mutex.Unlock()
		tl.log(fmt.Sprintf(format, a...))
	}
}

// Logv logs the given message if the logger's verbosity is at least minVerb.
func (tl *ToolLogger) Logv(minVerb int, msg string) {
	if minVerb < 0 {
		panic("cannot set a minimum log verbosity that is less than 0")
	}

	if minVerb <= tl.verbosity {
		tl.mutex.Lock()
		defer tl.mutex.Unlock()
		tl.log(msg)
	}
}

// LogvOnce logs the given message once per unique string, so repeated
// warnings don't flood the output.
func (tl *ToolLogger) LogvOnce(minVerb int, format string, a ...interface{}) {
	msg := fmt.Sprintf(format, a...)
	if tl.oneTimeMsg[msg] {
		return
	}
	tl.oneTimeMsg[msg] = true
	tl.Logv(minVerb, msg)
}

func (tl *ToolLogger) log(msg string) {
	fmt.Fprintf(tl.writer, "%v\t%v\n", time.Now().Format(tl.format), msg)
}

func NewToolLogger(verbosity VerbosityLevel) *ToolLogger {
	tl := &ToolLogger{
		mutex:      &sync.Mutex{},
		writer:     os.Stderr, // default to stderr
		format:     ToolTimeFormat,
		oneTimeMsg: map[string]bool{},
	}
	tl.SetVerbosity(verbosity)
	return tl
}

// ToolLogWriter is an io.Writer that writes through a ToolLogger at a fixed
// verbosity, for plugging into APIs that expect a writer.
type ToolLogWriter struct {
	logger       *ToolLogger
	minVerbosity int
}

func (tl *ToolLogger) Writer(minVerb int) io.Writer {
	return &ToolLogWriter{tl, minVerb}
}

func (lw *ToolLogWriter) Write(message []byte) (int, error) {
	lw.logger.Logv(lw.minVerbosity, string(message))
	return len(message), nil
}

// Log global logging object. Hidden behind helpers so that callers
// never touch it directly.
var globalToolLogger *ToolLogger

func init() {
	if globalToolLogger == nil {
		// initialize tool logger with verbosity level = 0
		globalToolLogger = NewToolLogger(nil)
	}
}

func Logvf(minVerb int, format string, a ...interface{}) {
	globalToolLogger.Logvf(minVerb, format, a...)
}

func Logv(minVerb int, msg string) {
	globalToolLogger.Logv(minVerb, msg)
}

func LogvOnce(minVerb int, format string, a ...interface{}) {
	globalToolLogger.LogvOnce(minVerb, format, a...)
}

func SetVerbosity(verbosity VerbosityLevel) {
	globalToolLogger.SetVerbosity(verbosity)
}

func SetWriter(writer io.Writer) {
	globalToolLogger.SetWriter(writer)
}

func SetDateFormat(dateFormat string) {
	globalToolLogger.SetDateFormat(dateFormat)
}

func Writer(minVerb int) io.Writer {
	return globalToolLogger.Writer(minVerb)
}

func IsInVerbosity(minVerb int) bool {
	return minVerb <= globalToolLogger.verbosity
}
