// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package storage

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// Default ports and users applied when a location string omits them.
const (
	DefaultSSHPort = 22
	DefaultFTPPort = 21
	DefaultSSHUser = "root"
)

// Location is the parsed form of a storage location string:
// scheme://[user[:pass]@]host[:port]/path for ssh and ftp, or a bare
// filesystem path for local storage. Never mutated after construction.
type Location struct {
	Scheme   string // "ssh", "ftp" or "" for local
	User     string
	Password string
	Host     string
	Port     int
	Path     string
}

// String renders the location for display with the password masked.
func (l Location) String() string {
	if l.Scheme == "" {
		return l.Path
	}
	userinfo := ""
	if l.User != "" {
		userinfo = l.User
		if l.Password != "" {
			userinfo += ":****"
		}
		userinfo += "@"
	}
	return fmt.Sprintf("%v://%v%v:%v%v", l.Scheme, userinfo, l.Host, l.Port, l.Path)
}

// ParseLocation parses a storage location string. Strings without a known
// scheme are treated as local filesystem paths.
func ParseLocation(location string) (Location, error) {
	if !strings.Contains(location, "://") {
		return Location{Path: location}, nil
	}

	u, err := url.Parse(location)
	if err != nil {
		return Location{}, errors.Wrapf(err, "invalid storage location %v", location)
	}

	switch u.Scheme {
	case "ssh", "ftp":
	case "file":
		return Location{Path: u.Path}, nil
	default:
		return Location{}, errors.Errorf("unsupported storage scheme %q", u.Scheme)
	}

	loc := Location{
		Scheme: u.Scheme,
		Host:   u.Hostname(),
		Path:   u.Path,
	}
	if loc.Host == "" {
		return Location{}, errors.Errorf("storage location %v is missing a host", loc)
	}

	if u.User != nil {
		loc.User = u.User.Username()
		loc.Password, _ = u.User.Password()
	}

	if port := u.Port(); port != "" {
		if _, err := fmt.Sscanf(port, "%d", &loc.Port); err != nil {
			return Location{}, errors.Errorf("invalid port %q in storage location", port)
		}
	}

	switch loc.Scheme {
	case "ssh":
		if loc.Port == 0 {
			loc.Port = DefaultSSHPort
		}
		if loc.User == "" {
			loc.User = DefaultSSHUser
		}
	case "ftp":
		if loc.Port == 0 {
			loc.Port = DefaultFTPPort
		}
	}

	return loc, nil
}

// New maps a location string to a connected backend instance.
func New(location string) (Backend, error) {
	return NewWithProgress(location, nil)
}

// NewWithProgress is New with an advisory progress callback for transfers.
func NewWithProgress(location string, progress ProgressFunc) (Backend, error) {
	loc, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}

	switch loc.Scheme {
	case "ssh":
		return newSSHBackend(loc, progress)
	case "ftp":
		return newFTPBackend(loc, progress)
	default:
		return newLocalBackend(loc, progress), nil
	}
}
