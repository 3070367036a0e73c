// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package db implements generic connection to MongoDB instances identified
// by their connection strings.
package db

import (
	"context"
	"sync"
	"time"

	"github.com/mongo-wizard/mongo-wizard/common/log"
	"github.com/mongo-wizard/mongo-wizard/common/util"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	mopt "go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// MongoDB enforced limits.
const (
	MaxBSONSize = 16 * 1024 * 1024 // 16MB - maximum BSON document size
)

// Connection timeouts. Quick checks (e.g. probing every configured host) use
// a tighter deadline than a connection we intend to work with.
const (
	DefaultConnectTimeout = 5 * time.Second
	QuickCheckTimeout     = 1 * time.Second
	OperationTimeout      = 3 * time.Second
)

// Default port for integration tests
const (
	DefaultTestPort = "33333"
)

const (
	// ignorable errors
	ErrDuplicateKeyCode         = 11000
	ErrFailedDocumentValidation = 121
	ErrUnacknowledgedWrite      = "unacknowledged write"
)

var ignorableWriteErrorCodes = map[int]bool{
	ErrDuplicateKeyCode:         true,
	ErrFailedDocumentValidation: true,
}

const (
	continueThroughErrorFormat = "continuing through error: %v"
)

// Used to manage database sessions
type SessionProvider struct {
	sync.Mutex

	// the connection string the provider was built from, for logging
	uri string

	// the master client used for operations
	client *mongo.Client
}

// Returns a mongo.Client connected to the database server for which the
// session provider is configured.
func (sp *SessionProvider) GetSession() (*mongo.Client, error) {
	sp.Lock()
	defer sp.Unlock()

	if sp.client == nil {
		return nil, errors.New("SessionProvider already closed")
	}

	return sp.client, nil
}

// Close closes the master session in the connection pool
func (sp *SessionProvider) Close() {
	sp.Lock()
	defer sp.Unlock()
	if sp.client != nil {
		_ = sp.client.Disconnect(context.Background())
		sp.client = nil
	}
}

// DB provides a database with the default read preference
func (sp *SessionProvider) DB(name string) *mongo.Database {
	return sp.client.Database(name)
}

// SanitizedURI returns the connection string with any credentials redacted.
func (sp *SessionProvider) SanitizedURI() string {
	return util.SanitizeURI(sp.uri)
}

// Ping round-trips to the server with the given deadline.
func (sp *SessionProvider) Ping(timeout time.Duration) error {
	client, err := sp.GetSession()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return client.Ping(ctx, nil)
}

// NewSessionProvider constructs a session provider, including a connected
// and pinged client, for the given connection string.
func NewSessionProvider(uri string, timeout time.Duration) (*SessionProvider, error) {
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	clientopt := mopt.Client().
		ApplyURI(uri).
		SetAppName("mongo-wizard").
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout).
		SetWriteConcern(writeconcern.New(writeconcern.WMajority()))

	if err := clientopt.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid connection string %v", util.SanitizeURI(uri))
	}

	client, err := mongo.Connect(context.Background(), clientopt)
	if err != nil {
		return nil, errors.Wrap(err, "error configuring the connector")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrapf(err, "could not connect to server %v", util.SanitizeURI(uri))
	}

	return &SessionProvider{uri: uri, client: client}, nil
}

// FilterError determines whether an error needs to be propagated back to the user or can be continued through. If an
// error cannot be ignored, a non-nil error is returned. If an error can be continued through, it is logged and nil is
// returned.
func FilterError(stopOnError bool, err error) error {
	if err == nil || err.Error() == ErrUnacknowledgedWrite {
		return nil
	}

	if !stopOnError && CanIgnoreError(err) {
		// Just log the error but don't propagate it.
		if bwe, ok := err.(mongo.BulkWriteException); ok {
			for _, be := range bwe.WriteErrors {
				log.Logvf(log.Always, continueThroughErrorFormat, be.Message)
			}
		} else {
			log.Logvf(log.Always, continueThroughErrorFormat, err)
		}
		return nil
	}
	// Propagate this error, since it's either a fatal error or the user has turned on --stopOnError
	return err
}

// Returns whether the tools can continue when encountering the given error.
// Currently, only duplicate key errors and document validation errors are
// ignorable.
func CanIgnoreError(err error) bool {
	if err == nil {
		return true
	}

	switch mongoErr := err.(type) {
	case mongo.WriteError:
		_, ok := ignorableWriteErrorCodes[mongoErr.Code]
		return ok
	case mongo.BulkWriteException:
		for _, writeErr := range mongoErr.WriteErrors {
			if _, ok := ignorableWriteErrorCodes[writeErr.Code]; !ok {
				return false
			}
		}

		if mongoErr.WriteConcernError != nil {
			log.Logvf(log.Always, "write concern error when inserting documents: %v", mongoErr.WriteConcernError)
			return false
		}
		return true
	case mongo.CommandError:
		_, ok := ignorableWriteErrorCodes[int(mongoErr.Code)]
		return ok
	}

	return false
}
