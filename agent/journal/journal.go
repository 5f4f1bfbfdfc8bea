//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

// Package journal persists completed command results so a redelivered
// command can be acknowledged with its original result instead of being
// executed again. Commands are at-least-once delivered: a crash between
// result write and queue delete brings the same request id back.
package journal

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/reach3d/reachlink/common/schema"
)

const bucketCompleted = "CompletedCommands"

type Journal struct {
	db *bbolt.DB
}

// Open opens (or creates) the journal at the given path. The Timeout
// option lets Bolt wait if the file is locked by another process.
func Open(filePath string) (*Journal, error) {
	db, err := bbolt.Open(filePath, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists([]byte(bucketCompleted))
		return createErr
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create journal bucket: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close the journal, ignore any errors
func (j *Journal) Close() {
	_ = j.db.Close()
}

// MarkCompleted records a command's result under its request id.
func (j *Journal) MarkCompleted(result schema.CommandResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}

	return j.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketCompleted))
		if bucket == nil {
			return fmt.Errorf("%s bucket not found", bucketCompleted)
		}
		return bucket.Put([]byte(result.RequestID), data)
	})
}

// Completed returns the stored result for a request id, if any.
func (j *Journal) Completed(requestID string) (*schema.CommandResult, bool) {
	var result schema.CommandResult
	found := false

	_ = j.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketCompleted))
		if bucket == nil {
			return nil
		}
		data := bucket.Get([]byte(requestID))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &result); err != nil {
			return nil
		}
		found = true
		return nil
	})

	if !found {
		return nil, false
	}
	return &result, true
}
