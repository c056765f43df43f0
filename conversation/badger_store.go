// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/AleutianAI/AleutianMemory/observability"
	badger "github.com/dgraph-io/badger/v4"
)

// maxTxnRetries bounds optimistic-concurrency retries on read-write
// transactions. Get also writes (it refreshes the TTL), so both paths
// can hit badger.ErrConflict and both retry.
const maxTxnRetries = 3

// BadgerStore is a Store backed by an embedded BadgerDB.
//
// # Description
//
//	Each conversation is a single key holding the JSON-encoded turn
//	window. Entries are written with a TTL, which badger enforces, and
//	every read rewrites the entry to refresh the idle clock.
//
// # Assumptions
//
//	Safe for concurrent use. Concurrent appends to the same
//	conversation are serialized by badger's transaction conflict
//	detection with a bounded retry.
type BadgerStore struct {
	db       *badger.DB
	maxTurns int
	ttl      time.Duration
}

// NewBadgerStore opens a BadgerStore at cfg.BadgerPath, or in memory
// when the path is empty.
func NewBadgerStore(cfg Config) (*BadgerStore, error) {
	var opts badger.Options
	if cfg.BadgerPath == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.BadgerPath, 0750); err != nil {
			return nil, fmt.Errorf("create history directory %s: %w", cfg.BadgerPath, err)
		}
		opts = badger.DefaultOptions(cfg.BadgerPath)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	return &BadgerStore{
		db:       db,
		maxTurns: cfg.MaxTurns,
		ttl:      cfg.TTL,
	}, nil
}

// Get implements the Store interface.
func (s *BadgerStore) Get(ctx context.Context, conversationID string) ([]Turn, error) {
	var turns []Turn
	err := s.update(func(txn *badger.Txn) error {
		var err error
		turns, err = s.readAndRefresh(txn, conversationID)
		return err
	})
	if errors.Is(err, badger.ErrConflict) {
		// A writer won every refresh attempt. The refresh is
		// opportunistic; serve the read from a snapshot instead.
		err = s.db.View(func(txn *badger.Txn) error {
			var verr error
			turns, verr = s.readTurns(txn, []byte("conv/"+conversationID))
			return verr
		})
	}
	if err != nil {
		return nil, fmt.Errorf("read conversation %s: %w", conversationID, err)
	}
	return turns, nil
}

// Append implements the Store interface.
func (s *BadgerStore) Append(ctx context.Context, conversationID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}
	key := []byte("conv/" + conversationID)

	err := s.update(func(txn *badger.Txn) error {
		existing, err := s.readTurns(txn, key)
		if err != nil {
			return err
		}
		existing = append(existing, turns...)
		if excess := len(existing) - s.maxTurns; excess > 0 {
			existing = existing[excess:]
			observability.HistoryTurnsEvicted.Add(float64(excess))
		}
		return s.writeTurns(txn, key, existing)
	})
	if err != nil {
		return fmt.Errorf("append to conversation %s: %w", conversationID, err)
	}
	return nil
}

// update runs fn in a read-write transaction, retrying on conflict up
// to maxTxnRetries times.
func (s *BadgerStore) update(fn func(*badger.Txn) error) error {
	var lastErr error
	for attempt := 0; attempt < maxTxnRetries; attempt++ {
		lastErr = s.db.Update(fn)
		if !errors.Is(lastErr, badger.ErrConflict) {
			break
		}
	}
	return lastErr
}

// Close flushes and closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) readAndRefresh(txn *badger.Txn, conversationID string) ([]Turn, error) {
	key := []byte("conv/" + conversationID)
	turns, err := s.readTurns(txn, key)
	if err != nil {
		return nil, err
	}
	if turns == nil {
		return nil, nil
	}
	// Rewrite to reset the idle TTL.
	if err := s.writeTurns(txn, key, turns); err != nil {
		return nil, err
	}
	return turns, nil
}

func (s *BadgerStore) readTurns(txn *badger.Txn, key []byte) ([]Turn, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var turns []Turn
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &turns)
	})
	if err != nil {
		return nil, err
	}
	return turns, nil
}

func (s *BadgerStore) writeTurns(txn *badger.Txn, key []byte, turns []Turn) error {
	payload, err := json.Marshal(turns)
	if err != nil {
		return err
	}
	entry := badger.NewEntry(key, payload)
	if s.ttl > 0 {
		entry = entry.WithTTL(s.ttl)
	}
	return txn.SetEntry(entry)
}
