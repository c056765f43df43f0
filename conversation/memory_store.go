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
	"sync"
	"time"

	"github.com/AleutianAI/AleutianMemory/observability"
)

// MemoryStore is an in-process Store backed by a map.
//
// # Description
//
//	Each conversation holds a bounded slice of turns plus a last-access
//	timestamp. Expired conversations are dropped lazily on access and
//	by a background sweep that runs at the TTL interval.
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]*memoryEntry
	maxTurns int
	ttl      time.Duration

	// clock is swappable in tests.
	clock func() time.Time

	stop chan struct{}
	done chan struct{}
}

type memoryEntry struct {
	turns      []Turn
	lastAccess time.Time
}

// NewMemoryStore creates a store and starts its expiry sweeper.
func NewMemoryStore(cfg Config) *MemoryStore {
	s := &MemoryStore{
		entries:  make(map[string]*memoryEntry),
		maxTurns: cfg.MaxTurns,
		ttl:      cfg.TTL,
		clock:    time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.sweep()
	return s
}

// Get implements the Store interface. The returned slice is a copy.
func (s *MemoryStore) Get(_ context.Context, conversationID string) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.access(conversationID)
	if e == nil {
		return nil, nil
	}
	out := make([]Turn, len(e.turns))
	copy(out, e.turns)
	return out, nil
}

// Append implements the Store interface.
func (s *MemoryStore) Append(_ context.Context, conversationID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.access(conversationID)
	if e == nil {
		e = &memoryEntry{lastAccess: s.clock()}
		s.entries[conversationID] = e
	}
	e.turns = append(e.turns, turns...)
	if excess := len(e.turns) - s.maxTurns; excess > 0 {
		e.turns = append([]Turn(nil), e.turns[excess:]...)
		observability.HistoryTurnsEvicted.Add(float64(excess))
	}
	return nil
}

// Close stops the background sweeper.
func (s *MemoryStore) Close() error {
	close(s.stop)
	<-s.done
	return nil
}

// access returns the live entry for an ID and refreshes its TTL, or
// nil if the entry is absent or expired. Caller must hold mu.
func (s *MemoryStore) access(conversationID string) *memoryEntry {
	e, ok := s.entries[conversationID]
	if !ok {
		return nil
	}
	now := s.clock()
	if now.Sub(e.lastAccess) > s.ttl {
		delete(s.entries, conversationID)
		return nil
	}
	e.lastAccess = now
	return e
}

func (s *MemoryStore) sweep() {
	defer close(s.done)
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			now := s.clock()
			for id, e := range s.entries {
				if now.Sub(e.lastAccess) > s.ttl {
					delete(s.entries, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
