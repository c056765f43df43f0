// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for the badger-backed history store

package conversation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBadgerStore(t *testing.T, maxTurns int, ttl time.Duration) *BadgerStore {
	t.Helper()
	// Empty path selects badger's in-memory mode.
	s, err := NewBadgerStore(Config{MaxTurns: maxTurns, TTL: ttl})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBadgerStore_GetUnknownConversation(t *testing.T) {
	s := newTestBadgerStore(t, 20, time.Hour)

	turns, err := s.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestBadgerStore_AppendAndGet(t *testing.T) {
	s := newTestBadgerStore(t, 20, time.Hour)
	ctx := context.Background()

	err := s.Append(ctx, "c1",
		Turn{Role: RoleUser, Text: "hello"},
		Turn{Role: RoleAssistant, Text: "hi"},
	)
	require.NoError(t, err)

	turns, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, Turn{Role: RoleUser, Text: "hello"}, turns[0])
	assert.Equal(t, Turn{Role: RoleAssistant, Text: "hi"}, turns[1])
}

func TestBadgerStore_TruncatesOldestTurns(t *testing.T) {
	s := newTestBadgerStore(t, 3, time.Hour)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := s.Append(ctx, "c1", Turn{Role: RoleUser, Text: fmt.Sprintf("turn-%d", i)})
		require.NoError(t, err)
	}

	turns, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "turn-2", turns[0].Text)
	assert.Equal(t, "turn-4", turns[2].Text)
}

func TestBadgerStore_ConversationsAreIsolated(t *testing.T) {
	s := newTestBadgerStore(t, 20, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "c1", Turn{Role: RoleUser, Text: "one"}))
	require.NoError(t, s.Append(ctx, "c2", Turn{Role: RoleUser, Text: "two"}))

	turns, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "one", turns[0].Text)
}

// Reads refresh the TTL, so concurrent asks on one conversation mix
// read-write Get transactions with Appends on the same key. Neither
// side may surface a conflict error.
func TestBadgerStore_ConcurrentGetAndAppend(t *testing.T) {
	s := newTestBadgerStore(t, 1000, time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if n%2 == 0 {
					err := s.Append(ctx, "shared", Turn{Role: RoleUser, Text: fmt.Sprintf("g%d-%d", n, j)})
					assert.NoError(t, err)
				} else {
					_, err := s.Get(ctx, "shared")
					assert.NoError(t, err)
				}
			}
		}(i)
	}
	wg.Wait()

	turns, err := s.Get(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, turns, 20)
}

func TestBadgerStore_ConcurrentConversations(t *testing.T) {
	s := newTestBadgerStore(t, 1000, time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("conv-%d", n)
			for j := 0; j < 5; j++ {
				err := s.Append(ctx, id, Turn{Role: RoleUser, Text: fmt.Sprintf("g%d-%d", n, j)})
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		turns, err := s.Get(ctx, fmt.Sprintf("conv-%d", i))
		require.NoError(t, err)
		assert.Len(t, turns, 5)
	}
}
