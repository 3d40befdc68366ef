package match

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CreateMatch(t *testing.T) {
	mgr := NewManager(10)

	mt, err := mgr.CreateMatch("alice", "bob")
	require.NoError(t, err)
	require.NotNil(t, mt)

	assert.Equal(t, 1, mgr.Count())
	assert.True(t, mgr.IsInMatch("alice"))
	assert.True(t, mgr.IsInMatch("bob"))
	assert.Equal(t, mt, mgr.MatchByPlayer("alice"))
	assert.Equal(t, mt, mgr.MatchByPlayer("bob"))
	assert.Nil(t, mgr.MatchByPlayer("eve"))
}

func TestManager_CreateMatch_AlreadyInMatch(t *testing.T) {
	mgr := NewManager(10)

	_, err := mgr.CreateMatch("alice", "bob")
	require.NoError(t, err)

	// Оба участника заняты
	_, err = mgr.CreateMatch("alice", "carol")
	assert.ErrorIs(t, err, ErrAlreadyInMatch)
	_, err = mgr.CreateMatch("carol", "bob")
	assert.ErrorIs(t, err, ErrAlreadyInMatch)
	assert.Equal(t, 1, mgr.Count())
}

func TestManager_CreateMatch_Capacity(t *testing.T) {
	mgr := NewManager(2)

	_, err := mgr.CreateMatch("a1", "b1")
	require.NoError(t, err)
	_, err = mgr.CreateMatch("a2", "b2")
	require.NoError(t, err)

	_, err = mgr.CreateMatch("a3", "b3")
	assert.ErrorIs(t, err, ErrServerFull)
	assert.Equal(t, 2, mgr.Count())

	// Освобождение слота снимает лимит
	mgr.RemoveMatch(mgr.MatchByPlayer("a1").ID())
	_, err = mgr.CreateMatch("a3", "b3")
	assert.NoError(t, err)
}

func TestManager_RemoveMatch(t *testing.T) {
	mgr := NewManager(10)

	mt, err := mgr.CreateMatch("alice", "bob")
	require.NoError(t, err)

	mgr.RemoveMatch(mt.ID())
	assert.Equal(t, 0, mgr.Count())
	assert.False(t, mgr.IsInMatch("alice"))
	assert.False(t, mgr.IsInMatch("bob"))

	// Удаление несуществующего матча не вызывает ошибку
	mgr.RemoveMatch("no-such-id")
}

func TestManager_ConcurrentCreateMatch(t *testing.T) {
	mgr := NewManager(0)

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)

	matches := make([]*Match, goroutines)
	for i := range goroutines {
		go func(idx int) {
			defer wg.Done()
			mt, err := mgr.CreateMatch(
				fmt.Sprintf("first-%d", idx),
				fmt.Sprintf("second-%d", idx),
			)
			require.NoError(t, err)
			matches[idx] = mt
		}(i)
	}

	wg.Wait()
	assert.Equal(t, goroutines, mgr.Count())

	// Все ID уникальны
	ids := make(map[string]struct{})
	for _, mt := range matches {
		require.NotNil(t, mt)
		_, exists := ids[mt.ID()]
		assert.False(t, exists, "duplicate match ID: %s", mt.ID())
		ids[mt.ID()] = struct{}{}
	}
}
