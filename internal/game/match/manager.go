package match

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrAlreadyInMatch = errors.New("player already in a match")
	ErrServerFull     = errors.New("server full")
)

// Manager manages all active matches.
// Thread-safe for concurrent access.
type Manager struct {
	mu       sync.RWMutex
	matches  map[string]*Match // matchID → Match
	byPlayer map[string]string // username → matchID (quick lookup)
	maxGames int
}

// NewManager creates a match manager limited to maxGames concurrent
// matches. maxGames <= 0 removes the limit.
func NewManager(maxGames int) *Manager {
	return &Manager{
		matches:  make(map[string]*Match, 16),
		byPlayer: make(map[string]string, 32),
		maxGames: maxGames,
	}
}

// CreateMatch creates a match between two players. The first player
// makes the first move.
func (m *Manager) CreateMatch(first, second string) (*Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byPlayer[first]; ok {
		return nil, ErrAlreadyInMatch
	}
	if _, ok := m.byPlayer[second]; ok {
		return nil, ErrAlreadyInMatch
	}
	if m.maxGames > 0 && len(m.matches) >= m.maxGames {
		return nil, ErrServerFull
	}

	id := uuid.NewString()
	mt := New(id, first, second)
	m.matches[id] = mt
	m.byPlayer[first] = id
	m.byPlayer[second] = id

	slog.Debug("match created", "matchID", id, "first", first, "second", second)
	return mt, nil
}

// MatchByPlayer returns the active match for a player, or nil.
func (m *Manager) MatchByPlayer(username string) *Match {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byPlayer[username]
	if !ok {
		return nil
	}
	return m.matches[id]
}

// IsInMatch returns true if the player participates in an active match.
func (m *Manager) IsInMatch(username string) bool {
	m.mu.RLock()
	_, ok := m.byPlayer[username]
	m.mu.RUnlock()
	return ok
}

// RemoveMatch removes a match and both player bindings.
func (m *Manager) RemoveMatch(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mt, ok := m.matches[id]
	if !ok {
		return
	}
	for _, p := range mt.Players() {
		if m.byPlayer[p] == id {
			delete(m.byPlayer, p)
		}
	}
	delete(m.matches, id)

	slog.Debug("match removed", "matchID", id)
}

// Count returns the number of active matches.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.matches)
}
