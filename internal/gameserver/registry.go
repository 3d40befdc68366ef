package gameserver

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrNameTaken — аккаунт уже залогинен с другого соединения.
var ErrNameTaken = errors.New("account already logged in")

// Registry tracks all live sessions.
// Provides registration, lookup, and lobby listing.
// Thread-safe for concurrent access.
type Registry struct {
	mu     sync.RWMutex
	byID   map[int64]*Session // все живые соединения, включая OFFLINE
	byName map[string]*Session // только залогиненные

	nextID atomic.Int64
}

// NewRegistry creates a new session registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[int64]*Session, 128),
		byName: make(map[string]*Session, 128),
	}
}

// NextID allocates a monotonic session identifier.
func (r *Registry) NextID() int64 {
	return r.nextID.Add(1)
}

// Add registers a freshly accepted session.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[s.ID()] = s
}

// Remove drops the session and its name binding.
// Called when the connection closes.
func (r *Registry) Remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byID, s.ID())
	if name := s.Username(); name != "" {
		// Имя могло быть перепривязано более новой сессией
		if bound, ok := r.byName[name]; ok && bound == s {
			delete(r.byName, name)
		}
	}
}

// Bind associates the username with the session at login.
// Возвращает ErrNameTaken, если аккаунт уже в сети.
func (r *Registry) Bind(username string, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[username]; ok {
		return ErrNameTaken
	}
	r.byName[username] = s
	return nil
}

// Unbind releases the username (LOGOUT keeps the socket alive).
func (r *Registry) Unbind(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byName, username)
}

// ByName returns the session for a logged-in player.
// Returns nil if not found.
func (r *Registry) ByName(username string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[username]
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// OnlineCount returns the number of logged-in players.
func (r *Registry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// Lobby returns sessions visible in the lobby: ONLINE or IN_LOBBY,
// excluding the requester. Играющие скрыты из списка.
func (r *Registry) Lobby(requester string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.byName))
	for name, s := range r.byName {
		if name == requester {
			continue
		}
		if st := s.Status(); st == StatusOnline || st == StatusInLobby {
			out = append(out, s)
		}
	}
	return out
}

// ForEach iterates over all live sessions.
// fn receives the session. If fn returns false, iteration stops.
func (r *Registry) ForEach(fn func(*Session) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.byID {
		if !fn(s) {
			return
		}
	}
}
