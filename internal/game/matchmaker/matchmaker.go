// Package matchmaker pairs lobby players by rating proximity.
// Очередь живёт в порядке поступления: при нескольких кандидатах
// в окне выигрывает тот, кто встал в очередь раньше.
package matchmaker

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrAlreadyQueued  = errors.New("player already queued")
	ErrNoPendingMatch = errors.New("no pending match")
)

// Candidate is a queued player snapshot used for pairing.
type Candidate struct {
	Username string
	Rating   int
}

// Pair is a matched couple. First встал в очередь раньше и получает
// первый ход.
type Pair struct {
	First  Candidate
	Second Candidate
}

// entry — позиция в очереди. Рейтинг снимается на момент постановки.
type entry struct {
	username string
	rating   int
}

// pending — рукопожатие после MATCH_FOUND: матч стартует только когда
// обе стороны подтвердили готовность до дедлайна.
type pending struct {
	first       Candidate
	second      Candidate
	firstReady  bool
	secondReady bool
	deadline    time.Time
}

// Matchmaker manages the matching queue and the ready handshake.
// Thread-safe for concurrent access.
type Matchmaker struct {
	mu      sync.Mutex
	queue   []entry
	pending map[string]*pending // username → общее рукопожатие на двоих
	window  int
	ttl     time.Duration
}

// New creates a matchmaker. window is the maximum rating difference
// tolerated when pairing, ttl bounds the ready handshake.
func New(window int, ttl time.Duration) *Matchmaker {
	return &Matchmaker{
		pending: make(map[string]*pending, 8),
		window:  window,
		ttl:     ttl,
	}
}

// Enqueue adds a player to the queue.
func (m *Matchmaker) Enqueue(username string, rating int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.queuedLocked(username) {
		return ErrAlreadyQueued
	}
	if _, ok := m.pending[username]; ok {
		return ErrAlreadyQueued
	}
	m.queue = append(m.queue, entry{username: username, rating: rating})
	return nil
}

// Dequeue removes a player from the queue. Returns false if the player
// was not queued.
func (m *Matchmaker) Dequeue(username string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dequeueLocked(username)
}

// InQueue reports whether the player is waiting in the queue.
func (m *Matchmaker) InQueue(username string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queuedLocked(username)
}

// QueueLen returns the number of waiting players.
func (m *Matchmaker) QueueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Pass runs one pairing pass over the queue and returns the created
// pairs. Каждая пара переходит в стадию рукопожатия и ждёт MATCH_READY
// от обеих сторон.
func (m *Matchmaker) Pass() []Pair {
	m.mu.Lock()
	defer m.mu.Unlock()

	var pairs []Pair
	for {
		i, j := m.findPairLocked()
		if i < 0 {
			break
		}
		a, b := m.queue[i], m.queue[j]
		// j > i: удаляем с конца, чтобы не сдвинуть индексы
		m.queue = append(m.queue[:j], m.queue[j+1:]...)
		m.queue = append(m.queue[:i], m.queue[i+1:]...)

		p := &pending{
			first:    Candidate{Username: a.username, Rating: a.rating},
			second:   Candidate{Username: b.username, Rating: b.rating},
			deadline: time.Now().Add(m.ttl),
		}
		m.pending[a.username] = p
		m.pending[b.username] = p
		pairs = append(pairs, Pair{First: p.first, Second: p.second})

		slog.Debug("players matched",
			"first", a.username, "firstRating", a.rating,
			"second", b.username, "secondRating", b.rating)
	}
	return pairs
}

// Ready marks the player's side of the handshake as confirmed.
// Возвращает пару, когда готовы обе стороны; иначе имя ожидаемого
// соперника.
func (m *Matchmaker) Ready(username string) (*Pair, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pending[username]
	if !ok {
		return nil, "", ErrNoPendingMatch
	}

	var peer string
	if username == p.first.Username {
		p.firstReady = true
		peer = p.second.Username
	} else {
		p.secondReady = true
		peer = p.first.Username
	}

	if p.firstReady && p.secondReady {
		delete(m.pending, p.first.Username)
		delete(m.pending, p.second.Username)
		return &Pair{First: p.first, Second: p.second}, peer, nil
	}
	return nil, peer, nil
}

// Decline breaks the handshake and returns the peer to notify.
func (m *Matchmaker) Decline(username string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pending[username]
	if !ok {
		return "", ErrNoPendingMatch
	}
	delete(m.pending, p.first.Username)
	delete(m.pending, p.second.Username)
	if username == p.first.Username {
		return p.second.Username, nil
	}
	return p.first.Username, nil
}

// Remove выводит игрока из очереди и из рукопожатия (дисконнект).
// Возвращает имя соперника по сломанному рукопожатию, если оно было.
func (m *Matchmaker) Remove(username string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dequeueLocked(username)

	p, ok := m.pending[username]
	if !ok {
		return ""
	}
	delete(m.pending, p.first.Username)
	delete(m.pending, p.second.Username)
	if username == p.first.Username {
		return p.second.Username
	}
	return p.first.Username
}

// ExpirePending drops handshakes older than the deadline and returns
// the broken pairs. Молчание обеих сторон равносильно взаимному отказу.
func (m *Matchmaker) ExpirePending(now time.Time) []Pair {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expired []Pair
	seen := make(map[*pending]struct{}, len(m.pending))
	for _, p := range m.pending {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		if now.After(p.deadline) {
			expired = append(expired, Pair{First: p.first, Second: p.second})
		}
	}
	for _, pr := range expired {
		delete(m.pending, pr.First.Username)
		delete(m.pending, pr.Second.Username)
	}
	return expired
}

// findPairLocked ищет первую по FIFO пару с разницей рейтинга в окне.
// Возвращает -1, -1 если пары нет. Caller должен держать mu.
func (m *Matchmaker) findPairLocked() (int, int) {
	for i := 0; i < len(m.queue)-1; i++ {
		for j := i + 1; j < len(m.queue); j++ {
			diff := m.queue[i].rating - m.queue[j].rating
			if diff < 0 {
				diff = -diff
			}
			if diff <= m.window {
				return i, j
			}
		}
	}
	return -1, -1
}

func (m *Matchmaker) queuedLocked(username string) bool {
	for _, e := range m.queue {
		if e.username == username {
			return true
		}
	}
	return false
}

func (m *Matchmaker) dequeueLocked(username string) bool {
	for i, e := range m.queue {
		if e.username == username {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			return true
		}
	}
	return false
}
