// Package match implements the battleship duel lifecycle:
// расстановка кораблей → обмен выстрелами → завершение.
package match

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udisondev/seabattle/internal/model"
)

// Phase represents the stage of a match.
type Phase int32

const (
	PhasePlacing  Phase = iota // ожидание расстановки обоих флотов
	PhasePlaying               // обмен выстрелами
	PhaseFinished              // матч завершён
)

var (
	ErrNotParticipant   = errors.New("player is not in this match")
	ErrAlreadyPlaced    = errors.New("ships already placed")
	ErrShipsNotPlaced   = errors.New("place your ships first")
	ErrOpponentNotReady = errors.New("opponent is not ready")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrMatchOver        = errors.New("match is finished")
	ErrNoDrawOffer      = errors.New("no draw offer pending")
)

// side хранит состояние одного игрока внутри матча.
type side struct {
	username string
	board    *model.Board
	ready    bool
}

// ShotReport describes the outcome of a resolved shot.
type ShotReport struct {
	Result   model.ShotResult
	SunkShip string // имя только что потопленного корабля, иначе ""
	GameOver bool   // у противника не осталось живых клеток
	NextTurn string // чей ход после выстрела
}

// Match is an active battleship duel between two players.
// Player at index 0 is the initiator (challenger or earlier queue
// entrant) and makes the first move.
type Match struct {
	mu sync.Mutex

	id        string
	players   [2]side
	phase     Phase
	turn      int // индекс игрока, чей ход
	drawOffer int // индекс предложившего ничью, -1 если нет
	startedAt time.Time

	finished atomic.Bool
}

// New creates a match in the placing phase. The first player moves first.
func New(id, first, second string) *Match {
	return &Match{
		id: id,
		players: [2]side{
			{username: first, board: model.NewBoard()},
			{username: second, board: model.NewBoard()},
		},
		phase:     PhasePlacing,
		drawOffer: -1,
		startedAt: time.Now(),
	}
}

// ID returns the match identifier.
func (m *Match) ID() string { return m.id }

// StartedAt returns the match creation time.
func (m *Match) StartedAt() time.Time { return m.startedAt }

// Players returns both usernames, first mover first.
func (m *Match) Players() [2]string {
	return [2]string{m.players[0].username, m.players[1].username}
}

// Opponent returns the other participant's username.
func (m *Match) Opponent(username string) (string, bool) {
	switch username {
	case m.players[0].username:
		return m.players[1].username, true
	case m.players[1].username:
		return m.players[0].username, true
	}
	return "", false
}

// Phase returns the current match phase.
func (m *Match) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// TurnOf returns the username whose move it is.
func (m *Match) TurnOf() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.players[m.turn].username
}

// IsFirstMover reports whether the player opens the game.
func (m *Match) IsFirstMover(username string) bool {
	return m.players[0].username == username
}

// IsFinished returns true once the match has been ended.
func (m *Match) IsFinished() bool { return m.finished.Load() }

// Finish marks the match as finished. Returns true for the first call
// only, so the end-of-game sequence runs exactly once even when
// surrender, disconnect and reaper race each other.
func (m *Match) Finish() bool {
	if !m.finished.CompareAndSwap(false, true) {
		return false
	}
	m.mu.Lock()
	m.phase = PhaseFinished
	m.mu.Unlock()
	return true
}

// PlaceFleet validates and installs the player's fleet.
// Возвращает true когда оба флота расставлены и начинается фаза стрельбы.
func (m *Match) PlaceFleet(username string, ships []model.Ship) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase == PhaseFinished {
		return false, ErrMatchOver
	}
	i := m.indexOf(username)
	if i < 0 {
		return false, ErrNotParticipant
	}
	if m.players[i].ready {
		return false, ErrAlreadyPlaced
	}
	if err := m.players[i].board.PlaceFleet(ships); err != nil {
		return false, err
	}
	m.players[i].ready = true

	if m.players[0].ready && m.players[1].ready {
		m.phase = PhasePlaying
		return true, nil
	}
	return false, nil
}

// Placed reports whether the player's fleet is installed.
func (m *Match) Placed(username string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(username)
	return i >= 0 && m.players[i].ready
}

// Shoot resolves the player's shot at the opponent's board.
// Попадание и промах передают ход противнику; повторный выстрел
// в ту же клетку ход не тратит.
func (m *Match) Shoot(username string, row, col int) (ShotReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase == PhaseFinished {
		return ShotReport{}, ErrMatchOver
	}
	i := m.indexOf(username)
	if i < 0 {
		return ShotReport{}, ErrNotParticipant
	}
	if !m.players[i].ready {
		return ShotReport{}, ErrShipsNotPlaced
	}
	opp := 1 - i
	if !m.players[opp].ready {
		return ShotReport{}, ErrOpponentNotReady
	}
	if m.turn != i {
		return ShotReport{}, ErrNotYourTurn
	}

	outcome := m.players[opp].board.Shoot(row, col)
	report := ShotReport{
		Result:   outcome.Result,
		SunkShip: outcome.SunkShip,
		GameOver: outcome.AllSunk,
	}

	// Победа фиксируется до передачи хода; ALREADY_HIT оставляет ход
	// стреляющему.
	switch {
	case outcome.AllSunk:
		m.phase = PhaseFinished
	case outcome.Result != model.ShotAlreadyHit:
		m.turn = opp
	}
	report.NextTurn = m.players[m.turn].username
	return report, nil
}

// OfferDraw records a draw offer from the player.
func (m *Match) OfferDraw(username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase == PhaseFinished {
		return ErrMatchOver
	}
	i := m.indexOf(username)
	if i < 0 {
		return ErrNotParticipant
	}
	m.drawOffer = i
	return nil
}

// AcceptDraw consumes a pending draw offer from the opponent.
func (m *Match) AcceptDraw(username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase == PhaseFinished {
		return ErrMatchOver
	}
	i := m.indexOf(username)
	if i < 0 {
		return ErrNotParticipant
	}
	if m.drawOffer != 1-i {
		return ErrNoDrawOffer
	}
	m.drawOffer = -1
	return nil
}

// RejectDraw clears a pending draw offer and returns the offerer.
func (m *Match) RejectDraw(username string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase == PhaseFinished {
		return "", ErrMatchOver
	}
	i := m.indexOf(username)
	if i < 0 {
		return "", ErrNotParticipant
	}
	if m.drawOffer != 1-i {
		return "", ErrNoDrawOffer
	}
	offerer := m.players[m.drawOffer].username
	m.drawOffer = -1
	return offerer, nil
}

// indexOf возвращает индекс игрока или -1. Вызывать под mu.
func (m *Match) indexOf(username string) int {
	switch username {
	case m.players[0].username:
		return 0
	case m.players[1].username:
		return 1
	}
	return -1
}
