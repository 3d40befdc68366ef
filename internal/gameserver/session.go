package gameserver

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udisondev/seabattle/internal/protocol"
)

// Default write queue / timeout constants.
// Overridden by config values when available.
const (
	defaultSendQueueSize = 256
	defaultWriteTimeout  = 5 * time.Second
)

// SessionStatus is the lifecycle state of one connected player.
type SessionStatus int32

const (
	StatusOffline SessionStatus = iota // подключён, но не залогинен
	StatusOnline                       // в лобби-неявном состоянии
	StatusInLobby                      // ищет соперника
	StatusInGame                       // играет матч
)

// String returns the wire form used in PLAYER_LIST.
func (s SessionStatus) String() string {
	switch s {
	case StatusOnline:
		return "ONLINE"
	case StatusInLobby:
		return "IN_LOBBY"
	case StatusInGame:
		return "IN_GAME"
	default:
		return "OFFLINE"
	}
}

// Session represents a single player connection to the game server.
type Session struct {
	id   int64
	conn net.Conn
	ip   string

	// status использует atomic.Int32 для lock-free reads в hot path
	status atomic.Int32

	// lastActive обновляется на каждом входящем фрейме; жнец сверяет
	// его с grace-периодом
	lastActive atomic.Int64 // unix nano

	// mu защищает идентичность и игровые связи (редкие операции)
	mu         sync.Mutex
	username   string
	rating     int
	token      string
	challenger string // входящий вызов: кто вызвал этого игрока
	challenged string // исходящий вызов: кого вызвал этот игрок
	matchID    string
	opponent   string
	ping       int

	// Per-session write queue: все фреймы уходят через writePump
	sendCh    chan []byte // buffered channel with rendered frames (pool-backed)
	closeCh   chan struct{}
	closeOnce sync.Once

	writePool    *FramePool    // shared pool for returning buffers after write
	writeTimeout time.Duration // per-write deadline
}

// NewSession creates session state for the given connection.
func NewSession(id int64, conn net.Conn, writePool *FramePool, sendQueueSize int, writeTimeout time.Duration) *Session {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		host = conn.RemoteAddr().String()
	}

	if sendQueueSize <= 0 {
		sendQueueSize = defaultSendQueueSize
	}
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}

	s := &Session{
		id:           id,
		conn:         conn,
		ip:           host,
		sendCh:       make(chan []byte, sendQueueSize),
		closeCh:      make(chan struct{}),
		writePool:    writePool,
		writeTimeout: writeTimeout,
	}
	s.status.Store(int32(StatusOffline))
	s.Touch()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() int64 { return s.id }

// Conn returns the underlying network connection.
func (s *Session) Conn() net.Conn { return s.conn }

// IP returns the client's remote IP address.
func (s *Session) IP() string { return s.ip }

// Status returns the current session status.
// Использует atomic для lock-free reads (hot path).
func (s *Session) Status() SessionStatus {
	return SessionStatus(s.status.Load())
}

// SetStatus sets the session status.
func (s *Session) SetStatus(st SessionStatus) {
	s.status.Store(int32(st))
}

// Touch обновляет отметку активности. Вызывается на каждом фрейме.
func (s *Session) Touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// LastActive returns the time of the last inbound frame.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// Username returns the logged-in player name, "" before login.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// BindIdentity привязывает аккаунт к сессии после успешного логина.
func (s *Session) BindIdentity(username string, rating int, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
	s.rating = rating
	s.token = token
}

// ClearIdentity снимает привязку аккаунта (LOGOUT).
func (s *Session) ClearIdentity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = ""
	s.rating = 0
	s.token = ""
	s.challenger = ""
	s.challenged = ""
	s.matchID = ""
	s.opponent = ""
}

// Rating returns the cached account rating.
func (s *Session) Rating() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rating
}

// SetRating refreshes the cached rating (after a match ends).
func (s *Session) SetRating(r int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rating = r
}

// Token returns the session token issued at login.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Challenger returns who challenged this player, "" if nobody.
func (s *Session) Challenger() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.challenger
}

// SetChallenger records an incoming challenge.
func (s *Session) SetChallenger(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenger = name
}

// ChallengeTarget returns whom this player challenged, "" if nobody.
func (s *Session) ChallengeTarget() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.challenged
}

// SetChallengeTarget records an outgoing challenge.
func (s *Session) SetChallengeTarget(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenged = name
}

// EnterGame links the session to a match and flips it to IN_GAME.
// Вызов и вызываемый к этому моменту уже отыграли своё.
func (s *Session) EnterGame(matchID, opponent string) {
	s.mu.Lock()
	s.matchID = matchID
	s.opponent = opponent
	s.challenger = ""
	s.challenged = ""
	s.mu.Unlock()
	s.SetStatus(StatusInGame)
}

// LeaveGame drops the match linkage and returns the session to ONLINE.
func (s *Session) LeaveGame() {
	s.mu.Lock()
	s.matchID = ""
	s.opponent = ""
	s.mu.Unlock()
	s.SetStatus(StatusOnline)
}

// MatchID returns the active match id, "" outside a game.
func (s *Session) MatchID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matchID
}

// OpponentName returns the in-game opponent, "" outside a game.
func (s *Session) OpponentName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opponent
}

// Ping returns the last reported round-trip time in milliseconds.
func (s *Session) Ping() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ping
}

// SetPing stores a client-reported round-trip time.
func (s *Session) SetPing(ms int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ping = ms
}

// writePump is a dedicated writer goroutine for this session.
// Reads rendered frames from sendCh and writes them to conn.
// Uses net.Buffers (writev syscall) for batching and pool.Put for buffer return.
func (s *Session) writePump() {
	// Pre-allocate scratch slices (one-time, reused across iterations)
	bufs := make(net.Buffers, 0, 64)
	poolBufs := make([][]byte, 0, 64)

	defer func() {
		// Drain remaining frames and return to pool
		for {
			select {
			case frame := <-s.sendCh:
				if s.writePool != nil {
					s.writePool.Put(frame)
				}
			default:
				return
			}
		}
	}()

	for {
		select {
		case frame, ok := <-s.sendCh:
			if !ok {
				return // channel closed = graceful shutdown
			}

			if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
				slog.Warn("set write deadline failed", "client", s.ip, "error", err)
				if s.writePool != nil {
					s.writePool.Put(frame)
				}
				return
			}

			// Batching: drain all queued frames
			queued := len(s.sendCh)
			if queued == 0 {
				// Single frame — direct write (hot path, zero-alloc)
				_, err := s.conn.Write(frame)
				if s.writePool != nil {
					s.writePool.Put(frame)
				}
				if err != nil {
					slog.Warn("write failed", "client", s.ip, "error", err)
					return
				}
				continue
			}

			// Multiple frames — net.Buffers (writev syscall, zero-copy)
			bufs = bufs[:0]
			poolBufs = poolBufs[:0]

			bufs = append(bufs, frame)
			poolBufs = append(poolBufs, frame)
			for range queued {
				f := <-s.sendCh
				bufs = append(bufs, f)
				poolBufs = append(poolBufs, f)
			}

			_, err := bufs.WriteTo(s.conn)

			// ALWAYS return buffers to pool (even on error)
			if s.writePool != nil {
				for _, b := range poolBufs {
					s.writePool.Put(b)
				}
			}

			if err != nil {
				slog.Warn("batch write failed", "client", s.ip, "error", err)
				return
			}

		case <-s.closeCh:
			return
		}
	}
}

// Send queues a rendered frame for async delivery.
// Non-blocking: returns error if queue is full (slow client → disconnect).
// OWNERSHIP: takes ownership of frame (pool buffer). writePump will return it to pool.
func (s *Session) Send(frame []byte) error {
	select {
	case s.sendCh <- frame:
		return nil
	default:
		if s.writePool != nil {
			s.writePool.Put(frame)
		}
		slog.Warn("send queue full, disconnecting slow client", "client", s.ip)
		s.CloseAsync()
		return fmt.Errorf("send queue full")
	}
}

// SendSync queues a rendered frame and blocks until accepted or timeout.
// Used for handler responses that MUST be delivered.
// OWNERSHIP: takes ownership of frame.
func (s *Session) SendSync(frame []byte, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case s.sendCh <- frame:
		return nil
	case <-timer.C:
		if s.writePool != nil {
			s.writePool.Put(frame)
		}
		return fmt.Errorf("send timeout after %v", timeout)
	case <-s.closeCh:
		if s.writePool != nil {
			s.writePool.Put(frame)
		}
		return fmt.Errorf("session closed")
	}
}

// SendFrame renders one protocol frame into a pooled buffer and queues it.
func (s *Session) SendFrame(cmd string, payload any) error {
	buf := s.pooledBuf()
	frame, err := protocol.AppendFrame(buf, cmd, payload)
	if err != nil {
		if s.writePool != nil {
			s.writePool.Put(buf)
		}
		return err
	}
	return s.Send(frame)
}

// SendFrameSync is SendFrame with blocking delivery into the queue.
func (s *Session) SendFrameSync(cmd string, payload any, timeout time.Duration) error {
	buf := s.pooledBuf()
	frame, err := protocol.AppendFrame(buf, cmd, payload)
	if err != nil {
		if s.writePool != nil {
			s.writePool.Put(buf)
		}
		return err
	}
	return s.SendSync(frame, timeout)
}

func (s *Session) pooledBuf() []byte {
	if s.writePool == nil {
		return nil
	}
	return s.writePool.Get()
}

// CloseAsync signals the writePump to stop without blocking.
// Safe to call multiple times.
func (s *Session) CloseAsync() {
	s.closeOnce.Do(func() {
		s.status.Store(int32(StatusOffline))
		close(s.closeCh)
	})
}

// Close closes the connection and stops the writePump.
func (s *Session) Close() error {
	s.CloseAsync()
	return s.conn.Close()
}

// Closed reports whether the session was shut down.
func (s *Session) Closed() bool {
	select {
	case <-s.closeCh:
		return true
	default:
		return false
	}
}
