package gameserver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/seabattle/internal/config"
	"github.com/udisondev/seabattle/internal/game/match"
	"github.com/udisondev/seabattle/internal/game/matchmaker"
	"github.com/udisondev/seabattle/internal/protocol"
)

// defaultWriteBufSize — стартовая ёмкость пулового буфера кадра.
// Обычный кадр (MOVE_RESULT, SYSTEM_MSG) укладывается с запасом.
const defaultWriteBufSize = 512

// maxRetainBufSize — буферы крупнее не возвращаются в пул.
// Такими бывают только PLAYER_LIST и LEADERBOARD на полном лобби.
const maxRetainBufSize = 8 << 10

// teardownTimeout ограничивает работу с БД при разборе отключённой сессии.
const teardownTimeout = 5 * time.Second

// Server is the battleship game server: TCP listener, session registry,
// matchmaking and the periodic maintenance tasks around them.
type Server struct {
	cfg        config.GameServer
	registry   *Registry
	matches    *match.Manager
	matchmaker *matchmaker.Matchmaker
	handler    *Handler
	writePool  *FramePool

	listener net.Listener
	mu       sync.Mutex
}

// NewServer wires all server components together.
func NewServer(cfg config.GameServer, accounts AccountRepository, history HistoryRepository) *Server {
	registry := NewRegistry()
	matches := match.NewManager(cfg.MaxGames)
	mm := matchmaker.New(cfg.Matchmaking.RatingWindow, cfg.Matchmaking.HandshakeTimeout)

	return &Server{
		cfg:        cfg,
		registry:   registry,
		matches:    matches,
		matchmaker: mm,
		handler:    NewHandler(registry, accounts, history, matches, mm, cfg),
		writePool:  NewFramePool(defaultWriteBufSize, maxRetainBufSize),
	}
}

// Addr returns the address the server is listening on.
// Returns nil if the server hasn't started yet.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close closes the listener. Живые соединения добивает отмена контекста
// в Serve.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// Run begins listening on cfg.BindAddress:cfg.Port and serves until the
// context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.BindAddress, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve accepts connections from the given listener.
// Used for testing with custom listeners.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)

	// Отмена контекста закрывает слушатель и все сокеты; accept-цикл и
	// читатели разматываются через ошибки чтения.
	g.Go(func() error {
		<-ctx.Done()
		ln.Close()
		s.registry.ForEach(func(sess *Session) bool {
			_ = sess.Close()
			return true
		})
		return nil
	})

	var wg sync.WaitGroup
	g.Go(func() error {
		defer wg.Wait()
		return s.acceptLoop(ctx, &wg, ln)
	})

	g.Go(func() error { return s.reapIdle(ctx) })
	g.Go(func() error { return s.runMatchmaking(ctx) })
	g.Go(func() error { return s.expireHandshakes(ctx) })

	slog.Info("game server started",
		"address", ln.Addr(),
		"max_clients", s.cfg.MaxClients,
		"max_games", s.cfg.MaxGames)

	return g.Wait()
}

func (s *Server) acceptLoop(ctx context.Context, wg *sync.WaitGroup, ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			slog.Error("failed to accept new connection", "error", err)
			continue
		}

		// TCP keepalive ловит мёртвые соединения раньше reaper'а
		if tcpConn, ok := conn.(*net.TCPConn); ok {
			if err := tcpConn.SetKeepAlive(true); err != nil {
				slog.Warn("set keepalive failed", "error", err)
			}
			if err := tcpConn.SetKeepAlivePeriod(30 * time.Second); err != nil {
				slog.Warn("set keepalive period failed", "error", err)
			}
		}

		wg.Go(func() {
			s.handleConnection(ctx, conn)
		})
	}
}

// handleConnection drives one client: WELCOME, then the scan → decode →
// dispatch loop until the socket dies. Разбор присутствия при выходе —
// общий с LOGOUT путь teardownPresence.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	// Переполненный сервер отвечает отказом и закрывается, не создавая сессию.
	if s.registry.Count() >= s.cfg.MaxClients {
		if frame, err := protocol.Encode(protocol.SrvSystemMsg, protocol.SystemMsg{
			Code:    protocol.CodeServerError,
			Message: "Server full",
		}); err == nil {
			_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			_, _ = conn.Write(frame)
		}
		conn.Close()
		slog.Warn("connection rejected: server full", "remote", conn.RemoteAddr())
		return
	}

	sess := NewSession(s.registry.NextID(), conn, s.writePool, s.cfg.SendQueueSize, s.cfg.WriteTimeout)
	s.registry.Add(sess)

	go sess.writePump()

	defer func() {
		// БД-операции teardown'а не должны умирать вместе с контекстом
		// сервера: рейтинг за брошенный матч пишется и при shutdown.
		tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
		defer cancel()

		if err := s.handler.teardownPresence(tctx, sess); err != nil {
			slog.Error("disconnect teardown", "client", sess.IP(), "error", err)
		}
		s.registry.Remove(sess)
		_ = sess.Close()

		slog.Info("client disconnected", "client", sess.IP(), "username", sess.Username())
	}()

	slog.Info("client connected", "client", sess.IP(), "session", sess.ID())

	if err := sess.SendFrame(protocol.SrvWelcome, protocol.StatusMessage{Message: "Welcome to BattleShip Server"}); err != nil {
		return
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), protocol.MaxFrameSize)

	for scanner.Scan() {
		msg, err := protocol.Decode(scanner.Bytes())
		if err != nil {
			if errors.Is(err, protocol.ErrEmptyFrame) {
				continue
			}
			_ = s.handler.sendSystem(sess, protocol.CodeBadRequest, "Malformed frame")
			continue
		}

		if err := s.handler.Dispatch(ctx, sess, msg); err != nil {
			slog.Error("command failed", "cmd", msg.Cmd, "client", sess.IP(), "error", err)
		}

		if sess.Closed() {
			return
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		slog.Debug("read loop ended", "client", sess.IP(), "error", err)
	}
}

// reapIdle закрывает сессии, молчащие дольше grace-окна. Закрытый сокет
// разматывается обычным disconnect-путём: активный матч уходит противнику.
func (s *Server) reapIdle(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Reaper.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			cutoff := time.Now().Add(-s.cfg.Reaper.Grace)

			var idle []*Session
			s.registry.ForEach(func(sess *Session) bool {
				if sess.LastActive().Before(cutoff) {
					idle = append(idle, sess)
				}
				return true
			})

			for _, sess := range idle {
				slog.Info("reaping idle session",
					"client", sess.IP(),
					"username", sess.Username(),
					"idle", time.Since(sess.LastActive()).Round(time.Second))
				_ = sess.Close()
			}
		}
	}
}

// runMatchmaking периодически гоняет проход подбора: пары, не собранные
// на START_MATCHING, находятся на тике.
func (s *Server) runMatchmaking(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Matchmaking.PassPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.handler.deliverPairs(s.matchmaker.Pass())
		}
	}
}

// expireHandshakes считает пары, не подтверждённые за handshake-таймаут,
// обоюдным отказом.
func (s *Server) expireHandshakes(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Matchmaking.PassPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, p := range s.matchmaker.ExpirePending(time.Now()) {
				for _, c := range []matchmaker.Candidate{p.First, p.Second} {
					sess := s.registry.ByName(c.Username)
					if sess == nil || sess.Status() != StatusInLobby {
						continue
					}
					sess.SetStatus(StatusOnline)
					_ = sess.SendFrame(protocol.SrvMatchDeclined, protocol.StatusMessage{Message: "Match expired"})
				}
				slog.Debug("handshake expired", "first", p.First.Username, "second", p.Second.Username)
			}
		}
	}
}
