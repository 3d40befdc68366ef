package gameserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/udisondev/seabattle/internal/crypto"
	"github.com/udisondev/seabattle/internal/model"
	"github.com/udisondev/seabattle/internal/protocol"
)

// handleRegister создаёт аккаунт. Сессия остаётся OFFLINE: протокол требует
// отдельного LOGIN после регистрации.
func (h *Handler) handleRegister(ctx context.Context, s *Session, msg protocol.Message) error {
	var req protocol.Credentials
	if err := msg.Bind(&req); err != nil {
		return h.sendBadRequest(s, "Invalid payload")
	}

	if !model.ValidUsername(req.Username) {
		return h.sendBadRequest(s, "Invalid username")
	}
	if req.Password == "" {
		return h.sendBadRequest(s, "Password required")
	}

	secret, err := crypto.HashPassword(req.Password)
	if err != nil {
		if sendErr := h.sendSystem(s, protocol.CodeServerError, "Internal server error"); sendErr != nil {
			return sendErr
		}
		return fmt.Errorf("hashing password: %w", err)
	}

	created, err := h.accounts.RegisterAccount(ctx, req.Username, secret)
	if err != nil {
		if sendErr := h.sendSystem(s, protocol.CodeServerError, "Internal server error"); sendErr != nil {
			return sendErr
		}
		return fmt.Errorf("registering %q: %w", req.Username, err)
	}
	if !created {
		return h.sendBadRequest(s, "Username already exists")
	}

	slog.Info("account registered", "username", req.Username, "client", s.IP())

	return s.SendFrame(protocol.SrvRegisterSuccess, protocol.StatusMessage{Message: "Registration successful"})
}

// handleLogin аутентифицирует и привязывает имя к сессии.
// Любая причина отказа отвечает одинаковым 401: клиент не должен уметь
// отличать "нет такого аккаунта" от "неверный пароль".
func (h *Handler) handleLogin(ctx context.Context, s *Session, msg protocol.Message) error {
	var req protocol.Credentials
	if err := msg.Bind(&req); err != nil {
		return h.sendBadRequest(s, "Invalid payload")
	}

	acc, err := h.accounts.GetAccount(ctx, req.Username)
	if err != nil {
		if sendErr := h.sendSystem(s, protocol.CodeServerError, "Internal server error"); sendErr != nil {
			return sendErr
		}
		return fmt.Errorf("loading account %q: %w", req.Username, err)
	}
	if acc == nil {
		return h.sendSystem(s, protocol.CodeUnauthorized, "Invalid credentials")
	}

	ok, err := crypto.VerifyPassword(req.Password, acc.Secret)
	if err != nil || !ok {
		if err != nil {
			slog.Warn("password verification failed", "username", req.Username, "error", err)
		}
		return h.sendSystem(s, protocol.CodeUnauthorized, "Invalid credentials")
	}

	// Имя принадлежит ровно одной живой сессии.
	if err := h.registry.Bind(acc.Username, s); err != nil {
		return h.sendSystem(s, protocol.CodeUnauthorized, "Already logged in")
	}

	token, err := crypto.NewSessionToken()
	if err != nil {
		h.registry.Unbind(acc.Username)
		if sendErr := h.sendSystem(s, protocol.CodeServerError, "Internal server error"); sendErr != nil {
			return sendErr
		}
		return fmt.Errorf("issuing session token: %w", err)
	}

	s.BindIdentity(acc.Username, acc.Rating, token)
	s.SetStatus(StatusOnline)

	if err := h.accounts.UpdateLastLogin(ctx, acc.Username); err != nil {
		// Не критично для логина, но след в журнале нужен.
		slog.Warn("updating last login", "username", acc.Username, "error", err)
	}

	slog.Info("player logged in",
		"username", acc.Username,
		"rating", acc.Rating,
		"client", s.IP())

	return s.SendFrame(protocol.SrvLoginSuccess, protocol.LoginSuccess{
		Username:     acc.Username,
		Rating:       acc.Rating,
		SessionToken: token,
		Message:      "Welcome!",
	})
}

// handleLogout снимает присутствие игрока, но не закрывает сокет:
// клиент может залогиниться снова на том же соединении.
func (h *Handler) handleLogout(ctx context.Context, s *Session, _ protocol.Message) error {
	username := s.Username()

	if err := h.teardownPresence(ctx, s); err != nil {
		slog.Error("logout teardown", "username", username, "error", err)
	}

	h.registry.Unbind(username)
	s.ClearIdentity()
	s.SetStatus(StatusOffline)

	slog.Info("player logged out", "username", username, "client", s.IP())

	return s.SendFrame(protocol.SrvLogoutSuccess, struct{}{})
}

// teardownPresence выводит игрока из всех лобби-структур: очередь подбора,
// незавершённый handshake, висящие вызовы, активный матч. Общий путь для
// LOGOUT и обрыва соединения; сессию не трогает — это дело вызывающего.
// Идемпотентен: повторный вызов ничего не находит и ничего не делает.
func (h *Handler) teardownPresence(ctx context.Context, s *Session) error {
	username := s.Username()
	if username == "" {
		return nil
	}

	// Очередь подбора и handshake. Осиротевший партнёр возвращается в ONLINE.
	if peer := h.matchmaker.Remove(username); peer != "" {
		if ps := h.registry.ByName(peer); ps != nil && ps.Status() == StatusInLobby {
			ps.SetStatus(StatusOnline)
			_ = ps.SendFrame(protocol.SrvMatchDeclined, protocol.StatusMessage{Message: "Opponent left"})
		}
	}

	// Вызовы в обе стороны.
	if challenger := s.Challenger(); challenger != "" {
		s.SetChallenger("")
		if cs := h.registry.ByName(challenger); cs != nil {
			cs.SetChallengeTarget("")
			_ = cs.SendFrame(protocol.SrvChallengeReply, protocol.ChallengeReplyNotice{
				Player: username,
				Status: protocol.ReplyReject,
			})
		}
	}
	if target := s.ChallengeTarget(); target != "" {
		s.SetChallengeTarget("")
		if ts := h.registry.ByName(target); ts != nil {
			ts.SetChallenger("")
		}
	}

	// Активный матч: оставшийся игрок побеждает.
	if mt := h.matches.MatchByPlayer(username); mt != nil {
		opponent, _ := mt.Opponent(username)
		return h.resolveWin(ctx, mt, opponent, username, protocol.ReasonOpponentDisconnected, username)
	}

	return nil
}
