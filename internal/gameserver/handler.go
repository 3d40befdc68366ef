package gameserver

import (
	"context"
	"log/slog"

	"github.com/udisondev/seabattle/internal/config"
	"github.com/udisondev/seabattle/internal/game/match"
	"github.com/udisondev/seabattle/internal/game/matchmaker"
	"github.com/udisondev/seabattle/internal/protocol"
)

// statusMask — битовая маска статусов сессии, в которых команда разрешена.
type statusMask uint8

func maskOf(statuses ...SessionStatus) statusMask {
	var m statusMask
	for _, st := range statuses {
		m |= 1 << uint(st)
	}
	return m
}

func (m statusMask) has(st SessionStatus) bool {
	return m&(1<<uint(st)) != 0
}

// command связывает протокольную команду с обработчиком и статусами,
// в которых она допустима. deny — текст SYSTEM_MSG при неподходящем статусе.
type command struct {
	allowed statusMask
	deny    string
	handle  func(ctx context.Context, s *Session, msg protocol.Message) error
}

// Handler dispatches decoded client frames to per-command handlers.
// Зависимости от БД заданы интерфейсами, чтобы тесты могли подставить фейки.
type Handler struct {
	registry   *Registry
	accounts   AccountRepository
	history    HistoryRepository
	matches    *match.Manager
	matchmaker *matchmaker.Matchmaker
	cfg        config.GameServer

	commands map[string]command
}

// NewHandler builds the command table and wires dependencies.
func NewHandler(
	registry *Registry,
	accounts AccountRepository,
	history HistoryRepository,
	matches *match.Manager,
	mm *matchmaker.Matchmaker,
	cfg config.GameServer,
) *Handler {
	h := &Handler{
		registry:   registry,
		accounts:   accounts,
		history:    history,
		matches:    matches,
		matchmaker: mm,
		cfg:        cfg,
	}

	loggedIn := maskOf(StatusOnline, StatusInLobby, StatusInGame)
	anyStatus := maskOf(StatusOffline, StatusOnline, StatusInLobby, StatusInGame)

	h.commands = map[string]command{
		protocol.CmdRegister: {maskOf(StatusOffline), "Already logged in", h.handleRegister},
		protocol.CmdLogin:    {maskOf(StatusOffline), "Already logged in", h.handleLogin},
		protocol.CmdLogout:   {loggedIn, "", h.handleLogout},

		protocol.CmdPlayerList:   {loggedIn, "", h.handlePlayerList},
		protocol.CmdLeaderboard:  {loggedIn, "", h.handleLeaderboard},
		protocol.CmdMatchHistory: {loggedIn, "", h.handleMatchHistory},

		protocol.CmdStartMatching:  {maskOf(StatusOnline), "Cannot start matching", h.handleStartMatching},
		protocol.CmdCancelMatching: {maskOf(StatusInLobby), "Not in matchmaking", h.handleCancelMatching},
		protocol.CmdMatchReady:     {maskOf(StatusInLobby), "No match found", h.handleMatchReady},
		protocol.CmdMatchDecline:   {maskOf(StatusInLobby), "No match found", h.handleMatchDecline},

		protocol.CmdChallenge:      {maskOf(StatusOnline), "Cannot challenge now", h.handleChallenge},
		protocol.CmdChallengeReply: {maskOf(StatusOnline, StatusInLobby), "No pending challenge", h.handleChallengeReply},

		protocol.CmdPlaceShips: {maskOf(StatusInGame), "Not in a game", h.handlePlaceShips},
		protocol.CmdMove:       {maskOf(StatusInGame), "Not in a game", h.handleMove},
		protocol.CmdChat:       {maskOf(StatusInGame), "Not in a game", h.handleChat},
		protocol.CmdSurrender:  {maskOf(StatusInGame), "Not in a game", h.handleSurrender},
		protocol.CmdDrawOffer:  {maskOf(StatusInGame), "Not in a game", h.handleDrawOffer},
		protocol.CmdDrawReply:  {maskOf(StatusInGame), "Not in a game", h.handleDrawReply},

		protocol.CmdPing:       {anyStatus, "", h.handlePing},
		protocol.CmdUpdatePing: {anyStatus, "", h.handleUpdatePing},
	}

	return h
}

// Dispatch routes one decoded frame to its handler.
// Возвращаемая ошибка — инфраструктурная (БД, закрытая сессия); нарушения
// протокола и предусловий уходят клиенту как SYSTEM_MSG и дают nil.
func (h *Handler) Dispatch(ctx context.Context, s *Session, msg protocol.Message) error {
	s.Touch()

	cmd, ok := h.commands[msg.Cmd]
	if !ok {
		slog.Warn("unknown command", "cmd", msg.Cmd, "client", s.IP())
		return h.sendSystem(s, protocol.CodeBadRequest, "Unknown command")
	}

	st := s.Status()
	if !cmd.allowed.has(st) {
		// До логина любая закрытая команда — это проблема аутентификации,
		// после — проблема состояния.
		if st == StatusOffline {
			return h.sendSystem(s, protocol.CodeUnauthorized, "Not logged in")
		}
		return h.sendSystem(s, protocol.CodeBadRequest, cmd.deny)
	}

	return cmd.handle(ctx, s, msg)
}

// sendSystem отправляет клиенту SYSTEM_MSG {code, message}.
func (h *Handler) sendSystem(s *Session, code int, message string) error {
	return s.SendFrame(protocol.SrvSystemMsg, protocol.SystemMsg{Code: code, Message: message})
}

// sendBadRequest — типовой отказ 400 за сломанный payload.
func (h *Handler) sendBadRequest(s *Session, message string) error {
	return h.sendSystem(s, protocol.CodeBadRequest, message)
}
