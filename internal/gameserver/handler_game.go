package gameserver

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/udisondev/seabattle/internal/game/match"
	"github.com/udisondev/seabattle/internal/model"
	"github.com/udisondev/seabattle/internal/protocol"
)

// handlePlaceShips принимает расстановку флота. Валидация авторитарна:
// клиентским проверкам сервер не доверяет.
func (h *Handler) handlePlaceShips(_ context.Context, s *Session, msg protocol.Message) error {
	var req protocol.PlaceShipsRequest
	if err := msg.Bind(&req); err != nil {
		return h.sendBadRequest(s, "Invalid payload")
	}

	mt := h.matches.MatchByPlayer(s.Username())
	if mt == nil {
		return h.sendBadRequest(s, "Not in a game")
	}

	ships := make([]model.Ship, 0, len(req.Ships))
	for _, sp := range req.Ships {
		ships = append(ships, model.Ship{
			Name:       sp.Name,
			Size:       sp.Size,
			Row:        sp.Row,
			Col:        sp.Col,
			Horizontal: sp.Horizontal,
		})
	}

	bothReady, err := mt.PlaceFleet(s.Username(), ships)
	if err != nil {
		switch {
		case errors.Is(err, match.ErrAlreadyPlaced):
			return h.sendBadRequest(s, "Ships already placed")
		case errors.Is(err, match.ErrMatchOver):
			return h.sendBadRequest(s, "Match is over")
		default:
			// Ошибки доски описывают нарушение сами.
			return h.sendBadRequest(s, err.Error())
		}
	}

	slog.Debug("fleet placed", "match", mt.ID(), "username", s.Username(), "both_ready", bothReady)

	if !bothReady {
		return s.SendFrame(protocol.SrvPlaceShipAck, protocol.StatusMessage{Message: "Waiting for opponent"})
	}

	// Оба флота на досках: стреляет первым инициатор матча.
	for _, username := range mt.Players() {
		ps := h.registry.ByName(username)
		if ps == nil {
			continue
		}
		if err := ps.SendFrame(protocol.SrvGameReady, protocol.GameReady{
			Message:  "Game starting!",
			YourTurn: mt.IsFirstMover(username),
		}); err != nil {
			slog.Debug("delivering game ready", "username", username, "error", err)
		}
	}
	return nil
}

// handleMove разрешает выстрел. Результат уходит обоим игрокам, кроме
// ALREADY_HIT — его видит только стрелявший, и ход не переходит.
func (h *Handler) handleMove(ctx context.Context, s *Session, msg protocol.Message) error {
	var req protocol.MoveRequest
	if err := msg.Bind(&req); err != nil {
		return h.sendBadRequest(s, "Invalid payload")
	}

	row, col, err := model.ParseCoord(req.Coord)
	if err != nil {
		return h.sendBadRequest(s, "Invalid coordinate")
	}

	mt := h.matches.MatchByPlayer(s.Username())
	if mt == nil {
		return h.sendBadRequest(s, "Not in a game")
	}

	report, err := mt.Shoot(s.Username(), row, col)
	if err != nil {
		switch {
		case errors.Is(err, match.ErrShipsNotPlaced):
			return h.sendBadRequest(s, "You haven't placed your ships yet")
		case errors.Is(err, match.ErrOpponentNotReady):
			return h.sendBadRequest(s, "Opponent hasn't placed ships yet")
		case errors.Is(err, match.ErrNotYourTurn):
			return h.sendBadRequest(s, "Not your turn")
		case errors.Is(err, match.ErrMatchOver):
			return h.sendBadRequest(s, "Match is over")
		default:
			return h.sendBadRequest(s, "Not in a game")
		}
	}

	result := protocol.MoveResult{
		Coord:      req.Coord,
		Result:     string(report.Result),
		ShipSunk:   report.SunkShip,
		IsYourShot: true,
		GameOver:   report.GameOver,
	}

	// Повторный выстрел не меняет состояние: противник о нём не узнаёт.
	if report.Result == model.ShotAlreadyHit {
		return s.SendFrame(protocol.SrvMoveResult, result)
	}

	opponent, _ := mt.Opponent(s.Username())
	os := h.registry.ByName(opponent)

	if err := s.SendFrame(protocol.SrvMoveResult, result); err != nil {
		slog.Debug("delivering move result", "username", s.Username(), "error", err)
	}
	if os != nil {
		result.IsYourShot = false
		if err := os.SendFrame(protocol.SrvMoveResult, result); err != nil {
			slog.Debug("delivering move result", "username", opponent, "error", err)
		}
	}

	if report.GameOver {
		return h.resolveWin(ctx, mt, s.Username(), opponent, protocol.ReasonAllShipsSunk, "")
	}

	_ = s.SendFrame(protocol.SrvTurnChange, protocol.TurnChange{YourTurn: report.NextTurn == s.Username()})
	if os != nil {
		_ = os.SendFrame(protocol.SrvTurnChange, protocol.TurnChange{YourTurn: report.NextTurn == opponent})
	}
	return nil
}

// handleChat пересылает сообщение противнику. Сервер чат не хранит
// и не журналирует.
func (h *Handler) handleChat(_ context.Context, s *Session, msg protocol.Message) error {
	var req protocol.ChatRequest
	if err := msg.Bind(&req); err != nil {
		return h.sendBadRequest(s, "Invalid payload")
	}

	os := h.registry.ByName(s.OpponentName())
	if os == nil {
		return h.sendSystem(s, protocol.CodeNotFound, "Opponent not found")
	}

	return os.SendFrame(protocol.SrvChat, protocol.ChatNotice{
		From:    s.Username(),
		Message: req.Message,
	})
}

// handleSurrender засчитывает сдавшемуся поражение в любой активной фазе.
func (h *Handler) handleSurrender(ctx context.Context, s *Session, _ protocol.Message) error {
	mt := h.matches.MatchByPlayer(s.Username())
	if mt == nil {
		return h.sendBadRequest(s, "Not in a game")
	}

	opponent, _ := mt.Opponent(s.Username())
	return h.resolveWin(ctx, mt, opponent, s.Username(), protocol.ReasonSurrender, "")
}

// handleDrawOffer передаёт предложение ничьей противнику.
func (h *Handler) handleDrawOffer(_ context.Context, s *Session, _ protocol.Message) error {
	mt := h.matches.MatchByPlayer(s.Username())
	if mt == nil {
		return h.sendBadRequest(s, "Not in a game")
	}

	if err := mt.OfferDraw(s.Username()); err != nil {
		return h.sendBadRequest(s, "Match is over")
	}

	if os := h.registry.ByName(s.OpponentName()); os != nil {
		return os.SendFrame(protocol.SrvDrawOffer, protocol.DrawOfferNotice{From: s.Username()})
	}
	return nil
}

// handleDrawReply закрывает предложение ничьей. Принятие завершает матч
// без изменения рейтингов, отказ возвращается предложившему.
func (h *Handler) handleDrawReply(ctx context.Context, s *Session, msg protocol.Message) error {
	var req protocol.DrawReply
	if err := msg.Bind(&req); err != nil {
		return h.sendBadRequest(s, "Invalid payload")
	}

	mt := h.matches.MatchByPlayer(s.Username())
	if mt == nil {
		return h.sendBadRequest(s, "Not in a game")
	}

	if strings.EqualFold(req.Status, protocol.ReplyAccept) {
		if err := mt.AcceptDraw(s.Username()); err != nil {
			return h.sendBadRequest(s, "No draw offer")
		}
		return h.resolveDraw(ctx, mt, protocol.ReasonDrawAccepted)
	}

	offerer, err := mt.RejectDraw(s.Username())
	if err != nil {
		return h.sendBadRequest(s, "No draw offer")
	}
	if os := h.registry.ByName(offerer); os != nil {
		return os.SendFrame(protocol.SrvDrawRejected, struct{}{})
	}
	return nil
}

// handlePing отвечает серверным временем в миллисекундах. Работает в любом
// статусе: клиент меряет RTT ещё до логина.
func (h *Handler) handlePing(_ context.Context, s *Session, _ protocol.Message) error {
	return s.SendFrame(protocol.SrvPong, protocol.Pong{Timestamp: time.Now().UnixMilli()})
}

// handleUpdatePing запоминает измеренный клиентом RTT и, если идёт игра,
// пересылает его противнику.
func (h *Handler) handleUpdatePing(_ context.Context, s *Session, msg protocol.Message) error {
	var req protocol.PingReport
	if err := msg.Bind(&req); err != nil {
		return h.sendBadRequest(s, "Invalid payload")
	}

	s.SetPing(req.Ping)

	if s.Status() != StatusInGame {
		return nil
	}
	if os := h.registry.ByName(s.OpponentName()); os != nil {
		_ = os.SendFrame(protocol.SrvPingUpdate, protocol.PingUpdateNotice{OpponentPing: req.Ping})
	}
	return nil
}
