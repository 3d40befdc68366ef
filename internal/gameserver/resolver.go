package gameserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/udisondev/seabattle/internal/game/match"
	"github.com/udisondev/seabattle/internal/model"
	"github.com/udisondev/seabattle/internal/protocol"
)

// resolveWin завершает матч с победителем: рейтинги, история, GAME_END,
// возврат сессий в ONLINE, удаление матча. absent — игрок, которому ничего
// не шлём (его сокет мёртв или он сам уходит через LOGOUT/disconnect).
//
// Одноразовость обеспечивает mt.Finish(): гонка surrender/disconnect/reaper
// схлопывается на первом вызове. Мьютекс матча на время работы с БД
// не удерживается.
func (h *Handler) resolveWin(ctx context.Context, mt *match.Match, winner, loser, reason, absent string) error {
	if !mt.Finish() {
		return nil
	}

	var errs []error

	winnerRating, loserRating := h.sessionRating(winner), h.sessionRating(loser)

	if r, err := h.accounts.UpdateStats(ctx, winner, h.cfg.RatingDelta, true); err != nil {
		errs = append(errs, fmt.Errorf("updating winner %q: %w", winner, err))
	} else {
		winnerRating = r
	}
	if r, err := h.accounts.UpdateStats(ctx, loser, -h.cfg.RatingDelta, false); err != nil {
		errs = append(errs, fmt.Errorf("updating loser %q: %w", loser, err))
	} else {
		loserRating = r
	}

	if err := h.history.AppendMatch(ctx, winner, loser, model.ResultWin); err != nil {
		errs = append(errs, err)
	}
	if err := h.history.AppendMatch(ctx, loser, winner, model.ResultLose); err != nil {
		errs = append(errs, err)
	}

	h.finishSession(mt, winner, absent, winnerRating, protocol.GameEnd{
		Result: protocol.GameResultWin,
		Reason: reason,
		Rating: winnerRating,
	})
	h.finishSession(mt, loser, absent, loserRating, protocol.GameEnd{
		Result: protocol.GameResultLose,
		Reason: reason,
		Rating: loserRating,
	})

	h.matches.RemoveMatch(mt.ID())

	slog.Info("match resolved",
		"match", mt.ID(),
		"winner", winner,
		"loser", loser,
		"reason", reason)

	return errors.Join(errs...)
}

// resolveDraw завершает матч вничью: история пишется обоим, рейтинг и
// статистика не меняются.
func (h *Handler) resolveDraw(ctx context.Context, mt *match.Match, reason string) error {
	if !mt.Finish() {
		return nil
	}

	var errs []error

	players := mt.Players()
	if err := h.history.AppendMatch(ctx, players[0], players[1], model.ResultDraw); err != nil {
		errs = append(errs, err)
	}
	if err := h.history.AppendMatch(ctx, players[1], players[0], model.ResultDraw); err != nil {
		errs = append(errs, err)
	}

	for _, username := range players {
		h.finishSession(mt, username, "", h.sessionRating(username), protocol.GameEnd{
			Result: protocol.GameResultDraw,
			Reason: reason,
			Rating: h.sessionRating(username),
		})
	}

	h.matches.RemoveMatch(mt.ID())

	slog.Info("match resolved",
		"match", mt.ID(),
		"players", players,
		"reason", reason)

	return errors.Join(errs...)
}

// finishSession доставляет GAME_END и возвращает сессию в ONLINE.
// Отсутствующий игрок разбирается собственным teardown-путём.
func (h *Handler) finishSession(mt *match.Match, username, absent string, rating int, end protocol.GameEnd) {
	if username == absent {
		return
	}
	s := h.registry.ByName(username)
	if s == nil {
		return
	}
	s.SetRating(rating)
	if s.MatchID() == mt.ID() {
		s.LeaveGame()
	}
	if err := s.SendFrame(protocol.SrvGameEnd, end); err != nil {
		slog.Debug("delivering game end", "username", username, "error", err)
	}
}

// sessionRating возвращает кэшированный рейтинг игрока, 0 если сессии нет.
func (h *Handler) sessionRating(username string) int {
	if s := h.registry.ByName(username); s != nil {
		return s.Rating()
	}
	return 0
}
