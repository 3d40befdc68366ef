package gameserver

import (
	"context"
	"errors"
	"log/slog"

	"github.com/udisondev/seabattle/internal/game/match"
	"github.com/udisondev/seabattle/internal/game/matchmaker"
	"github.com/udisondev/seabattle/internal/protocol"
)

// handleStartMatching ставит игрока в очередь подбора и сразу гоняет
// один проход: пара может найтись без ожидания тика.
func (h *Handler) handleStartMatching(_ context.Context, s *Session, _ protocol.Message) error {
	if err := h.matchmaker.Enqueue(s.Username(), s.Rating()); err != nil {
		return h.sendBadRequest(s, "Cannot start matching")
	}
	s.SetStatus(StatusInLobby)

	if err := s.SendFrame(protocol.SrvMatchingStarted, protocol.StatusMessage{Message: "Searching for opponent..."}); err != nil {
		return err
	}

	h.deliverPairs(h.matchmaker.Pass())
	return nil
}

// handleCancelMatching выводит игрока из очереди. Если подбор уже нашёл
// пару, отмена работает как decline: партнёр получает MATCH_DECLINED.
func (h *Handler) handleCancelMatching(_ context.Context, s *Session, _ protocol.Message) error {
	if peer := h.matchmaker.Remove(s.Username()); peer != "" {
		if ps := h.registry.ByName(peer); ps != nil && ps.Status() == StatusInLobby {
			ps.SetStatus(StatusOnline)
			_ = ps.SendFrame(protocol.SrvMatchDeclined, protocol.StatusMessage{Message: "Opponent left"})
		}
	}
	s.SetStatus(StatusOnline)

	return s.SendFrame(protocol.SrvMatchingCancelled, protocol.StatusMessage{Message: "Matching cancelled"})
}

// handleMatchReady подтверждает найденную пару. Первый готовый ждёт,
// второй запускает матч.
func (h *Handler) handleMatchReady(ctx context.Context, s *Session, _ protocol.Message) error {
	pair, peer, err := h.matchmaker.Ready(s.Username())
	if err != nil {
		return h.sendBadRequest(s, "No match found")
	}

	if pair == nil {
		if ps := h.registry.ByName(peer); ps != nil {
			_ = ps.SendFrame(protocol.SrvOpponentReady, protocol.OpponentReady{Username: s.Username()})
		}
		return s.SendFrame(protocol.SrvWaitingOpponent, protocol.StatusMessage{Message: "Waiting for opponent"})
	}

	first := h.registry.ByName(pair.First.Username)
	second := h.registry.ByName(pair.Second.Username)
	if first == nil || second == nil {
		// Один из пары оборвался между подтверждениями.
		for _, ps := range []*Session{first, second} {
			if ps != nil {
				ps.SetStatus(StatusOnline)
				_ = ps.SendFrame(protocol.SrvMatchDeclined, protocol.StatusMessage{Message: "Opponent left"})
			}
		}
		return nil
	}

	return h.startMatch(ctx, first, second)
}

// handleMatchDecline отклоняет найденную пару: оба возвращаются в ONLINE,
// партнёр получает MATCH_DECLINED.
func (h *Handler) handleMatchDecline(_ context.Context, s *Session, _ protocol.Message) error {
	peer, err := h.matchmaker.Decline(s.Username())
	if err != nil {
		return h.sendBadRequest(s, "No match found")
	}

	s.SetStatus(StatusOnline)
	if ps := h.registry.ByName(peer); ps != nil && ps.Status() == StatusInLobby {
		ps.SetStatus(StatusOnline)
		_ = ps.SendFrame(protocol.SrvMatchDeclined, protocol.StatusMessage{Message: "Opponent declined"})
	}

	return s.SendFrame(protocol.SrvMatchingCancelled, protocol.StatusMessage{Message: "Match declined"})
}

// deliverPairs рассылает MATCH_FOUND свежим парам. Вызывается и из
// обработчика START_MATCHING, и из периодического тика сервера.
func (h *Handler) deliverPairs(pairs []matchmaker.Pair) {
	for _, p := range pairs {
		h.notifyFound(p.First, p.Second)
		h.notifyFound(p.Second, p.First)
	}
}

func (h *Handler) notifyFound(to, opponent matchmaker.Candidate) {
	s := h.registry.ByName(to.Username)
	if s == nil {
		return
	}
	if err := s.SendFrame(protocol.SrvMatchFound, protocol.MatchFound{
		Opponent: opponent.Username,
		Rating:   opponent.Rating,
	}); err != nil {
		slog.Debug("delivering match found", "username", to.Username, "error", err)
	}
}

// startMatch создаёт матч и переводит обе сессии в игру. first ходит
// первым: это либо вызвавший, либо раньше вставший в очередь.
func (h *Handler) startMatch(_ context.Context, first, second *Session) error {
	mt, err := h.matches.CreateMatch(first.Username(), second.Username())
	if err != nil {
		code, text := protocol.CodeBadRequest, "Already in a game"
		if errors.Is(err, match.ErrServerFull) {
			code, text = protocol.CodeServerError, "Server full"
		}
		for _, ps := range []*Session{first, second} {
			if ps.Status() == StatusInLobby {
				ps.SetStatus(StatusOnline)
			}
			_ = ps.SendFrame(protocol.SrvSystemMsg, protocol.SystemMsg{Code: code, Message: text})
		}
		return nil
	}

	first.EnterGame(mt.ID(), second.Username())
	second.EnterGame(mt.ID(), first.Username())

	_ = first.SendFrame(protocol.SrvGameStart, protocol.GameStart{Opponent: second.Username(), YourTurn: true})
	_ = second.SendFrame(protocol.SrvGameStart, protocol.GameStart{Opponent: first.Username(), YourTurn: false})

	slog.Info("match started",
		"match", mt.ID(),
		"first", first.Username(),
		"second", second.Username())

	return nil
}
