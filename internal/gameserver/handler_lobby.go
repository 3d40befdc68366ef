package gameserver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/udisondev/seabattle/internal/protocol"
)

// leaderboardLimit — сколько строк отдаёт LEADERBOARD и MATCH_HISTORY.
const leaderboardLimit = 50

// handlePlayerList отдаёт игроков в лобби: ONLINE и IN_LOBBY, кроме
// запрашивающего. Играющие скрыты.
func (h *Handler) handlePlayerList(_ context.Context, s *Session, _ protocol.Message) error {
	sessions := h.registry.Lobby(s.Username())

	players := make([]protocol.PlayerInfo, 0, len(sessions))
	for _, ps := range sessions {
		players = append(players, protocol.PlayerInfo{
			Username: ps.Username(),
			Status:   ps.Status().String(),
			Rating:   ps.Rating(),
		})
	}

	return s.SendFrame(protocol.SrvPlayerList, protocol.PlayerList{Players: players})
}

// handleLeaderboard отдаёт топ-50 аккаунтов по рейтингу.
func (h *Handler) handleLeaderboard(ctx context.Context, s *Session, _ protocol.Message) error {
	accounts, err := h.accounts.Leaderboard(ctx, leaderboardLimit)
	if err != nil {
		if sendErr := h.sendSystem(s, protocol.CodeServerError, "Internal server error"); sendErr != nil {
			return sendErr
		}
		return fmt.Errorf("loading leaderboard: %w", err)
	}

	players := make([]protocol.LeaderboardEntry, 0, len(accounts))
	for i, acc := range accounts {
		players = append(players, protocol.LeaderboardEntry{
			Rank:     i + 1,
			Username: acc.Username,
			Rating:   acc.Rating,
			Games:    acc.Games,
			Wins:     acc.Wins,
			WinRate:  acc.WinRate(),
		})
	}

	return s.SendFrame(protocol.SrvLeaderboard, protocol.Leaderboard{Players: players})
}

// handleMatchHistory отдаёт до 50 последних матчей игрока, новые первыми.
func (h *Handler) handleMatchHistory(ctx context.Context, s *Session, _ protocol.Message) error {
	records, err := h.history.RecentMatches(ctx, s.Username(), leaderboardLimit)
	if err != nil {
		if sendErr := h.sendSystem(s, protocol.CodeServerError, "Internal server error"); sendErr != nil {
			return sendErr
		}
		return fmt.Errorf("loading match history for %q: %w", s.Username(), err)
	}

	matches := make([]protocol.HistoryEntry, 0, len(records))
	for _, rec := range records {
		matches = append(matches, protocol.HistoryEntry{
			Timestamp: rec.PlayedAt.Unix(),
			Opponent:  rec.Opponent,
			Result:    string(rec.Result),
		})
	}

	return s.SendFrame(protocol.SrvMatchHistory, protocol.MatchHistory{Matches: matches})
}

// handleChallenge доставляет прямой вызов. У обоих игроков не должно быть
// другого висящего вызова, цель не должна играть.
func (h *Handler) handleChallenge(_ context.Context, s *Session, msg protocol.Message) error {
	var req protocol.ChallengeRequest
	if err := msg.Bind(&req); err != nil || req.Target == "" {
		return h.sendBadRequest(s, "Invalid payload")
	}

	if req.Target == s.Username() {
		return h.sendBadRequest(s, "Cannot challenge yourself")
	}
	if s.ChallengeTarget() != "" || s.Challenger() != "" {
		return h.sendBadRequest(s, "Challenge already pending")
	}

	target := h.registry.ByName(req.Target)
	if target == nil {
		return h.sendSystem(s, protocol.CodeNotFound, "Player not found or offline")
	}
	if target.Status() == StatusInGame {
		return h.sendBadRequest(s, "Player is in game")
	}
	if target.Challenger() != "" || target.ChallengeTarget() != "" {
		return h.sendBadRequest(s, "Player is busy")
	}

	s.SetChallengeTarget(req.Target)
	target.SetChallenger(s.Username())

	if err := target.SendFrame(protocol.SrvChallenge, protocol.ChallengeNotice{Challenger: s.Username()}); err != nil {
		s.SetChallengeTarget("")
		target.SetChallenger("")
		return h.sendSystem(s, protocol.CodeNotFound, "Player not found or offline")
	}

	slog.Debug("challenge sent", "from", s.Username(), "to", req.Target)

	return h.sendSystem(s, protocol.CodeOK, "Challenge sent to "+req.Target)
}

// handleChallengeReply закрывает вызов: ACCEPT начинает матч (вызвавший
// ходит первым), всё остальное — отказ, который пересылается вызвавшему.
func (h *Handler) handleChallengeReply(ctx context.Context, s *Session, msg protocol.Message) error {
	var req protocol.ChallengeReply
	if err := msg.Bind(&req); err != nil || req.Challenger == "" {
		return h.sendBadRequest(s, "Invalid payload")
	}

	// Отвечать можно только на реально присланный вызов: подделанный
	// challenger_username не должен затаскивать чужого игрока в матч.
	if s.Challenger() != req.Challenger {
		return h.sendBadRequest(s, "No pending challenge")
	}

	challenger := h.registry.ByName(req.Challenger)
	s.SetChallenger("")
	if challenger == nil {
		return h.sendSystem(s, protocol.CodeNotFound, "Challenger not found")
	}
	challenger.SetChallengeTarget("")

	if !strings.EqualFold(req.Status, protocol.ReplyAccept) {
		slog.Debug("challenge rejected", "challenger", req.Challenger, "target", s.Username())
		return challenger.SendFrame(protocol.SrvChallengeReply, protocol.ChallengeReplyNotice{
			Player: s.Username(),
			Status: protocol.ReplyReject,
		})
	}

	// Принявший мог параллельно стоять в очереди или в handshake — оба
	// состояния снимаются, осиротевший партнёр уведомляется.
	h.abandonMatchmaking(s)
	h.abandonMatchmaking(challenger)

	return h.startMatch(ctx, challenger, s)
}

// abandonMatchmaking убирает игрока из очереди и handshake перед стартом
// матча по вызову. Брошенный партнёр по handshake получает MATCH_DECLINED.
func (h *Handler) abandonMatchmaking(s *Session) {
	peer := h.matchmaker.Remove(s.Username())
	if s.Status() == StatusInLobby {
		s.SetStatus(StatusOnline)
	}
	if peer == "" {
		return
	}
	if ps := h.registry.ByName(peer); ps != nil && ps.Status() == StatusInLobby {
		ps.SetStatus(StatusOnline)
		_ = ps.SendFrame(protocol.SrvMatchDeclined, protocol.StatusMessage{Message: "Opponent left"})
	}
}
