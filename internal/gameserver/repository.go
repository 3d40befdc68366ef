package gameserver

import (
	"context"

	"github.com/udisondev/seabattle/internal/model"
)

// AccountRepository — доступ к аккаунтам. Интерфейс объявлен на стороне
// потребителя, чтобы тесты подставляли in-memory реализацию.
type AccountRepository interface {
	// GetAccount возвращает nil, nil если аккаунт не найден.
	GetAccount(ctx context.Context, username string) (*model.Account, error)
	// RegisterAccount возвращает false, если имя уже занято.
	RegisterAccount(ctx context.Context, username, secret string) (bool, error)
	UpdateLastLogin(ctx context.Context, username string) error
	// UpdateStats применяет исход матча и возвращает новый рейтинг.
	UpdateStats(ctx context.Context, username string, delta int, won bool) (int, error)
	Leaderboard(ctx context.Context, limit int) ([]model.Account, error)
}

// HistoryRepository — история сыгранных матчей.
type HistoryRepository interface {
	AppendMatch(ctx context.Context, username, opponent string, result model.Result) error
	RecentMatches(ctx context.Context, username string, limit int) ([]model.MatchRecord, error)
}
