package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/udisondev/seabattle/internal/model"
)

// PostgresAccountRepository реализует AccountRepository для PostgreSQL.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAccountRepository создаёт новый PostgreSQL repository.
func NewPostgresAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

// GetAccount возвращает аккаунт по имени игрока.
// Возвращает nil, nil если аккаунт не найден.
func (r *PostgresAccountRepository) GetAccount(ctx context.Context, username string) (*model.Account, error) {
	var acc model.Account
	err := r.pool.QueryRow(ctx,
		`SELECT username, secret, rating, games, wins, created_at, last_login
		 FROM accounts WHERE username = $1`, username,
	).Scan(&acc.Username, &acc.Secret, &acc.Rating, &acc.Games, &acc.Wins, &acc.CreatedAt, &acc.LastLogin)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("querying account %q: %w", username, err)
	}
	return &acc, nil
}

// RegisterAccount создаёт новый аккаунт с рейтингом по умолчанию.
// Thread-safe: использует INSERT ... ON CONFLICT DO NOTHING для защиты
// от одновременной регистрации одного имени. Возвращает false, если
// имя уже занято.
func (r *PostgresAccountRepository) RegisterAccount(ctx context.Context, username, secret string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO accounts (username, secret, rating, games, wins, created_at, last_login)
		 VALUES ($1, $2, $3, 0, 0, $4, $4)
		 ON CONFLICT (username) DO NOTHING`,
		username, secret, model.DefaultRating, time.Now(),
	)
	if err != nil {
		return false, fmt.Errorf("inserting account %q: %w", username, err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateLastLogin обновляет last_login при успешном логине.
func (r *PostgresAccountRepository) UpdateLastLogin(ctx context.Context, username string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE accounts SET last_login = $1 WHERE username = $2`,
		time.Now(), username,
	)
	if err != nil {
		return fmt.Errorf("updating last login for %q: %w", username, err)
	}
	return nil
}

// UpdateStats применяет результат матча одним запросом: рейтинг
// сдвигается на delta (но не ниже нуля), games всегда растёт,
// wins — только у победителя. Возвращает новый рейтинг.
func (r *PostgresAccountRepository) UpdateStats(ctx context.Context, username string, delta int, won bool) (int, error) {
	var rating int
	err := r.pool.QueryRow(ctx,
		`UPDATE accounts
		 SET rating = GREATEST(rating + $2, 0),
		     games  = games + 1,
		     wins   = wins + CASE WHEN $3 THEN 1 ELSE 0 END
		 WHERE username = $1
		 RETURNING rating`,
		username, delta, won,
	).Scan(&rating)
	if err != nil {
		return 0, fmt.Errorf("updating stats for %q: %w", username, err)
	}
	return rating, nil
}

// Leaderboard возвращает до limit аккаунтов по убыванию рейтинга.
// При равном рейтинге порядок детерминирован по имени.
func (r *PostgresAccountRepository) Leaderboard(ctx context.Context, limit int) ([]model.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT username, secret, rating, games, wins, created_at, last_login
		 FROM accounts
		 ORDER BY rating DESC, username ASC
		 LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying leaderboard: %w", err)
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		var acc model.Account
		if err := rows.Scan(&acc.Username, &acc.Secret, &acc.Rating, &acc.Games, &acc.Wins, &acc.CreatedAt, &acc.LastLogin); err != nil {
			return nil, fmt.Errorf("scanning leaderboard row: %w", err)
		}
		out = append(out, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading leaderboard rows: %w", err)
	}
	return out, nil
}

// PostgresHistoryRepository реализует HistoryRepository для PostgreSQL.
type PostgresHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresHistoryRepository создаёт новый PostgreSQL repository.
func NewPostgresHistoryRepository(pool *pgxpool.Pool) *PostgresHistoryRepository {
	return &PostgresHistoryRepository{pool: pool}
}

// AppendMatch добавляет запись об итоге матча для одного игрока.
func (r *PostgresHistoryRepository) AppendMatch(ctx context.Context, username, opponent string, result model.Result) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO match_history (username, opponent, result, played_at)
		 VALUES ($1, $2, $3, $4)`,
		username, opponent, string(result), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("appending match for %q: %w", username, err)
	}
	return nil
}

// RecentMatches возвращает до limit последних матчей игрока,
// новые первыми.
func (r *PostgresHistoryRepository) RecentMatches(ctx context.Context, username string, limit int) ([]model.MatchRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT played_at, opponent, result
		 FROM match_history
		 WHERE username = $1
		 ORDER BY played_at DESC, id DESC
		 LIMIT $2`,
		username, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying match history for %q: %w", username, err)
	}
	defer rows.Close()

	var out []model.MatchRecord
	for rows.Next() {
		var rec model.MatchRecord
		if err := rows.Scan(&rec.PlayedAt, &rec.Opponent, &rec.Result); err != nil {
			return nil, fmt.Errorf("scanning match history row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading match history rows: %w", err)
	}
	return out, nil
}
