package model

import (
	"regexp"
	"time"
)

// DefaultRating — стартовый рейтинг нового аккаунта.
const DefaultRating = 800

// Account represents a player account stored in the database.
type Account struct {
	Username  string
	Secret    string // Argon2id hash in PHC string form
	Rating    int
	Games     int
	Wins      int
	CreatedAt time.Time
	LastLogin time.Time
}

// usernameRe ограничивает имена алфавитом, безопасным для протокола и БД.
var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{1,49}$`)

// ValidUsername reports whether name is acceptable at registration.
func ValidUsername(name string) bool {
	return usernameRe.MatchString(name)
}

// WinRate returns the win percentage, 0 when no games were played.
func (a *Account) WinRate() float64 {
	if a.Games == 0 {
		return 0
	}
	return float64(a.Wins) / float64(a.Games) * 100
}

// Result is the outcome of a finished match from one player's perspective.
type Result string

const (
	ResultWin  Result = "WIN"
	ResultLose Result = "LOSE"
	ResultDraw Result = "DRAW"
)

// MatchRecord is one line of a player's match history.
type MatchRecord struct {
	PlayedAt time.Time
	Opponent string
	Result   Result
}
