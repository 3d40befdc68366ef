package protocol

// SystemMsg is the generic status/error frame.
type SystemMsg struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// StatusMessage — общий payload для кадров, несущих только текст:
// WELCOME, REGISTER_SUCCESS, PLACE_SHIP_ACK, MATCHING_STARTED и т.п.
type StatusMessage struct {
	Message string `json:"message"`
}

// LoginSuccess confirms authentication.
type LoginSuccess struct {
	Username     string `json:"username"`
	Rating       int    `json:"rating"`
	SessionToken string `json:"sessionToken"`
	Message      string `json:"message"`
}

// PlayerInfo is one lobby entry in PLAYER_LIST.
type PlayerInfo struct {
	Username string `json:"username"`
	Status   string `json:"status"`
	Rating   int    `json:"rating"`
}

// PlayerList enumerates visible lobby players.
type PlayerList struct {
	Players []PlayerInfo `json:"players"`
}

// LeaderboardEntry is one row of LEADERBOARD.
type LeaderboardEntry struct {
	Rank     int     `json:"rank"`
	Username string  `json:"username"`
	Rating   int     `json:"rating"`
	Games    int     `json:"games"`
	Wins     int     `json:"wins"`
	WinRate  float64 `json:"winrate"`
}

// Leaderboard carries the top rated players.
type Leaderboard struct {
	Players []LeaderboardEntry `json:"players"`
}

// HistoryEntry is one row of MATCH_HISTORY, новые первыми.
// Timestamp — unix-секунды завершения матча.
type HistoryEntry struct {
	Timestamp int64  `json:"timestamp"`
	Opponent  string `json:"opponent"`
	Result    string `json:"result"`
}

// MatchHistory carries the player's recent matches.
type MatchHistory struct {
	Matches []HistoryEntry `json:"matches"`
}

// ChallengeNotice informs the target about an incoming challenge.
type ChallengeNotice struct {
	Challenger string `json:"challenger"`
}

// ChallengeReplyNotice relays a rejection back to the challenger.
type ChallengeReplyNotice struct {
	Player string `json:"player"`
	Status string `json:"status"`
}

// GameStart opens a game for both players.
type GameStart struct {
	Opponent string `json:"opponent"`
	YourTurn bool   `json:"your_turn"`
}

// GameReady signals that both fleets are placed and shooting begins.
type GameReady struct {
	Message  string `json:"message"`
	YourTurn bool   `json:"your_turn"`
}

// MoveResult reports a resolved shot to both players.
// game_over присутствует только в финальном кадре.
type MoveResult struct {
	Coord      string `json:"coord"`
	Result     string `json:"result"`
	ShipSunk   string `json:"ship_sunk"`
	IsYourShot bool   `json:"is_your_shot"`
	GameOver   bool   `json:"game_over,omitempty"`
}

// TurnChange tells each player whose move it is.
type TurnChange struct {
	YourTurn bool `json:"your_turn"`
}

// GameEnd closes the game with the final rating.
type GameEnd struct {
	Result string `json:"result"`
	Reason string `json:"reason"`
	Rating int    `json:"rating"`
}

// ChatNotice relays opponent chat.
type ChatNotice struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// DrawOfferNotice informs the opponent about a draw offer.
type DrawOfferNotice struct {
	From string `json:"from"`
}

// MatchFound notifies a queued player about a paired opponent.
type MatchFound struct {
	Opponent string `json:"opponent"`
	Rating   int    `json:"rating"`
}

// OpponentReady notifies that the peer confirmed the found match.
type OpponentReady struct {
	Username string `json:"username"`
}

// Pong answers PING with the server clock.
type Pong struct {
	Timestamp int64 `json:"timestamp"`
}

// PingUpdateNotice forwards the opponent's measured ping.
type PingUpdateNotice struct {
	OpponentPing int `json:"opponent_ping"`
}
