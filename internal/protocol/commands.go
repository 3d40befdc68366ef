package protocol

// Команды клиента. Значение — поле cmd входящего фрейма.
const (
	CmdRegister       = "REGISTER"
	CmdLogin          = "LOGIN"
	CmdLogout         = "LOGOUT"
	CmdPlayerList     = "PLAYER_LIST"
	CmdLeaderboard    = "LEADERBOARD"
	CmdMatchHistory   = "MATCH_HISTORY"
	CmdStartMatching  = "START_MATCHING"
	CmdCancelMatching = "CANCEL_MATCHING"
	CmdMatchReady     = "MATCH_READY"
	CmdMatchDecline   = "MATCH_DECLINE"
	CmdChallenge      = "CHALLENGE"
	CmdChallengeReply = "CHALLENGE_REPLY"
	CmdPlaceShips     = "PLACE_SHIPS"
	CmdMove           = "MOVE"
	CmdChat           = "CHAT"
	CmdSurrender      = "SURRENDER"
	CmdDrawOffer      = "DRAW_OFFER"
	CmdDrawReply      = "DRAW_REPLY"
	CmdPing           = "PING"
	CmdUpdatePing     = "UPDATE_PING"
)

// Фреймы сервера.
const (
	SrvWelcome           = "WELCOME"
	SrvRegisterSuccess   = "REGISTER_SUCCESS"
	SrvLoginSuccess      = "LOGIN_SUCCESS"
	SrvLogoutSuccess     = "LOGOUT_SUCCESS"
	SrvSystemMsg         = "SYSTEM_MSG"
	SrvPlayerList        = "PLAYER_LIST"
	SrvLeaderboard       = "LEADERBOARD"
	SrvMatchHistory      = "MATCH_HISTORY"
	SrvMatchingStarted   = "MATCHING_STARTED"
	SrvMatchingCancelled = "MATCHING_CANCELLED"
	SrvMatchFound        = "MATCH_FOUND"
	SrvOpponentReady     = "OPPONENT_READY"
	SrvWaitingOpponent   = "WAITING_OPPONENT"
	SrvMatchDeclined     = "MATCH_DECLINED"
	SrvChallenge         = "CHALLENGE"
	SrvChallengeReply    = "CHALLENGE_REPLY"
	SrvGameStart         = "GAME_START"
	SrvPlaceShipAck      = "PLACE_SHIP_ACK"
	SrvGameReady         = "GAME_READY"
	SrvMoveResult        = "MOVE_RESULT"
	SrvTurnChange        = "TURN_CHANGE"
	SrvGameEnd           = "GAME_END"
	SrvDrawOffer         = "DRAW_OFFER"
	SrvDrawRejected      = "DRAW_REJECTED"
	SrvChat              = "CHAT"
	SrvPong              = "PONG"
	SrvPingUpdate        = "PING_UPDATE"
)

// Коды SYSTEM_MSG. Семантика близка к HTTP.
const (
	CodeOK           = 200
	CodeBadRequest   = 400
	CodeUnauthorized = 401
	CodeNotFound     = 404
	CodeServerError  = 500
)

// Статусы ответов на вызов и предложение ничьей.
const (
	ReplyAccept = "ACCEPT"
	ReplyReject = "REJECT"
)

// Результаты и причины завершения партии (payload GAME_END).
const (
	GameResultWin  = "WIN"
	GameResultLose = "LOSE"
	GameResultDraw = "DRAW"

	ReasonAllShipsSunk         = "ALL_SHIPS_SUNK"
	ReasonSurrender            = "SURRENDER"
	ReasonDrawAccepted         = "DRAW_ACCEPTED"
	ReasonOpponentDisconnected = "OPPONENT_DISCONNECTED"
)
