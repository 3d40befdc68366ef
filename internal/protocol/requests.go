package protocol

// Credentials is the payload of REGISTER and LOGIN.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChallengeRequest asks to challenge another lobby player.
type ChallengeRequest struct {
	Target string `json:"target_username"`
}

// ChallengeReply отвечает на вызов. Status: ACCEPT или REJECT.
type ChallengeReply struct {
	Challenger string `json:"challenger_username"`
	Status     string `json:"status"`
}

// ShipPlacement describes one ship in a PLACE_SHIPS request.
// Placement координаты числовые, в отличие от строковых в MOVE.
type ShipPlacement struct {
	Name       string `json:"name"`
	Size       int    `json:"size"`
	Row        int    `json:"row"`
	Col        int    `json:"col"`
	Horizontal bool   `json:"horizontal"`
}

// PlaceShipsRequest carries the full fleet.
type PlaceShipsRequest struct {
	Ships []ShipPlacement `json:"ships"`
}

// MoveRequest is a shot at the opponent's board, coord "A0".."J9".
type MoveRequest struct {
	Coord string `json:"coord"`
}

// ChatRequest relays a text message to the in-game opponent.
type ChatRequest struct {
	Message string `json:"message"`
}

// DrawReply отвечает на предложение ничьей. Status: accept или reject.
type DrawReply struct {
	Status string `json:"status"`
}

// PingReport delivers the client's measured round-trip time.
type PingReport struct {
	Ping int `json:"ping"`
}
