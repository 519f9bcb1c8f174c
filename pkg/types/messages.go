package types

import "time"

// Server -> client push events.
const (
	EventMatched        = "matched"
	EventProcessingWord = "processing-word"
	EventValidWord      = "valid-word"
	EventEndGame        = "end-game"
)

type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type Player struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	IsYou    bool   `json:"isYou"`
}

// MatchedPayload is sent to each player separately; Players is ordered
// starting player first and flags the recipient.
type MatchedPayload struct {
	GameID           string   `json:"gameId"`
	CountdownSeconds int      `json:"countdownSeconds"`
	TurnSeconds      int      `json:"turnSeconds"`
	Players          []Player `json:"players"`
}

type ProcessingWordPayload struct {
	PlayerID string `json:"playerId"`
}

type ValidWordPayload struct {
	PlayerID string `json:"playerId"`
	Word     string `json:"word"`
}

type EndGamePayload struct {
	Reason string `json:"reason"`
}

type Turn struct {
	PlayerID   string     `json:"playerId"`
	Word       string     `json:"word"`
	SubmitTime *time.Time `json:"submitTime,omitempty"`
}

// GameResults is the result view of a game for one of its players. Winner is
// nil while the game is still running. FinalAttempt is the unconfirmed word
// that ended the game, if any.
type GameResults struct {
	GameID       string   `json:"gameId"`
	Winner       *Player  `json:"winner"`
	Players      []Player `json:"players"`
	Turns        []Turn   `json:"turns"`
	FinalAttempt *Turn    `json:"finalAttempt,omitempty"`
	EndReason    string   `json:"endReason,omitempty"`
}

// Client -> server HTTP bodies.

type UpsertPlayerRequest struct {
	Nickname  string `json:"nickname"`
	SessionID string `json:"currentSessionId,omitempty"`
}

type UpsertPlayerResponse struct {
	PlayerID  string `json:"playerId"`
	SessionID string `json:"sessionId"`
}

type TurnRequest struct {
	GameID string `json:"gameId"`
	Word   string `json:"word"`
}

type TurnResponse struct {
	Word    string `json:"word"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type ArchivedGame struct {
	GameID    string    `json:"gameId"`
	Opponent  string    `json:"opponentId"`
	Won       bool      `json:"won"`
	EndReason string    `json:"endReason"`
	Words     []string  `json:"words"`
	EndedAt   time.Time `json:"endedAt"`
}
