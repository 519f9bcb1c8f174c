package engine

import "time"

type EndReason string

const (
	EndInvalidWord       EndReason = "INVALID_WORD"
	EndUnrelatedWord     EndReason = "UNRELATED_WORD"
	EndSameOrSimilarWord EndReason = "SAME_SIMILAR_WORD"
	EndTookTooLong       EndReason = "TOOK_TOO_LONG"
)

func (r EndReason) Valid() bool {
	switch r {
	case EndInvalidWord, EndUnrelatedWord, EndSameOrSimilarWord, EndTookTooLong:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusWaitingFirstTurn Status = "waiting_first_turn"
	StatusAwaitingMove     Status = "awaiting_move"
	StatusValidating       Status = "validating"
	StatusEnded            Status = "ended"
)

// GameSession is the authoritative record of one match. EndReason stays empty
// while the game is active and is written at most once.
type GameSession struct {
	ID               string
	PlayerAID        string
	PlayerBID        string
	StartingPlayerID string
	StartTime        time.Time
	EndReason        EndReason
}

func (g GameSession) Ended() bool { return g.EndReason != "" }

func (g GameSession) HasPlayer(playerID string) bool {
	return playerID != "" && (playerID == g.PlayerAID || playerID == g.PlayerBID)
}

// Opponent returns the other participant, or "" when playerID is not in the game.
func (g GameSession) Opponent(playerID string) string {
	switch playerID {
	case g.PlayerAID:
		return g.PlayerBID
	case g.PlayerBID:
		return g.PlayerAID
	default:
		return ""
	}
}

func (g GameSession) Players() []string { return []string{g.PlayerAID, g.PlayerBID} }

// Turn is one word submission. SubmitTime is zero until the word passes validation.
type Turn struct {
	ID         string
	GameID     string
	PlayerID   string
	Word       string
	SubmitTime time.Time
}

func (t Turn) Confirmed() bool { return !t.SubmitTime.IsZero() }

// State is the per-game state machine position, derived from the session and
// its turn log rather than stored.
type State struct {
	Status    Status
	Mover     string    // player expected to move; empty while validating or ended
	Reference time.Time // instant the current mover's clock started
	EndReason EndReason
	Version   int // turn log length, used for compare-and-append
}

func Derive(g GameSession, turns []Turn) State {
	s := State{Version: len(turns)}

	if g.Ended() {
		s.Status = StatusEnded
		s.EndReason = g.EndReason
		return s
	}

	last, ok := LastConfirmed(turns)
	if ok {
		s.Reference = last.SubmitTime
	} else {
		s.Reference = g.StartTime
	}

	if len(turns) == 0 {
		s.Status = StatusWaitingFirstTurn
		s.Mover = g.StartingPlayerID
		return s
	}

	if tail := turns[len(turns)-1]; !tail.Confirmed() {
		s.Status = StatusValidating
		return s
	}

	s.Status = StatusAwaitingMove
	s.Mover = g.Opponent(last.PlayerID)
	return s
}

// Check reports whether playerID may submit a word at now.
func (s State) Check(playerID string, now time.Time, budget time.Duration) error {
	switch s.Status {
	case StatusEnded:
		return ErrGameEnded
	case StatusValidating:
		return ErrWrongTurn
	}

	if playerID != s.Mover {
		return ErrWrongTurn
	}

	elapsed := now.Sub(s.Reference)
	if elapsed < 0 || elapsed > budget {
		return ErrTurnExpired
	}
	return nil
}

// Deadline is the instant after which the current mover has run out of time.
func (s State) Deadline(budget time.Duration) time.Time {
	return s.Reference.Add(budget)
}
