// Package arbiter runs matchmaking and referees every turn of a game.
package arbiter

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/DoyleJ11/wordlink-backend/internal/engine"
	"github.com/DoyleJ11/wordlink-backend/internal/games"
	"github.com/DoyleJ11/wordlink-backend/internal/queue"
	"github.com/DoyleJ11/wordlink-backend/internal/wordcheck"
	"github.com/DoyleJ11/wordlink-backend/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const backgroundTimeout = 10 * time.Second

type Queue interface {
	Enqueue(ctx context.Context, playerID string) error
	DequeuePair(ctx context.Context) (queue.Pair, bool, error)
	Requeue(ctx context.Context, pair queue.Pair) error
	Remove(ctx context.Context, playerID string) error
}

type Games interface {
	Create(ctx context.Context, g engine.GameSession) (string, error)
	Get(ctx context.Context, gameID string) (engine.GameSession, error)
	AppendTurn(ctx context.Context, gameID string, version int, t engine.Turn) (string, error)
	UpdateTurn(ctx context.Context, gameID, turnID string, patch games.TurnPatch) error
	ListTurns(ctx context.Context, gameID string) ([]engine.Turn, error)
	SetEndReason(ctx context.Context, gameID string, reason engine.EndReason) (bool, error)
}

type Validator interface {
	Validate(ctx context.Context, in wordcheck.Input) (string, error)
}

type Timers interface {
	Arm(gameID string, d time.Duration, onExpire func())
	Cancel(gameID string)
}

type Notifier interface {
	NotifyPlayers(ctx context.Context, playerIDs []string, event string, payload any) error
}

type Nicknames interface {
	Nicknames(ctx context.Context, playerIDs ...string) ([]string, error)
}

type Archiver interface {
	Save(ctx context.Context, g engine.GameSession, turns []engine.Turn, winnerID string, endedAt time.Time) error
}

type Config struct {
	TurnTime  time.Duration
	Countdown time.Duration
}

// Deps are the collaborators of an Arbiter. Nicknames and Archive are
// optional; the func fields default to wall clock, a fair coin and uuids.
type Deps struct {
	Queue     Queue
	Games     Games
	Validator Validator
	Timers    Timers
	Notifier  Notifier
	Nicknames Nicknames
	Archive   Archiver

	Now      func() time.Time
	CoinFlip func() bool
	NewID    func() string
}

type Arbiter struct {
	cfg  Config
	deps Deps
	ctx  context.Context
	log  *zap.Logger
}

// New returns an Arbiter. ctx bounds the work done outside a request, such as
// timer expiry.
func New(ctx context.Context, cfg Config, deps Deps, logger *zap.Logger) *Arbiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.CoinFlip == nil {
		deps.CoinFlip = func() bool { return rand.IntN(2) == 0 }
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	return &Arbiter{cfg: cfg, deps: deps, ctx: ctx, log: logger}
}

// JoinQueue puts playerID in the waiting queue and starts a game if two
// players are now waiting.
func (a *Arbiter) JoinQueue(ctx context.Context, playerID string) error {
	if err := a.deps.Queue.Enqueue(ctx, playerID); err != nil {
		return err
	}

	pair, ok, err := a.deps.Queue.DequeuePair(ctx)
	if err != nil || !ok {
		return err
	}

	if _, err := a.startGame(ctx, pair); err != nil {
		// Put both back where they were so neither is stranded or demoted.
		if qerr := a.deps.Queue.Requeue(ctx, pair); qerr != nil {
			a.log.Error("requeue after failed start",
				zap.String("first", pair.First),
				zap.String("second", pair.Second),
				zap.Error(qerr),
			)
		}
		return err
	}
	return nil
}

func (a *Arbiter) LeaveQueue(ctx context.Context, playerID string) error {
	return a.deps.Queue.Remove(ctx, playerID)
}

func (a *Arbiter) startGame(ctx context.Context, pair queue.Pair) (engine.GameSession, error) {
	starter := pair.Second
	if a.deps.CoinFlip() {
		starter = pair.First
	}

	g := engine.GameSession{
		ID:               a.deps.NewID(),
		PlayerAID:        pair.First,
		PlayerBID:        pair.Second,
		StartingPlayerID: starter,
		StartTime:        a.deps.Now().Add(a.cfg.Countdown),
	}
	if _, err := a.deps.Games.Create(ctx, g); err != nil {
		return engine.GameSession{}, fmt.Errorf("start game: %w", err)
	}
	a.arm(g.ID, a.cfg.Countdown+a.cfg.TurnTime)

	a.log.Info("game started",
		zap.String("game_id", g.ID),
		zap.String("player_a", g.PlayerAID),
		zap.String("player_b", g.PlayerBID),
		zap.String("starting_player", g.StartingPlayerID),
	)

	order := []string{starter, g.Opponent(starter)}
	names := a.nicknames(ctx, order)
	for _, recipient := range order {
		payload := types.MatchedPayload{
			GameID:           g.ID,
			CountdownSeconds: int(a.cfg.Countdown / time.Second),
			TurnSeconds:      int(a.cfg.TurnTime / time.Second),
			Players:          playerViews(order, names, recipient),
		}
		a.notify(ctx, []string{recipient}, types.EventMatched, payload)
	}
	return g, nil
}

// SubmitTurn referees one word from playerID and returns the word as
// recorded, which may be a corrected spelling.
func (a *Arbiter) SubmitTurn(ctx context.Context, gameID, playerID, raw string) (string, error) {
	g, err := a.deps.Games.Get(ctx, gameID)
	if err != nil {
		return "", err
	}
	turns, err := a.deps.Games.ListTurns(ctx, gameID)
	if err != nil {
		return "", err
	}

	st := engine.Derive(g, turns)
	if err := st.Check(playerID, a.deps.Now(), a.cfg.TurnTime); err != nil {
		return "", err
	}

	word, err := wordcheck.Normalize(raw)
	if err != nil {
		return "", err
	}

	// The append only lands if the log is still at the length we read, so a
	// concurrent submission for this game loses here with WrongTurn.
	turnID := a.deps.NewID()
	pending := engine.Turn{ID: turnID, GameID: gameID, PlayerID: playerID, Word: word}
	if _, err := a.deps.Games.AppendTurn(ctx, gameID, st.Version, pending); err != nil {
		return "", err
	}

	// From here on the turn is ours; finish it even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	a.deps.Timers.Cancel(gameID)
	a.notify(ctx, g.Players(), types.EventProcessingWord, types.ProcessingWordPayload{PlayerID: playerID})

	prev, _ := engine.LastConfirmed(turns)
	final, err := a.deps.Validator.Validate(ctx, wordcheck.Input{
		Word:     word,
		Previous: prev.Word,
		Prior:    engine.ConfirmedWords(turns),
	})
	if err != nil {
		if reason, ok := engine.ReasonFor(err); ok {
			won, endErr := a.endGame(ctx, g, reason)
			switch {
			case endErr != nil:
				return "", fmt.Errorf("end game after %s: %w", reason, endErr)
			case !won:
				return "", engine.ErrGameEnded
			}
			return "", err
		}
		a.log.Warn("turn left pending",
			zap.String("game_id", gameID),
			zap.String("player_id", playerID),
			zap.Error(err),
		)
		a.rearm(gameID, st.Deadline(a.cfg.TurnTime))
		return "", fmt.Errorf("validate turn: %w", err)
	}

	patch := games.TurnPatch{Word: final, SubmitTime: a.deps.Now()}
	if err := a.deps.Games.UpdateTurn(ctx, gameID, turnID, patch); err != nil {
		if !errors.Is(err, engine.ErrGameEnded) {
			a.rearm(gameID, st.Deadline(a.cfg.TurnTime))
		}
		return "", err
	}

	a.notify(ctx, g.Players(), types.EventValidWord, types.ValidWordPayload{PlayerID: playerID, Word: final})
	a.arm(gameID, a.cfg.TurnTime)
	return final, nil
}

func (a *Arbiter) arm(gameID string, d time.Duration) {
	a.deps.Timers.Arm(gameID, d, func() { a.expire(gameID) })
}

// rearm restores the mover's clock after a turn could not be settled, so the
// game still ends if nobody can move again.
func (a *Arbiter) rearm(gameID string, deadline time.Time) {
	a.arm(gameID, max(deadline.Sub(a.deps.Now()), 0))
}

func (a *Arbiter) expire(gameID string) {
	ctx, cancel := context.WithTimeout(a.ctx, backgroundTimeout)
	defer cancel()

	log := a.log.With(zap.String("game_id", gameID))

	g, err := a.deps.Games.Get(ctx, gameID)
	if err != nil {
		log.Error("expire: load game", zap.Error(err))
		return
	}
	turns, err := a.deps.Games.ListTurns(ctx, gameID)
	if err != nil {
		log.Error("expire: load turns", zap.Error(err))
		return
	}

	st := engine.Derive(g, turns)
	if st.Status == engine.StatusEnded {
		return
	}
	if a.deps.Now().Before(st.Deadline(a.cfg.TurnTime)) {
		log.Debug("expire: turn still running")
		return
	}

	if _, err := a.endGame(ctx, g, engine.EndTookTooLong); err != nil {
		log.Error("expire: end game", zap.Error(err))
	}
}

// endGame records reason unless the game already ended and reports whether
// this call was the one that ended it.
func (a *Arbiter) endGame(ctx context.Context, g engine.GameSession, reason engine.EndReason) (bool, error) {
	won, err := a.deps.Games.SetEndReason(ctx, g.ID, reason)
	if err != nil || !won {
		return false, err
	}

	a.deps.Timers.Cancel(g.ID)
	a.log.Info("game ended", zap.String("game_id", g.ID), zap.String("reason", string(reason)))
	a.notify(ctx, g.Players(), types.EventEndGame, types.EndGamePayload{Reason: string(reason)})

	g.EndReason = reason
	a.archive(ctx, g)
	return true, nil
}

func (a *Arbiter) archive(ctx context.Context, g engine.GameSession) {
	if a.deps.Archive == nil {
		return
	}
	turns, err := a.deps.Games.ListTurns(ctx, g.ID)
	if err == nil {
		err = a.deps.Archive.Save(ctx, g, turns, engine.Winner(g, turns), a.deps.Now())
	}
	if err != nil {
		a.log.Warn("archive game", zap.String("game_id", g.ID), zap.Error(err))
	}
}

func (a *Arbiter) notify(ctx context.Context, playerIDs []string, event string, payload any) {
	if err := a.deps.Notifier.NotifyPlayers(ctx, playerIDs, event, payload); err != nil {
		a.log.Warn("notify players",
			zap.Strings("player_ids", playerIDs),
			zap.String("event", event),
			zap.Error(err),
		)
	}
}

func (a *Arbiter) nicknames(ctx context.Context, playerIDs []string) []string {
	if a.deps.Nicknames != nil {
		names, err := a.deps.Nicknames.Nicknames(ctx, playerIDs...)
		if err == nil {
			return names
		}
		a.log.Warn("load nicknames", zap.Error(err))
	}
	return make([]string, len(playerIDs))
}
