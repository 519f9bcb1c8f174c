package games

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/DoyleJ11/wordlink-backend/internal/engine"
	"github.com/DoyleJ11/wordlink-backend/internal/store"
	"github.com/redis/go-redis/v9"
)

const (
	fieldPlayerA   = "playerAId"
	fieldPlayerB   = "playerBId"
	fieldStarting  = "startingPlayerId"
	fieldStartTime = "startUnixNano"
	fieldEndReason = "endReason"

	fieldPlayer     = "playerId"
	fieldWord       = "word"
	fieldSubmitTime = "submitUnixNano"
)

// appendTurn writes a pending turn only if nobody else appended since the
// caller read the log and the game is still active.
var appendTurn = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
if redis.call('HEXISTS', KEYS[1], 'endReason') == 1 then
  return -2
end
if redis.call('LLEN', KEYS[2]) ~= tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[3], 'gameId', ARGV[2], 'playerId', ARGV[3], 'word', ARGV[4])
redis.call('RPUSH', KEYS[2], ARGV[5])
return 1
`)

// updateTurn merges fields into a turn unless the game has already ended.
var updateTurn = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], 'endReason') == 1 then
  return 0
end
if redis.call('EXISTS', KEYS[2]) == 0 then
  return -1
end
redis.call('HSET', KEYS[2], unpack(ARGV))
return 1
`)

// setEndReason is a one-way write: the first caller wins.
var setEndReason = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
return redis.call('HSETNX', KEYS[1], 'endReason', ARGV[1])
`)

// TurnPatch holds the fields to merge into a pending turn. Zero values are skipped.
type TurnPatch struct {
	Word       string
	SubmitTime time.Time
}

type Store struct {
	rdb redis.UniversalClient
}

func New(rdb redis.UniversalClient) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) Create(ctx context.Context, g engine.GameSession) (string, error) {
	if g.ID == "" {
		return "", fmt.Errorf("create game: id required")
	}
	err := s.rdb.HSet(ctx, store.GameKey(g.ID), map[string]any{
		fieldPlayerA:   g.PlayerAID,
		fieldPlayerB:   g.PlayerBID,
		fieldStarting:  g.StartingPlayerID,
		fieldStartTime: strconv.FormatInt(g.StartTime.UnixNano(), 10),
	}).Err()
	if err != nil {
		return "", fmt.Errorf("create game %s: %w", g.ID, err)
	}
	return g.ID, nil
}

func (s *Store) Get(ctx context.Context, gameID string) (engine.GameSession, error) {
	fields, err := s.rdb.HGetAll(ctx, store.GameKey(gameID)).Result()
	if err != nil {
		return engine.GameSession{}, fmt.Errorf("get game %s: %w", gameID, err)
	}
	if len(fields) == 0 {
		return engine.GameSession{}, engine.ErrNotFound
	}

	start, err := parseNano(fields[fieldStartTime])
	if err != nil {
		return engine.GameSession{}, fmt.Errorf("get game %s: start time: %w", gameID, err)
	}
	return engine.GameSession{
		ID:               gameID,
		PlayerAID:        fields[fieldPlayerA],
		PlayerBID:        fields[fieldPlayerB],
		StartingPlayerID: fields[fieldStarting],
		StartTime:        start,
		EndReason:        engine.EndReason(fields[fieldEndReason]),
	}, nil
}

// AppendTurn records a pending turn at position version of the log and
// returns its reference. It fails with ErrWrongTurn when the log moved on
// since version was read.
func (s *Store) AppendTurn(ctx context.Context, gameID string, version int, t engine.Turn) (string, error) {
	if t.ID == "" {
		return "", fmt.Errorf("append turn: id required")
	}
	keys := []string{store.GameKey(gameID), store.TurnsKey(gameID), store.TurnKey(t.ID)}
	res, err := appendTurn.Run(ctx, s.rdb, keys, version, gameID, t.PlayerID, t.Word, t.ID).Int()
	if err != nil {
		return "", fmt.Errorf("append turn to %s: %w", gameID, err)
	}
	switch res {
	case 1:
		return t.ID, nil
	case -1:
		return "", engine.ErrNotFound
	case -2:
		return "", engine.ErrGameEnded
	default:
		return "", engine.ErrWrongTurn
	}
}

// UpdateTurn merges patch into the turn, refusing with ErrGameEnded once the
// game has an end reason.
func (s *Store) UpdateTurn(ctx context.Context, gameID, turnID string, patch TurnPatch) error {
	var args []any
	if patch.Word != "" {
		args = append(args, fieldWord, patch.Word)
	}
	if !patch.SubmitTime.IsZero() {
		args = append(args, fieldSubmitTime, strconv.FormatInt(patch.SubmitTime.UnixNano(), 10))
	}
	if len(args) == 0 {
		return nil
	}

	keys := []string{store.GameKey(gameID), store.TurnKey(turnID)}
	res, err := updateTurn.Run(ctx, s.rdb, keys, args...).Int()
	if err != nil {
		return fmt.Errorf("update turn %s: %w", turnID, err)
	}
	switch res {
	case 1:
		return nil
	case -1:
		return engine.Errorf(engine.CodeNotFound, "turn %s not found", turnID)
	default:
		return engine.ErrGameEnded
	}
}

// ListTurns returns the turn log oldest first.
func (s *Store) ListTurns(ctx context.Context, gameID string) ([]engine.Turn, error) {
	ids, err := s.rdb.LRange(ctx, store.TurnsKey(gameID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list turns of %s: %w", gameID, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, store.TurnKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("list turns of %s: %w", gameID, err)
	}

	turns := make([]engine.Turn, 0, len(ids))
	for i, cmd := range cmds {
		fields := cmd.Val()
		submit, err := parseNano(fields[fieldSubmitTime])
		if err != nil {
			return nil, fmt.Errorf("turn %s: submit time: %w", ids[i], err)
		}
		turns = append(turns, engine.Turn{
			ID:         ids[i],
			GameID:     gameID,
			PlayerID:   fields[fieldPlayer],
			Word:       fields[fieldWord],
			SubmitTime: submit,
		})
	}
	return turns, nil
}

// SetEndReason attaches reason to the game. It reports false when the game
// had already ended, leaving the first reason in place.
func (s *Store) SetEndReason(ctx context.Context, gameID string, reason engine.EndReason) (bool, error) {
	if !reason.Valid() {
		return false, fmt.Errorf("set end reason: unknown reason %q", reason)
	}
	res, err := setEndReason.Run(ctx, s.rdb, []string{store.GameKey(gameID)}, string(reason)).Int()
	if err != nil {
		return false, fmt.Errorf("set end reason of %s: %w", gameID, err)
	}
	if res < 0 {
		return false, engine.ErrNotFound
	}
	return res == 1, nil
}

func parseNano(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, n).UTC(), nil
}
