package players

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/DoyleJ11/wordlink-backend/internal/engine"
	"github.com/DoyleJ11/wordlink-backend/internal/store"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const MaxNicknameLength = 30

const fieldNickname = "nickname"

type Upserted struct {
	PlayerID  string
	SessionID string
	Created   bool
}

type Store struct {
	rdb   redis.UniversalClient
	newID func() string
}

func New(rdb redis.UniversalClient) *Store {
	return &Store{rdb: rdb, newID: uuid.NewString}
}

// Upsert renames the player behind sessionID, or creates a new player and
// session when sessionID is empty or unknown.
func (s *Store) Upsert(ctx context.Context, sessionID, nickname string) (Upserted, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" || utf8.RuneCountInString(nickname) > MaxNicknameLength {
		return Upserted{}, engine.Errorf(engine.CodeMalformedInput,
			"please provide a nickname that is %d characters or less", MaxNicknameLength)
	}

	if sessionID != "" {
		playerID, err := s.Resolve(ctx, sessionID)
		switch {
		case err == nil:
			if err := s.rdb.HSet(ctx, store.PlayerKey(playerID), fieldNickname, nickname).Err(); err != nil {
				return Upserted{}, fmt.Errorf("rename player %s: %w", playerID, err)
			}
			return Upserted{PlayerID: playerID, SessionID: sessionID}, nil
		case !errors.Is(err, engine.ErrUnauthorized):
			return Upserted{}, err
		}
	}

	playerID, newSession := s.newID(), s.newID()
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, store.PlayerKey(playerID), fieldNickname, nickname)
		pipe.Set(ctx, store.SessionKey(newSession), playerID, 0)
		return nil
	})
	if err != nil {
		return Upserted{}, fmt.Errorf("create player: %w", err)
	}
	return Upserted{PlayerID: playerID, SessionID: newSession, Created: true}, nil
}

// Resolve returns the player owning sessionID.
func (s *Store) Resolve(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", engine.ErrUnauthorized
	}
	playerID, err := s.rdb.Get(ctx, store.SessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", engine.ErrUnauthorized
	}
	if err != nil {
		return "", fmt.Errorf("resolve session: %w", err)
	}
	return playerID, nil
}

// Nicknames returns the nickname of each player in order; unknown players
// get an empty nickname.
func (s *Store) Nicknames(ctx context.Context, playerIDs ...string) ([]string, error) {
	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.StringCmd, len(playerIDs))
	for i, id := range playerIDs {
		cmds[i] = pipe.HGet(ctx, store.PlayerKey(id), fieldNickname)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load nicknames: %w", err)
	}

	out := make([]string, len(playerIDs))
	for i, cmd := range cmds {
		out[i] = cmd.Val()
	}
	return out, nil
}
