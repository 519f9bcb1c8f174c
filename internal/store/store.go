// Package store holds the shared redis client and the key layout every
// store-backed component agrees on.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const QueueKey = "queue"

func GameKey(gameID string) string       { return "game:" + gameID }
func TurnsKey(gameID string) string      { return "game:" + gameID + ":turns" }
func TurnKey(turnID string) string       { return "turn:" + turnID }
func PlayerKey(playerID string) string   { return "player:" + playerID }
func SessionKey(sessionID string) string { return "session:" + sessionID }

// Open connects to the redis instance at rawURL and verifies it answers.
func Open(ctx context.Context, rawURL string) (*redis.Client, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, fmt.Errorf("redis url required")
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
