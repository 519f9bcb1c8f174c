package queue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/DoyleJ11/wordlink-backend/internal/store"
	"github.com/redis/go-redis/v9"
)

// popPair removes the two earliest entries only when both are present, so two
// concurrent callers can never split a pair between them.
var popPair = redis.NewScript(`
local waiting = redis.call('ZCARD', KEYS[1])
if waiting < 2 then
  return {}
end
return redis.call('ZPOPMIN', KEYS[1], 2)
`)

// Pair is two matched players, earliest joiner first. The scores are their
// queue priorities, kept so a pair can be put back where it was.
type Pair struct {
	First       string
	Second      string
	FirstScore  float64
	SecondScore float64
}

type Queue struct {
	rdb redis.UniversalClient
	key string
	now func() time.Time
}

func New(rdb redis.UniversalClient) *Queue {
	return &Queue{rdb: rdb, key: store.QueueKey, now: time.Now}
}

// Enqueue adds playerID with the current time as priority. A player already
// waiting keeps their original place.
func (q *Queue) Enqueue(ctx context.Context, playerID string) error {
	err := q.rdb.ZAddNX(ctx, q.key, redis.Z{
		Score:  float64(q.now().UnixMicro()),
		Member: playerID,
	}).Err()
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", playerID, err)
	}
	return nil
}

// DequeuePair pops the two earliest players when at least two are waiting.
func (q *Queue) DequeuePair(ctx context.Context) (Pair, bool, error) {
	res, err := popPair.Run(ctx, q.rdb, []string{q.key}).StringSlice()
	if err != nil {
		return Pair{}, false, fmt.Errorf("dequeue pair: %w", err)
	}
	// ZPOPMIN replies member, score, member, score.
	if len(res) < 4 {
		return Pair{}, false, nil
	}

	p := Pair{First: res[0], Second: res[2]}
	if p.FirstScore, err = strconv.ParseFloat(res[1], 64); err == nil {
		p.SecondScore, err = strconv.ParseFloat(res[3], 64)
	}
	if err != nil {
		// The players are already out of the queue; hand them back with the
		// current time rather than losing them.
		now := float64(q.now().UnixMicro())
		p.FirstScore, p.SecondScore = now, now
	}
	return p, true, nil
}

// Requeue puts a popped pair back at their original places. Players who
// rejoined in the meantime keep their newer entry.
func (q *Queue) Requeue(ctx context.Context, p Pair) error {
	err := q.rdb.ZAddNX(ctx, q.key,
		redis.Z{Score: p.FirstScore, Member: p.First},
		redis.Z{Score: p.SecondScore, Member: p.Second},
	).Err()
	if err != nil {
		return fmt.Errorf("requeue %s and %s: %w", p.First, p.Second, err)
	}
	return nil
}

// Remove drops playerID from the queue; absent players are ignored.
func (q *Queue) Remove(ctx context.Context, playerID string) error {
	if err := q.rdb.ZRem(ctx, q.key, playerID).Err(); err != nil {
		return fmt.Errorf("leave queue %s: %w", playerID, err)
	}
	return nil
}

func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.rdb.ZCard(ctx, q.key).Result()
}
