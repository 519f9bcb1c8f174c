package arbiter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DoyleJ11/wordlink-backend/internal/engine"
	"github.com/DoyleJ11/wordlink-backend/internal/games"
	"github.com/DoyleJ11/wordlink-backend/internal/queue"
	"github.com/DoyleJ11/wordlink-backend/internal/wordcheck"
	"github.com/DoyleJ11/wordlink-backend/pkg/types"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	turnTime  = 10 * time.Second
	countdown = 3 * time.Second
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type armedTimer struct {
	d    time.Duration
	fire func()
}

type fakeTimers struct {
	mu    sync.Mutex
	armed map[string]armedTimer
}

func (f *fakeTimers) Arm(gameID string, d time.Duration, onExpire func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.armed[gameID] = armedTimer{d: d, fire: onExpire}
}

func (f *fakeTimers) Cancel(gameID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.armed, gameID)
}

func (f *fakeTimers) get(gameID string) (armedTimer, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.armed[gameID]
	return a, ok
}

func (f *fakeTimers) fire(t *testing.T, gameID string) {
	t.Helper()
	a, ok := f.get(gameID)
	require.True(t, ok, "no timer armed for %s", gameID)
	f.Cancel(gameID)
	a.fire()
}

type sent struct {
	to      []string
	event   string
	payload any
}

type recorder struct {
	mu   sync.Mutex
	sent []sent
}

func (r *recorder) NotifyPlayers(_ context.Context, ids []string, event string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sent{to: append([]string(nil), ids...), event: event, payload: payload})
	return nil
}

func (r *recorder) events(event string) []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sent
	for _, s := range r.sent {
		if s.event == event {
			out = append(out, s)
		}
	}
	return out
}

type oracleStub struct {
	mu        sync.Mutex
	spelling  map[string]wordcheck.Spelling
	unrelated map[string]bool
	err       error
	gate      chan struct{}
}

func (o *oracleStub) ClassifySpelling(_ context.Context, word string) (wordcheck.Spelling, error) {
	o.mu.Lock()
	gate, err := o.gate, o.err
	s, ok := o.spelling[word]
	o.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return wordcheck.Spelling{}, err
	}
	if ok {
		return s, nil
	}
	return wordcheck.Valid(), nil
}

func (o *oracleStub) ClassifyRelated(_ context.Context, word, previous string) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return false, o.err
	}
	return !o.unrelated[word+"|"+previous], nil
}

// plainMorph treats a trailing "s" as the only inflection.
type plainMorph struct{}

func (plainMorph) Lemmas(word string) []string { return []string{strings.TrimSuffix(word, "s")} }
func (plainMorph) Stem(word string) string     { return strings.TrimSuffix(word, "s") }

type saved struct {
	game   engine.GameSession
	turns  []engine.Turn
	winner string
}

type archiveStub struct {
	mu    sync.Mutex
	saved []saved
}

func (a *archiveStub) Save(_ context.Context, g engine.GameSession, turns []engine.Turn, winnerID string, _ time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saved = append(a.saved, saved{game: g, turns: turns, winner: winnerID})
	return nil
}

type nameBook map[string]string

func (n nameBook) Nicknames(_ context.Context, ids ...string) ([]string, error) {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = n[id]
	}
	return out, nil
}

// flakyGames fails game creation while fail is set, running onCreate first.
type flakyGames struct {
	*games.Store
	fail     atomic.Bool
	onCreate func()
}

func (f *flakyGames) Create(ctx context.Context, g engine.GameSession) (string, error) {
	if f.onCreate != nil {
		f.onCreate()
	}
	if f.fail.Load() {
		return "", errors.New("connection refused")
	}
	return f.Store.Create(ctx, g)
}

type harness struct {
	arb     *Arbiter
	games   *games.Store
	flaky   *flakyGames
	queue   *queue.Queue
	clock   *clock
	timers  *fakeTimers
	notes   *recorder
	oracle  *oracleStub
	archive *archiveStub
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	h := &harness{
		games:   games.New(rdb),
		queue:   queue.New(rdb),
		clock:   &clock{now: epoch},
		timers:  &fakeTimers{armed: make(map[string]armedTimer)},
		notes:   &recorder{},
		oracle:  &oracleStub{spelling: map[string]wordcheck.Spelling{}, unrelated: map[string]bool{}},
		archive: &archiveStub{},
	}

	h.flaky = &flakyGames{Store: h.games}

	var seq atomic.Int64
	h.arb = New(context.Background(), Config{TurnTime: turnTime, Countdown: countdown}, Deps{
		Queue:     h.queue,
		Games:     h.flaky,
		Validator: wordcheck.New(h.oracle, plainMorph{}, nil),
		Timers:    h.timers,
		Notifier:  h.notes,
		Nicknames: nameBook{"alice": "Alice", "bob": "Bob"},
		Archive:   h.archive,
		Now:       h.clock.Now,
		CoinFlip:  func() bool { return true },
		NewID:     func() string { return fmt.Sprintf("id-%d", seq.Add(1)) },
	}, nil)
	return h
}

// startGame pairs alice and bob, with alice moving first, and moves the clock
// to the end of the countdown.
func (h *harness) startGame(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.arb.JoinQueue(ctx, "alice"))
	require.NoError(t, h.arb.JoinQueue(ctx, "bob"))

	matched := h.notes.events(types.EventMatched)
	require.NotEmpty(t, matched)
	gameID := matched[len(matched)-1].payload.(types.MatchedPayload).GameID
	h.clock.Set(epoch.Add(countdown))
	return gameID
}

func (h *harness) advance(d time.Duration) {
	h.clock.Set(h.clock.Now().Add(d))
}

func TestJoinQueue_PairsAndNotifiesEachPlayer(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	require.NoError(t, h.arb.JoinQueue(ctx, "alice"))
	assert.Empty(t, h.notes.events(types.EventMatched), "one waiting player is not a game")

	require.NoError(t, h.arb.JoinQueue(ctx, "bob"))
	matched := h.notes.events(types.EventMatched)
	require.Len(t, matched, 2)

	for _, m := range matched {
		require.Len(t, m.to, 1)
		p := m.payload.(types.MatchedPayload)
		assert.Equal(t, 3, p.CountdownSeconds)
		assert.Equal(t, 10, p.TurnSeconds)
		require.Len(t, p.Players, 2)
		assert.Equal(t, "alice", p.Players[0].ID, "starting player listed first")
		assert.Equal(t, "Alice", p.Players[0].Nickname)
		for _, pl := range p.Players {
			assert.Equal(t, pl.ID == m.to[0], pl.IsYou)
		}
	}

	gameID := matched[0].payload.(types.MatchedPayload).GameID
	g, err := h.games.Get(ctx, gameID)
	require.NoError(t, err)
	assert.Equal(t, "alice", g.StartingPlayerID)
	assert.True(t, g.StartTime.Equal(epoch.Add(countdown)))

	armed, ok := h.timers.get(gameID)
	require.True(t, ok)
	assert.Equal(t, countdown+turnTime, armed.d)

	n, err := h.queue.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestJoinQueue_FailedStartKeepsQueuePlaces(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	h.flaky.fail.Store(true)
	h.flaky.onCreate = func() {
		// Someone joins while the pair is out of the queue.
		require.NoError(t, h.queue.Enqueue(ctx, "carol"))
		h.flaky.onCreate = nil
	}

	require.NoError(t, h.arb.JoinQueue(ctx, "alice"))
	require.Error(t, h.arb.JoinQueue(ctx, "bob"))
	assert.Empty(t, h.notes.events(types.EventMatched))

	h.flaky.fail.Store(false)
	require.NoError(t, h.arb.JoinQueue(ctx, "dave"))

	matched := h.notes.events(types.EventMatched)
	require.Len(t, matched, 2)
	var ids []string
	for _, p := range matched[0].payload.(types.MatchedPayload).Players {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []string{"alice", "bob"}, ids, "the requeued pair is still first in line")

	n, err := h.queue.Len(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestLeaveQueue_NotQueuedIsNoop(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	assert.NoError(t, h.arb.LeaveQueue(ctx, "ghost"))

	require.NoError(t, h.arb.JoinQueue(ctx, "alice"))
	require.NoError(t, h.arb.LeaveQueue(ctx, "alice"))
	require.NoError(t, h.arb.JoinQueue(ctx, "bob"))
	assert.Empty(t, h.notes.events(types.EventMatched))
}

func TestSubmitTurn_PlayersAlternate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	gameID := h.startGame(t)

	for i, step := range []struct{ player, word string }{
		{"alice", "dog"},
		{"bob", "cat"},
		{"alice", "mouse"},
		{"bob", "cheese"},
	} {
		h.advance(time.Second)
		got, err := h.arb.SubmitTurn(ctx, gameID, step.player, step.word)
		require.NoError(t, err, "turn %d", i)
		assert.Equal(t, step.word, got)

		armed, ok := h.timers.get(gameID)
		require.True(t, ok)
		assert.Equal(t, turnTime, armed.d)
	}

	g, err := h.games.Get(ctx, gameID)
	require.NoError(t, err)
	turns, err := h.games.ListTurns(ctx, gameID)
	require.NoError(t, err)
	require.Len(t, turns, 4)
	assert.True(t, engine.Alternates(g, turns))

	assert.Len(t, h.notes.events(types.EventProcessingWord), 4)
	valid := h.notes.events(types.EventValidWord)
	require.Len(t, valid, 4)
	assert.ElementsMatch(t, []string{"alice", "bob"}, valid[0].to)
}

func TestSubmitTurn_OutOfTurnIsWrongTurn(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	gameID := h.startGame(t)
	h.advance(time.Second)

	for _, word := range []string{"dog", "", "two words"} {
		_, err := h.arb.SubmitTurn(ctx, gameID, "bob", word)
		assert.ErrorIs(t, err, engine.ErrWrongTurn, "word %q", word)
	}
	_, err := h.arb.SubmitTurn(ctx, gameID, "mallory", "dog")
	assert.ErrorIs(t, err, engine.ErrWrongTurn)

	_, err = h.arb.SubmitTurn(ctx, gameID, "alice", "dog")
	require.NoError(t, err)
	_, err = h.arb.SubmitTurn(ctx, gameID, "alice", "cat")
	assert.ErrorIs(t, err, engine.ErrWrongTurn)

	turns, err := h.games.ListTurns(ctx, gameID)
	require.NoError(t, err)
	assert.Len(t, turns, 1, "rejected submissions leave no trace")
}

func TestSubmitTurn_MalformedWord(t *testing.T) {
	h := newHarness(t)
	gameID := h.startGame(t)

	_, err := h.arb.SubmitTurn(context.Background(), gameID, "alice", "hot dog")
	assert.ErrorIs(t, err, engine.ErrMalformedInput)
}

func TestSubmitTurn_UnknownGame(t *testing.T) {
	h := newHarness(t)
	_, err := h.arb.SubmitTurn(context.Background(), "nope", "alice", "dog")
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestSubmitTurn_FirstTurnTimeBudget(t *testing.T) {
	cases := []struct {
		name    string
		at      time.Duration // after the countdown ends
		wantErr error
	}{
		{name: "during countdown", at: -time.Nanosecond, wantErr: engine.ErrTurnExpired},
		{name: "on the boundary", at: turnTime},
		{name: "one nanosecond late", at: turnTime + time.Nanosecond, wantErr: engine.ErrTurnExpired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			gameID := h.startGame(t)
			h.advance(tc.at)

			_, err := h.arb.SubmitTurn(context.Background(), gameID, "alice", "dog")
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSubmitTurn_UnrelatedWordEndsGame(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.oracle.unrelated["cat|dog"] = true
	gameID := h.startGame(t)

	_, err := h.arb.SubmitTurn(ctx, gameID, "alice", "dog")
	require.NoError(t, err)
	_, err = h.arb.SubmitTurn(ctx, gameID, "bob", "cat")
	require.ErrorIs(t, err, engine.ErrUnrelatedWord)

	g, err := h.games.Get(ctx, gameID)
	require.NoError(t, err)
	assert.Equal(t, engine.EndUnrelatedWord, g.EndReason)

	ended := h.notes.events(types.EventEndGame)
	require.Len(t, ended, 1)
	assert.Equal(t, types.EndGamePayload{Reason: "UNRELATED_WORD"}, ended[0].payload)

	_, armed := h.timers.get(gameID)
	assert.False(t, armed)

	require.Len(t, h.archive.saved, 1)
	assert.Equal(t, "alice", h.archive.saved[0].winner)

	_, err = h.arb.SubmitTurn(ctx, gameID, "alice", "mouse")
	assert.ErrorIs(t, err, engine.ErrGameEnded)

	res, err := h.arb.Results(ctx, gameID, "bob")
	require.NoError(t, err)
	require.NotNil(t, res.Winner)
	assert.Equal(t, "alice", res.Winner.ID)
	require.Len(t, res.Turns, 1)
	require.NotNil(t, res.FinalAttempt)
	assert.Equal(t, "cat", res.FinalAttempt.Word)
	assert.Nil(t, res.FinalAttempt.SubmitTime)
}

func TestSubmitTurn_InvalidAndRepeatedWords(t *testing.T) {
	cases := []struct {
		name    string
		words   []string
		wantErr error
		reason  engine.EndReason
	}{
		{
			name:    "misspelled beyond repair",
			words:   []string{"dog", "xqzt"},
			wantErr: engine.ErrInvalidWord,
			reason:  engine.EndInvalidWord,
		},
		{
			name:    "inflection of an earlier word",
			words:   []string{"jump", "hop", "jumps"},
			wantErr: engine.ErrSameOrSimilarWord,
			reason:  engine.EndSameOrSimilarWord,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t)
			h.oracle.spelling["xqzt"] = wordcheck.Invalid()
			gameID := h.startGame(t)

			players := []string{"alice", "bob"}
			last := len(tc.words) - 1
			for i, w := range tc.words[:last] {
				_, err := h.arb.SubmitTurn(ctx, gameID, players[i%2], w)
				require.NoError(t, err)
			}
			_, err := h.arb.SubmitTurn(ctx, gameID, players[last%2], tc.words[last])
			require.ErrorIs(t, err, tc.wantErr)

			g, err := h.games.Get(ctx, gameID)
			require.NoError(t, err)
			assert.Equal(t, tc.reason, g.EndReason)
		})
	}
}

func TestSubmitTurn_CorrectedSpellingIsRecorded(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.oracle.spelling["rasberry"] = wordcheck.Corrected("raspberry")
	gameID := h.startGame(t)

	got, err := h.arb.SubmitTurn(ctx, gameID, "alice", "Rasberry")
	require.NoError(t, err)
	assert.Equal(t, "raspberry", got)

	turns, err := h.games.ListTurns(ctx, gameID)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "raspberry", turns[0].Word)

	valid := h.notes.events(types.EventValidWord)
	require.Len(t, valid, 1)
	assert.Equal(t, types.ValidWordPayload{PlayerID: "alice", Word: "raspberry"}, valid[0].payload)
}

func TestExpire_LastMoverWins(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	gameID := h.startGame(t)

	_, err := h.arb.SubmitTurn(ctx, gameID, "alice", "dog")
	require.NoError(t, err)

	h.advance(turnTime + time.Millisecond)
	h.timers.fire(t, gameID)

	g, err := h.games.Get(ctx, gameID)
	require.NoError(t, err)
	assert.Equal(t, engine.EndTookTooLong, g.EndReason)

	res, err := h.arb.Results(ctx, gameID, "alice")
	require.NoError(t, err)
	require.NotNil(t, res.Winner)
	assert.Equal(t, "alice", res.Winner.ID)
	assert.True(t, res.Winner.IsYou)
	assert.Nil(t, res.FinalAttempt)

	_, err = h.arb.SubmitTurn(ctx, gameID, "bob", "cat")
	assert.ErrorIs(t, err, engine.ErrGameEnded)
}

func TestExpire_NoTurnsNonStarterWins(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	gameID := h.startGame(t)

	h.advance(turnTime + time.Millisecond)
	h.timers.fire(t, gameID)

	res, err := h.arb.Results(ctx, gameID, "alice")
	require.NoError(t, err)
	require.NotNil(t, res.Winner)
	assert.Equal(t, "bob", res.Winner.ID)
	assert.Equal(t, "TOOK_TOO_LONG", res.EndReason)
}

func TestExpire_StaleFireIsIgnored(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	gameID := h.startGame(t)

	stale, ok := h.timers.get(gameID)
	require.True(t, ok)

	h.advance(time.Second)
	_, err := h.arb.SubmitTurn(ctx, gameID, "alice", "dog")
	require.NoError(t, err)

	stale.fire()

	g, err := h.games.Get(ctx, gameID)
	require.NoError(t, err)
	assert.False(t, g.Ended())
	assert.Empty(t, h.notes.events(types.EventEndGame))
}

func TestSubmitTurn_OracleFailureLeavesTurnPending(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	gameID := h.startGame(t)
	h.oracle.mu.Lock()
	h.oracle.err = errors.New("upstream timeout")
	h.oracle.mu.Unlock()

	h.advance(4 * time.Second)
	_, err := h.arb.SubmitTurn(ctx, gameID, "alice", "dog")
	require.Error(t, err)
	_, isDomain := engine.CodeOf(err)
	assert.False(t, isDomain)

	turns, err := h.games.ListTurns(ctx, gameID)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.False(t, turns[0].Confirmed())

	g, err := h.games.Get(ctx, gameID)
	require.NoError(t, err)
	assert.False(t, g.Ended())

	armed, ok := h.timers.get(gameID)
	require.True(t, ok, "clock keeps running for the pending turn")
	assert.Equal(t, turnTime-4*time.Second, armed.d)

	_, err = h.arb.SubmitTurn(ctx, gameID, "bob", "cat")
	assert.ErrorIs(t, err, engine.ErrWrongTurn)

	h.advance(turnTime)
	h.timers.fire(t, gameID)

	res, err := h.arb.Results(ctx, gameID, "bob")
	require.NoError(t, err)
	assert.Equal(t, "TOOK_TOO_LONG", res.EndReason)
	require.NotNil(t, res.Winner)
	assert.Equal(t, "alice", res.Winner.ID, "an unjudged word is not a loss")
}

func TestExpire_PendingTurnAfterOracleFailureWins(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	gameID := h.startGame(t)

	_, err := h.arb.SubmitTurn(ctx, gameID, "alice", "dog")
	require.NoError(t, err)

	h.oracle.mu.Lock()
	h.oracle.err = errors.New("upstream timeout")
	h.oracle.mu.Unlock()

	h.advance(2 * time.Second)
	_, err = h.arb.SubmitTurn(ctx, gameID, "bob", "cat")
	require.Error(t, err)

	h.oracle.mu.Lock()
	h.oracle.err = nil
	h.oracle.mu.Unlock()

	_, err = h.arb.SubmitTurn(ctx, gameID, "bob", "cat")
	assert.ErrorIs(t, err, engine.ErrWrongTurn, "the pending turn still holds the game")

	h.advance(turnTime)
	h.timers.fire(t, gameID)

	res, err := h.arb.Results(ctx, gameID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "TOOK_TOO_LONG", res.EndReason)
	require.NotNil(t, res.Winner)
	assert.Equal(t, "bob", res.Winner.ID)
	require.NotNil(t, res.FinalAttempt)
	assert.Equal(t, "cat", res.FinalAttempt.Word)

	require.Len(t, h.archive.saved, 1)
	assert.Equal(t, "bob", h.archive.saved[0].winner)
}

func TestSubmitTurn_ConcurrentSubmissionsAcceptOne(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	gameID := h.startGame(t)

	const n = 8
	var (
		wg       sync.WaitGroup
		accepted atomic.Int32
		errs     = make(chan error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := h.arb.SubmitTurn(ctx, gameID, "alice", fmt.Sprintf("word%d", i))
			if err == nil {
				accepted.Add(1)
				return
			}
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	assert.Equal(t, int32(1), accepted.Load())
	for err := range errs {
		assert.ErrorIs(t, err, engine.ErrWrongTurn)
	}

	turns, err := h.games.ListTurns(ctx, gameID)
	require.NoError(t, err)
	assert.Len(t, turns, 1)
}

func TestSubmitTurn_TimeoutDuringValidationWins(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	gameID := h.startGame(t)

	gate := make(chan struct{})
	h.oracle.mu.Lock()
	h.oracle.gate = gate
	h.oracle.mu.Unlock()

	h.advance(turnTime)
	done := make(chan error, 1)
	go func() {
		_, err := h.arb.SubmitTurn(ctx, gameID, "alice", "dog")
		done <- err
	}()

	require.Eventually(t, func() bool {
		return len(h.notes.events(types.EventProcessingWord)) == 1
	}, time.Second, 5*time.Millisecond)

	_, err := h.arb.SubmitTurn(ctx, gameID, "bob", "cat")
	assert.ErrorIs(t, err, engine.ErrWrongTurn, "a turn in validation blocks the opponent")

	h.advance(time.Millisecond)
	h.arb.expire(gameID)
	close(gate)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, engine.ErrGameEnded)
	case <-time.After(time.Second):
		t.Fatal("submission did not finish")
	}

	turns, err := h.games.ListTurns(ctx, gameID)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.False(t, turns[0].Confirmed(), "a late verdict is not applied to an ended game")
	assert.Len(t, h.notes.events(types.EventValidWord), 0)

	res, err := h.arb.Results(ctx, gameID, "alice")
	require.NoError(t, err)
	require.NotNil(t, res.Winner)
	assert.Equal(t, "alice", res.Winner.ID, "an on-time submission is not beaten by the clock")
}

func TestResults_Access(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	gameID := h.startGame(t)

	_, err := h.arb.Results(ctx, gameID, "mallory")
	assert.ErrorIs(t, err, engine.ErrForbidden)

	_, err = h.arb.Results(ctx, "missing", "alice")
	assert.ErrorIs(t, err, engine.ErrNotFound)

	res, err := h.arb.Results(ctx, gameID, "bob")
	require.NoError(t, err)
	assert.Nil(t, res.Winner, "no winner while the game runs")
	require.Len(t, res.Players, 2)
	assert.Equal(t, "alice", res.Players[0].ID)
	assert.False(t, res.Players[0].IsYou)
	assert.True(t, res.Players[1].IsYou)
	assert.Equal(t, "Bob", res.Players[1].Nickname)
	assert.Empty(t, res.Turns)
}
