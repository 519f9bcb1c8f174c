package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/DoyleJ11/wordlink-backend/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	s, err := New(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func endedGame(id, a, b string, reason engine.EndReason) engine.GameSession {
	return engine.GameSession{
		ID:               id,
		PlayerAID:        a,
		PlayerBID:        b,
		StartingPlayerID: a,
		StartTime:        start,
		EndReason:        reason,
	}
}

func TestSaveAndList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	g1 := endedGame("g1", "alice", "bob", engine.EndUnrelatedWord)
	turns := []engine.Turn{
		{ID: "t1", GameID: "g1", PlayerID: "alice", Word: "dog", SubmitTime: start.Add(time.Second)},
		{ID: "t2", GameID: "g1", PlayerID: "bob", Word: "cat"},
	}
	require.NoError(t, s.Save(ctx, g1, turns, "alice", start.Add(5*time.Second)))

	g2 := endedGame("g2", "carol", "alice", engine.EndTookTooLong)
	require.NoError(t, s.Save(ctx, g2, nil, "alice", start.Add(time.Minute)))

	got, err := s.ListByPlayer(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "g2", got[0].GameID, "newest first")
	assert.Equal(t, "carol", got[0].Opponent)
	assert.True(t, got[0].Won)
	assert.Empty(t, got[0].Words)

	assert.Equal(t, "g1", got[1].GameID)
	assert.Equal(t, "bob", got[1].Opponent)
	assert.Equal(t, "UNRELATED_WORD", got[1].EndReason)
	assert.Equal(t, []string{"dog"}, got[1].Words, "the failed attempt is not a played word")

	got, err = s.ListByPlayer(ctx, "bob", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].Won)

	got, err = s.ListByPlayer(ctx, "alice", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSave_SecondCopyIgnored(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	g := endedGame("g1", "alice", "bob", engine.EndInvalidWord)
	turns := []engine.Turn{{ID: "t1", GameID: "g1", PlayerID: "alice", Word: "dog", SubmitTime: start}}
	require.NoError(t, s.Save(ctx, g, turns, "bob", start))
	require.NoError(t, s.Save(ctx, g, turns, "alice", start))

	got, err := s.ListByPlayer(ctx, "bob", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Won)
	assert.Equal(t, []string{"dog"}, got[0].Words)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("mysql", "whatever")
	assert.Error(t, err)
}
