package arbiter

import (
	"context"

	"github.com/DoyleJ11/wordlink-backend/internal/engine"
	"github.com/DoyleJ11/wordlink-backend/pkg/types"
)

// Results reports the game as seen by playerID, who must have played in it.
func (a *Arbiter) Results(ctx context.Context, gameID, playerID string) (types.GameResults, error) {
	g, err := a.deps.Games.Get(ctx, gameID)
	if err != nil {
		return types.GameResults{}, err
	}
	if !g.HasPlayer(playerID) {
		return types.GameResults{}, engine.ErrForbidden
	}
	turns, err := a.deps.Games.ListTurns(ctx, gameID)
	if err != nil {
		return types.GameResults{}, err
	}

	order := []string{g.StartingPlayerID, g.Opponent(g.StartingPlayerID)}
	res := types.GameResults{
		GameID:    g.ID,
		Players:   playerViews(order, a.nicknames(ctx, order), playerID),
		Turns:     make([]types.Turn, 0, len(turns)),
		EndReason: string(g.EndReason),
	}

	for _, t := range engine.ConfirmedTurns(turns) {
		res.Turns = append(res.Turns, turnView(t))
	}

	if !g.Ended() {
		return res, nil
	}

	if n := len(turns); n > 0 && !turns[n-1].Confirmed() {
		last := turnView(turns[n-1])
		res.FinalAttempt = &last
	}

	winner := engine.Winner(g, turns)
	for i := range res.Players {
		if res.Players[i].ID == winner {
			res.Winner = &res.Players[i]
		}
	}
	return res, nil
}

func playerViews(order, names []string, viewer string) []types.Player {
	out := make([]types.Player, len(order))
	for i, id := range order {
		out[i] = types.Player{ID: id, Nickname: names[i], IsYou: id == viewer}
	}
	return out
}

func turnView(t engine.Turn) types.Turn {
	v := types.Turn{PlayerID: t.PlayerID, Word: t.Word}
	if t.Confirmed() {
		at := t.SubmitTime
		v.SubmitTime = &at
	}
	return v
}
