package engine

// Alternates reports whether the turn log alternates between the two players,
// starting with the starting player.
func Alternates(g GameSession, turns []Turn) bool {
	want := g.StartingPlayerID
	for _, t := range turns {
		if t.PlayerID != want {
			return false
		}
		want = g.Opponent(want)
	}
	return true
}

// Winner decides the winner of an ended game.
//
// The player who did not submit the most recent turn wins, since that turn is
// the one that broke a rule. On a timeout the player who submitted the most
// recent turn wins instead, confirmed or not, because the opponent failed to
// answer. A game with no turns is lost by the starting player.
func Winner(g GameSession, turns []Turn) string {
	if len(turns) == 0 {
		return g.Opponent(g.StartingPlayerID)
	}

	last := turns[len(turns)-1].PlayerID
	if g.EndReason == EndTookTooLong {
		return last
	}
	return g.Opponent(last)
}
