package engine

// LastConfirmed returns the most recent confirmed turn in the log.
func LastConfirmed(turns []Turn) (Turn, bool) {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Confirmed() {
			return turns[i], true
		}
	}
	return Turn{}, false
}

func ConfirmedTurns(turns []Turn) []Turn {
	out := make([]Turn, 0, len(turns))
	for _, t := range turns {
		if t.Confirmed() {
			out = append(out, t)
		}
	}
	return out
}

func ConfirmedWords(turns []Turn) []string {
	words := make([]string, 0, len(turns))
	for _, t := range turns {
		if t.Confirmed() {
			words = append(words, t.Word)
		}
	}
	return words
}
