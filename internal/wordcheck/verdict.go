package wordcheck

import "context"

type Verdict int

const (
	VerdictValid Verdict = iota
	VerdictCorrected
	VerdictInvalid
)

func (v Verdict) String() string {
	switch v {
	case VerdictValid:
		return "valid"
	case VerdictCorrected:
		return "corrected"
	case VerdictInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Spelling is the oracle's answer to a spelling check. Word is only set for
// VerdictCorrected and holds the corrected spelling.
type Spelling struct {
	Verdict Verdict
	Word    string
}

func Valid() Spelling                { return Spelling{Verdict: VerdictValid} }
func Invalid() Spelling              { return Spelling{Verdict: VerdictInvalid} }
func Corrected(word string) Spelling { return Spelling{Verdict: VerdictCorrected, Word: word} }

// Oracle classifies text. Implementations may be slow and may fail; callers
// decide whether to retry.
type Oracle interface {
	ClassifySpelling(ctx context.Context, word string) (Spelling, error)
	ClassifyRelated(ctx context.Context, word, previous string) (bool, error)
}
