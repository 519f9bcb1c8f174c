package wordcheck

import (
	"context"
	"fmt"

	"github.com/DoyleJ11/wordlink-backend/internal/engine"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Input is one candidate word in the context of its game. Previous is empty
// on the first turn, which skips the relatedness check.
type Input struct {
	Word     string
	Previous string
	Prior    []string
}

type Validator struct {
	oracle Oracle
	morph  Morphology
	log    *zap.Logger
}

func New(oracle Oracle, morph Morphology, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{oracle: oracle, morph: morph, log: logger}
}

// Validate runs the spelling, relatedness and repetition checks in order and
// returns the word to record, which is the corrected spelling when the oracle
// supplied one. Rule violations come back as engine errors carrying an end
// reason; anything else is an infrastructure failure.
func (v *Validator) Validate(ctx context.Context, in Input) (string, error) {
	var (
		spelling Spelling
		related  = true
	)

	// Both oracle calls are needed in the common case, so they go out together.
	// A failure in one must not cancel the other: an invalid spelling outranks
	// a relatedness error.
	var g errgroup.Group
	g.Go(func() error {
		var err error
		if spelling, err = v.oracle.ClassifySpelling(ctx, in.Word); err != nil {
			spelling = Spelling{}
			return fmt.Errorf("spelling check: %w", err)
		}
		return nil
	})
	if in.Previous != "" {
		g.Go(func() error {
			var err error
			if related, err = v.oracle.ClassifyRelated(ctx, in.Word, in.Previous); err != nil {
				return fmt.Errorf("relatedness check: %w", err)
			}
			return nil
		})
	}
	oracleErr := g.Wait()

	if spelling.Verdict == VerdictInvalid {
		return "", engine.Errorf(engine.CodeInvalidWord, "%s is not a valid word", in.Word)
	}
	if oracleErr != nil {
		return "", oracleErr
	}

	word := in.Word
	if spelling.Verdict == VerdictCorrected && spelling.Word != "" && spelling.Word != word {
		v.log.Debug("spelling corrected", zap.String("from", word), zap.String("to", spelling.Word))
		word = spelling.Word
	}

	if !related {
		return "", engine.Errorf(engine.CodeUnrelatedWord, "%s is not related to %s", word, in.Previous)
	}

	if match, ok := v.FindSimilar(word, in.Prior); ok {
		return "", engine.Errorf(engine.CodeSameOrSimilar, "%s is the same as or too similar to the previous word %s", word, match)
	}
	return word, nil
}

// FindSimilar returns the first prior word that shares a lemma and the stem
// with word.
func (v *Validator) FindSimilar(word string, prior []string) (string, bool) {
	fp := NewFingerprint(v.morph, word)
	for _, p := range prior {
		if fp.Matches(NewFingerprint(v.morph, p)) {
			return p, true
		}
	}
	return "", false
}
