package wordcheck

import (
	"fmt"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/kljensen/snowball/english"
)

// Morphology reduces words to dictionary lemmas and a coarser rule-based stem.
type Morphology interface {
	Lemmas(word string) []string
	Stem(word string) string
}

// English combines a dictionary lemmatizer with the snowball English stemmer.
type English struct {
	lemmatizer *golem.Lemmatizer
}

func NewEnglish() (*English, error) {
	l, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("load english lemmas: %w", err)
	}
	return &English{lemmatizer: l}, nil
}

// Lemmas returns every dictionary form of word across parts of speech.
func (e *English) Lemmas(word string) []string {
	return e.lemmatizer.Lemmas(word)
}

func (e *English) Stem(word string) string {
	return english.Stem(word, true)
}

// Fingerprint is what two words are compared by when checking for repeats.
type Fingerprint struct {
	Word   string
	Lemmas map[string]struct{}
	Stem   string
}

func NewFingerprint(m Morphology, word string) Fingerprint {
	f := Fingerprint{
		Word:   word,
		Lemmas: map[string]struct{}{word: {}},
		Stem:   m.Stem(word),
	}
	for _, l := range m.Lemmas(word) {
		f.Lemmas[l] = struct{}{}
	}
	return f
}

// Matches requires both a shared lemma and an identical stem.
func (f Fingerprint) Matches(other Fingerprint) bool {
	if f.Stem != other.Stem {
		return false
	}
	for l := range f.Lemmas {
		if _, ok := other.Lemmas[l]; ok {
			return true
		}
	}
	return false
}
