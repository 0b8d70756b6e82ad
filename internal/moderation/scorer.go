// Package moderation scores user-written text for profanity and flags
// content that crosses the configured threshold.
package moderation

import (
	"html"
	"strings"
	"unicode"

	goaway "github.com/TwiN/go-away"
	"github.com/microcosm-cc/bluemonday"
)

// Scorer estimates the probability that text is profane.
type Scorer interface {
	Score(text string) float64
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(text string) float64

func (f ScorerFunc) Score(text string) float64 { return f(text) }

// ProfanityScorer scores text with a dictionary-based detector. Text without
// profanity scores 0; any profane text scores above 0.5, rising with the share
// of profane words.
type ProfanityScorer struct {
	detector *goaway.ProfanityDetector
	strip    *bluemonday.Policy
}

// NewProfanityScorer builds a scorer using the default dictionary plus extra.
func NewProfanityScorer(extra ...string) *ProfanityScorer {
	detector := goaway.NewProfanityDetector()
	if len(extra) > 0 {
		words := append(append([]string{}, goaway.DefaultProfanities...), lower(extra)...)
		detector = detector.WithCustomDictionary(words, goaway.DefaultFalsePositives, goaway.DefaultFalseNegatives)
	}
	return &ProfanityScorer{detector: detector, strip: bluemonday.StrictPolicy()}
}

func (s *ProfanityScorer) Score(text string) float64 {
	plain := PlainText(s.strip, text)
	if plain == "" || !s.detector.IsProfane(plain) {
		return 0
	}

	words := strings.FieldsFunc(plain, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '*' && r != '@' && r != '$'
	})
	if len(words) == 0 {
		return 1
	}
	profane := 0
	for _, w := range words {
		if s.detector.IsProfane(w) {
			profane++
		}
	}
	// the detector can match across word boundaries
	profane = max(profane, 1)
	return 0.5 + 0.5*float64(profane)/float64(len(words))
}

// PlainText strips markup with policy and decodes entities.
func PlainText(policy *bluemonday.Policy, text string) string {
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(text)))
}

func lower(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			out = append(out, w)
		}
	}
	return out
}
