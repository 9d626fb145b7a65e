// Package fuzzywuzzy adapts the go-fuzzywuzzy partial-ratio scorer to
// the similarity port used by keyword matching.
package fuzzywuzzy

import (
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

type Scorer struct{}

func NewScorer() *Scorer { return &Scorer{} }

// Score reports how well keyword matches a substring of text on a
// 0..100 scale. Garbled OCR output of a keyword phrase still scores
// high because the best-matching window is compared, not the whole
// page.
func (s *Scorer) Score(text, keyword string) int {
	if text == "" || keyword == "" {
		return 0
	}
	return fuzzy.PartialRatio(text, keyword)
}
