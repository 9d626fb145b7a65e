package usecase

import (
	"strings"

	"github.com/epsflow/radicador/internal/core/domain"
	"github.com/epsflow/radicador/internal/core/ports"
)

// MatchKeywordsUseCase assigns extracted text to a ruleset category.
// Exact substring matches win over fuzzy ones; within a pass the first
// category in ruleset order wins, which makes that order a priority.
type MatchKeywordsUseCase struct {
	scorer    ports.SimilarityScorer
	threshold int
}

func NewMatchKeywordsUseCase(scorer ports.SimilarityScorer, threshold int) *MatchKeywordsUseCase {
	if threshold <= 0 || threshold > 100 {
		threshold = domain.DefaultThreshold
	}
	return &MatchKeywordsUseCase{scorer: scorer, threshold: threshold}
}

func (uc *MatchKeywordsUseCase) Match(text string, ruleset domain.Ruleset) domain.MatchResult {
	normalized := domain.NormalizeText(text)
	if normalized == "" {
		return domain.MatchResult{Kind: domain.MatchNone}
	}

	for _, cat := range ruleset.Categories {
		for _, kw := range cat.Keywords {
			if strings.Contains(normalized, domain.NormalizeText(kw)) {
				return domain.MatchResult{Category: cat.Name, Kind: domain.MatchExact, Score: 100}
			}
		}
	}

	// Strict > keeps the earliest category on equal scores.
	best := domain.MatchResult{Kind: domain.MatchNone}
	for _, cat := range ruleset.Categories {
		catBest := 0
		for _, kw := range cat.Keywords {
			if s := uc.scorer.Score(normalized, domain.NormalizeText(kw)); s > catBest {
				catBest = s
			}
		}
		if catBest > best.Score {
			best = domain.MatchResult{Category: cat.Name, Kind: domain.MatchFuzzy, Score: catBest}
		}
	}

	if best.Score >= ruleset.ThresholdOrDefault(uc.threshold) && best.Kind == domain.MatchFuzzy {
		return best
	}
	return domain.MatchResult{Kind: domain.MatchNone, Score: best.Score}
}
