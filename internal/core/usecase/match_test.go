package usecase

import (
	"testing"

	"github.com/epsflow/radicador/internal/core/domain"
)

// scorerStub returns canned scores keyed by the normalized keyword; def
// covers everything else.
type scorerStub struct {
	scores map[string]int
	def    int
}

func (s *scorerStub) Score(_, keyword string) int {
	if v, ok := s.scores[keyword]; ok {
		return v
	}
	return s.def
}

func matchRuleset() domain.Ruleset {
	return domain.Ruleset{
		Organization: "NUEVA EPS",
		Categories: []domain.Category{
			{Name: "FACTURA", Keywords: []string{"factura de venta"}},
			{Name: "RECIBO", Keywords: []string{"recibo de caja"}},
			{Name: "AUTORIZACION", Keywords: []string{"autorización de servicios"}},
		},
	}
}

func TestMatchExactWinsOverHigherFuzzyScore(t *testing.T) {
	scorer := &scorerStub{scores: map[string]int{"factura de venta": 95}}
	uc := NewMatchKeywordsUseCase(scorer, 80)

	got := uc.Match("Anexo RECIBO DE CAJA No 123", matchRuleset())
	if got.Kind != domain.MatchExact {
		t.Fatalf("expected exact match, got %+v", got)
	}
	if got.Category != "RECIBO" || got.Score != 100 {
		t.Fatalf("expected RECIBO at 100, got %+v", got)
	}
}

func TestMatchExactIgnoresAccentsAndCase(t *testing.T) {
	uc := NewMatchKeywordsUseCase(&scorerStub{}, 80)

	got := uc.Match("AUTORIZACIÓN   DE\nSERVICIOS", matchRuleset())
	if got.Kind != domain.MatchExact || got.Category != "AUTORIZACION" {
		t.Fatalf("expected exact AUTORIZACION, got %+v", got)
	}
}

func TestMatchFuzzyAcceptsAtThreshold(t *testing.T) {
	scorer := &scorerStub{scores: map[string]int{"recibo de caja": 80}}
	uc := NewMatchKeywordsUseCase(scorer, 80)

	got := uc.Match("texto borroso sin frase literal", matchRuleset())
	if got.Kind != domain.MatchFuzzy || got.Category != "RECIBO" || got.Score != 80 {
		t.Fatalf("expected fuzzy RECIBO at 80, got %+v", got)
	}
}

func TestMatchFuzzyRejectsBelowThreshold(t *testing.T) {
	scorer := &scorerStub{scores: map[string]int{"recibo de caja": 79}}
	uc := NewMatchKeywordsUseCase(scorer, 80)

	got := uc.Match("texto borroso sin frase literal", matchRuleset())
	if got.Kind != domain.MatchNone {
		t.Fatalf("expected no match, got %+v", got)
	}
	if got.Score != 79 {
		t.Fatalf("expected best score 79 recorded, got %d", got.Score)
	}
}

func TestMatchFuzzyTieKeepsRulesetOrder(t *testing.T) {
	scorer := &scorerStub{def: 85}
	uc := NewMatchKeywordsUseCase(scorer, 80)

	got := uc.Match("texto borroso sin frase literal", matchRuleset())
	if got.Kind != domain.MatchFuzzy || got.Category != "FACTURA" {
		t.Fatalf("expected first category FACTURA on tie, got %+v", got)
	}
}

func TestMatchHonorsRulesetThresholdOverride(t *testing.T) {
	scorer := &scorerStub{scores: map[string]int{"factura de venta": 85}}
	uc := NewMatchKeywordsUseCase(scorer, 80)

	rs := matchRuleset()
	rs.Threshold = 90
	got := uc.Match("texto borroso sin frase literal", rs)
	if got.Kind != domain.MatchNone {
		t.Fatalf("expected rejection under ruleset threshold 90, got %+v", got)
	}
}

func TestMatchEmptyText(t *testing.T) {
	uc := NewMatchKeywordsUseCase(&scorerStub{def: 100}, 80)

	got := uc.Match("   ", matchRuleset())
	if got.Kind != domain.MatchNone || got.Score != 0 {
		t.Fatalf("expected none for empty text, got %+v", got)
	}
}

func TestMatchIsIdempotent(t *testing.T) {
	scorer := &scorerStub{scores: map[string]int{"recibo de caja": 84}}
	uc := NewMatchKeywordsUseCase(scorer, 80)

	cases := []struct {
		name string
		text string
		kind domain.MatchKind
	}{
		{"exact hit", "Anexo FACTURA DE VENTA No 501", domain.MatchExact},
		{"fuzzy hit", "texto borroso sin frase literal", domain.MatchFuzzy},
	}
	for _, tc := range cases {
		first := uc.Match(tc.text, matchRuleset())
		if first.Kind != tc.kind {
			t.Fatalf("%s: expected kind %s, got %+v", tc.name, tc.kind, first)
		}
		second := uc.Match(tc.text, matchRuleset())
		if second != first {
			t.Fatalf("%s: repeated match diverged: %+v then %+v", tc.name, first, second)
		}
	}
}
