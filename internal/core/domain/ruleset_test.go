package domain

import (
	"strings"
	"testing"
)

func validRuleset() Ruleset {
	return Ruleset{
		Organization: "NUEVA EPS",
		Categories: []Category{
			{Name: "FACTURA", Keywords: []string{"factura de venta"}},
			{Name: "RECIBO", Keywords: []string{"recibo de caja"}},
		},
	}
}

func TestValidateAcceptsMinimalRuleset(t *testing.T) {
	if err := validRuleset().Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidateRejectsDuplicateCategoryNames(t *testing.T) {
	rs := validRuleset()
	rs.Categories = append(rs.Categories, Category{Name: "factura", Keywords: []string{"x"}})
	err := rs.Validate()
	if err == nil || !strings.Contains(err.Error(), "twice") {
		t.Fatalf("expected duplicate category error, got %v", err)
	}
}

func TestValidateRejectsCategoryWithoutKeywords(t *testing.T) {
	rs := validRuleset()
	rs.Categories[0].Keywords = nil
	if err := rs.Validate(); err == nil {
		t.Fatalf("expected error for category without keywords")
	}
}

func TestValidateRejectsThresholdOutOfRange(t *testing.T) {
	rs := validRuleset()
	rs.Threshold = 101
	if err := rs.Validate(); err == nil {
		t.Fatalf("expected error for threshold above 100")
	}
}

func TestValidateRejectsPatternWithoutCategoryPlaceholder(t *testing.T) {
	rs := validRuleset()
	rs.FilenamePattern = "{org}_salida.pdf"
	if err := rs.Validate(); err == nil {
		t.Fatalf("expected error for pattern without {category}")
	}
}

func TestThresholdOrDefault(t *testing.T) {
	rs := validRuleset()
	if got := rs.ThresholdOrDefault(75); got != 75 {
		t.Fatalf("expected configured default 75, got %d", got)
	}

	rs.Threshold = 90
	if got := rs.ThresholdOrDefault(75); got != 90 {
		t.Fatalf("expected ruleset override 90, got %d", got)
	}

	rs.Threshold = 0
	if got := rs.ThresholdOrDefault(0); got != DefaultThreshold {
		t.Fatalf("expected built-in default %d, got %d", DefaultThreshold, got)
	}
}
