package config

import (
	"testing"
	"time"
)

func clearPipelineEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LOG_LEVEL", "LOG_DIR", "OUTPUT_DIR", "RULESETS_PATH", "REPORT_PATH",
		"METRICS_TEXTFILE", "MATCH_THRESHOLD", "WORKERS", "UNRESOLVED_POLICY",
		"OCR_ENABLED", "OCR_ENGINE", "OCR_BINARY", "OCR_LANGUAGE", "OCR_PSM",
		"OCR_MIN_CONFIDENCE", "OCR_TIMEOUT", "OCR_DPI", "OCR_RATE_LIMIT",
		"HOSPITAL_NIT", "HOSPITAL_PREFIX",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearPipelineEnv(t)

	cfg := Load()
	if cfg.MatchThreshold != 80 {
		t.Fatalf("expected default threshold 80, got %d", cfg.MatchThreshold)
	}
	if cfg.Workers != 1 {
		t.Fatalf("expected default workers 1, got %d", cfg.Workers)
	}
	if cfg.UnresolvedPolicy != "copy" {
		t.Fatalf("expected default policy copy, got %q", cfg.UnresolvedPolicy)
	}
	if !cfg.OCREnabled || cfg.OCREngine != "gosseract" || cfg.OCRLanguage != "spa" {
		t.Fatalf("unexpected ocr defaults: %+v", cfg)
	}
	if cfg.OCRTimeout != 2*time.Minute {
		t.Fatalf("expected default ocr timeout 2m, got %s", cfg.OCRTimeout)
	}
	if cfg.OCRDPI != 300 || cfg.OCRPageSegMode != 3 {
		t.Fatalf("unexpected render defaults: dpi=%d psm=%d", cfg.OCRDPI, cfg.OCRPageSegMode)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate, got %v", err)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	clearPipelineEnv(t)
	t.Setenv("MATCH_THRESHOLD", "85")
	t.Setenv("WORKERS", "4")
	t.Setenv("UNRESOLVED_POLICY", "LEAVE")
	t.Setenv("OCR_ENABLED", "false")
	t.Setenv("OCR_ENGINE", "tesseract-cli")
	t.Setenv("OCR_TIMEOUT", "45s")
	t.Setenv("OCR_RATE_LIMIT", "2.5")
	t.Setenv("HOSPITAL_NIT", "890102345")

	cfg := Load()
	if cfg.MatchThreshold != 85 || cfg.Workers != 4 {
		t.Fatalf("unexpected numeric overrides: %+v", cfg)
	}
	if cfg.UnresolvedPolicy != "leave" {
		t.Fatalf("expected policy lowered to leave, got %q", cfg.UnresolvedPolicy)
	}
	if cfg.OCREnabled || cfg.OCREngine != "tesseract-cli" {
		t.Fatalf("unexpected ocr overrides: %+v", cfg)
	}
	if cfg.OCRTimeout != 45*time.Second {
		t.Fatalf("expected ocr timeout 45s, got %s", cfg.OCRTimeout)
	}
	if cfg.OCRRateLimit != 2.5 {
		t.Fatalf("expected rate limit 2.5, got %g", cfg.OCRRateLimit)
	}
	if cfg.HospitalNIT != "890102345" {
		t.Fatalf("expected hospital nit kept, got %q", cfg.HospitalNIT)
	}
}

func TestLoadFallsBackOnUnparsableValues(t *testing.T) {
	clearPipelineEnv(t)
	t.Setenv("WORKERS", "many")
	t.Setenv("OCR_TIMEOUT", "pronto")
	t.Setenv("OCR_RATE_LIMIT", "rapido")

	cfg := Load()
	if cfg.Workers != 1 {
		t.Fatalf("expected fallback workers 1, got %d", cfg.Workers)
	}
	if cfg.OCRTimeout != 2*time.Minute {
		t.Fatalf("expected fallback timeout 2m, got %s", cfg.OCRTimeout)
	}
	if cfg.OCRRateLimit != 0 {
		t.Fatalf("expected fallback rate limit 0, got %g", cfg.OCRRateLimit)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	clearPipelineEnv(t)
	base := Load()

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"zero threshold", func(c *Config) { c.MatchThreshold = 0 }},
		{"threshold above range", func(c *Config) { c.MatchThreshold = 101 }},
		{"unknown policy", func(c *Config) { c.UnresolvedPolicy = "move" }},
		{"unknown engine", func(c *Config) { c.OCREngine = "azure-vision" }},
		{"dpi too low", func(c *Config) { c.OCRDPI = 10 }},
		{"negative timeout", func(c *Config) { c.OCRTimeout = -time.Second }},
		{"negative rate", func(c *Config) { c.OCRRateLimit = -1 }},
	}
	for _, tc := range cases {
		cfg := base
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}
