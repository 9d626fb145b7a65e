package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	LogLevel string
	LogDir   string

	OutputDir       string
	RulesetsPath    string
	ReportPath      string
	MetricsTextfile string

	MatchThreshold   int
	Workers          int
	UnresolvedPolicy string

	OCREnabled       bool
	OCREngine        string
	OCRBinary        string
	OCRLanguage      string
	OCRPageSegMode   int
	OCRMinConfidence float64
	OCRTimeout       time.Duration
	OCRDPI           int
	OCRRateLimit     float64

	HospitalNIT    string
	HospitalPrefix string
}

func Load() Config {
	return Config{
		LogLevel: mustEnv("LOG_LEVEL", "info"),
		LogDir:   mustEnv("LOG_DIR", ""),

		OutputDir:       mustEnv("OUTPUT_DIR", "./data/output"),
		RulesetsPath:    mustEnv("RULESETS_PATH", ""),
		ReportPath:      mustEnv("REPORT_PATH", ""),
		MetricsTextfile: mustEnv("METRICS_TEXTFILE", ""),

		MatchThreshold:   mustEnvInt("MATCH_THRESHOLD", 80),
		Workers:          mustEnvInt("WORKERS", 1),
		UnresolvedPolicy: strings.ToLower(mustEnv("UNRESOLVED_POLICY", "copy")),

		OCREnabled:       mustEnvBool("OCR_ENABLED", true),
		OCREngine:        mustEnv("OCR_ENGINE", "gosseract"),
		OCRBinary:        mustEnv("OCR_BINARY", "tesseract"),
		OCRLanguage:      mustEnv("OCR_LANGUAGE", "spa"),
		OCRPageSegMode:   mustEnvInt("OCR_PSM", 3),
		OCRMinConfidence: mustEnvFloat("OCR_MIN_CONFIDENCE", 0),
		OCRTimeout:       mustEnvDuration("OCR_TIMEOUT", 2*time.Minute),
		OCRDPI:           mustEnvInt("OCR_DPI", 300),
		OCRRateLimit:     mustEnvFloat("OCR_RATE_LIMIT", 0),

		HospitalNIT:    mustEnv("HOSPITAL_NIT", ""),
		HospitalPrefix: mustEnv("HOSPITAL_PREFIX", ""),
	}
}

// Validate rejects values no component can run with. Values with a
// sensible default are normalized by their consumers instead.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.MatchThreshold < 1 || c.MatchThreshold > 100 {
		return fmt.Errorf("match threshold must be within 1..100, got %d", c.MatchThreshold)
	}
	switch c.UnresolvedPolicy {
	case "copy", "leave":
	default:
		return fmt.Errorf("unresolved policy must be copy or leave, got %q", c.UnresolvedPolicy)
	}
	switch c.OCREngine {
	case "gosseract", "tesseract-cli":
	default:
		return fmt.Errorf("ocr engine must be gosseract or tesseract-cli, got %q", c.OCREngine)
	}
	if c.OCRDPI < 72 || c.OCRDPI > 1200 {
		return fmt.Errorf("ocr dpi must be within 72..1200, got %d", c.OCRDPI)
	}
	if c.OCRTimeout < 0 {
		return fmt.Errorf("ocr timeout must not be negative, got %s", c.OCRTimeout)
	}
	if c.OCRRateLimit < 0 {
		return fmt.Errorf("ocr rate limit must not be negative, got %g", c.OCRRateLimit)
	}
	return nil
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
