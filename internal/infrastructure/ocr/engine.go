package ocr

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"golang.org/x/time/rate"

	"github.com/epsflow/radicador/internal/core/domain"
	"github.com/epsflow/radicador/internal/core/ports"
	"github.com/epsflow/radicador/internal/infrastructure/ocr/tesseract"
	"github.com/epsflow/radicador/internal/infrastructure/ocr/tesseractcli"
	"github.com/epsflow/radicador/internal/infrastructure/resilience"
)

const (
	EngineGosseract    = "gosseract"
	EngineTesseractCLI = "tesseract-cli"
)

type Config struct {
	Engine        string
	Binary        string
	Language      string
	PageSegMode   int
	MinConfidence float64
}

// NewEngine builds the configured recognition engine.
func NewEngine(cfg Config) (ports.OCREngine, error) {
	switch cfg.Engine {
	case EngineGosseract, "":
		return tesseract.New(tesseract.Config{
			Language:      cfg.Language,
			PageSegMode:   cfg.PageSegMode,
			MinConfidence: cfg.MinConfidence,
		})
	case EngineTesseractCLI:
		return tesseractcli.New(tesseractcli.Config{
			Binary:      cfg.Binary,
			Language:    cfg.Language,
			PageSegMode: cfg.PageSegMode,
		}), nil
	default:
		return nil, fmt.Errorf("unknown ocr engine %q", cfg.Engine)
	}
}

// ResilientConfig tunes the decorator around an engine.
type ResilientConfig struct {
	Timeout       time.Duration
	RatePerSecond float64
	Resilience    resilience.Config
	// Observe, when set, receives the duration and result of every
	// recognition attempt batch.
	Observe func(time.Duration, error)
}

// ResilientEngine decorates an engine with a per-call timeout, a
// submission rate limit shared across workers, retries and a circuit
// breaker. An open circuit surfaces as domain.ErrOCRUnavailable so the
// orchestrator can abort the run instead of burning every page.
type ResilientEngine struct {
	inner    ports.OCREngine
	executor *resilience.Executor
	limiter  *rate.Limiter
	cfg      ResilientConfig
}

func NewResilientEngine(inner ports.OCREngine, cfg ResilientConfig) *ResilientEngine {
	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	return &ResilientEngine{
		inner:    inner,
		executor: resilience.NewExecutor("ocr.recognize", cfg.Resilience, classifyOCRError),
		limiter:  limiter,
		cfg:      cfg,
	}
}

func (e *ResilientEngine) Name() string { return e.inner.Name() }

func (e *ResilientEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	callCtx := ctx
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	var text string
	start := time.Now()
	err := e.executor.Execute(callCtx, func(c context.Context) error {
		out, innerErr := e.inner.Recognize(c, image)
		if innerErr != nil {
			return innerErr
		}
		text = out
		return nil
	})
	if e.cfg.Observe != nil {
		e.cfg.Observe(time.Since(start), err)
	}
	if err != nil {
		if resilience.IsCircuitOpen(err) || errors.Is(err, exec.ErrNotFound) {
			return "", domain.WrapError(domain.ErrOCRUnavailable, "recognize page", err)
		}
		return "", err
	}
	return text, nil
}

func (e *ResilientEngine) Close() error { return e.inner.Close() }

func classifyOCRError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	}
	if errors.Is(err, exec.ErrNotFound) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// The binary ran and rejected this image; the same input will
		// fail the same way.
		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	}
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}
