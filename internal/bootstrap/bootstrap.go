package bootstrap

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/epsflow/radicador/internal/config"
	"github.com/epsflow/radicador/internal/core/domain"
	"github.com/epsflow/radicador/internal/core/ports"
	"github.com/epsflow/radicador/internal/core/usecase"
	"github.com/epsflow/radicador/internal/infrastructure/ocr"
	"github.com/epsflow/radicador/internal/infrastructure/pdf"
	"github.com/epsflow/radicador/internal/infrastructure/report/excelize"
	"github.com/epsflow/radicador/internal/infrastructure/resilience"
	"github.com/epsflow/radicador/internal/infrastructure/rulesets"
	"github.com/epsflow/radicador/internal/infrastructure/scoring/fuzzywuzzy"
	"github.com/epsflow/radicador/internal/infrastructure/storage/localfs"
	"github.com/epsflow/radicador/internal/observability/logging"
	"github.com/epsflow/radicador/internal/observability/metrics"
)

const defaultReportName = "radicador_report.xlsx"

type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Metrics  *metrics.PipelineMetrics
	Rulesets *rulesets.Catalog
	Runner   ports.BatchRunner

	closeFn func()
}

func New(cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, domain.WrapError(domain.ErrConfig, "validate config", err)
	}

	logger, closeLogs, err := logging.New("radicador", cfg.LogLevel, cfg.LogDir)
	if err != nil {
		return nil, domain.WrapError(domain.ErrConfig, "init logging", err)
	}

	m := metrics.NewPipelineMetrics()

	catalog, err := rulesets.Load(cfg.RulesetsPath)
	if err != nil {
		_ = closeLogs()
		return nil, fmt.Errorf("load ruleset catalog: %w", err)
	}

	store, err := localfs.New(cfg.OutputDir)
	if err != nil {
		_ = closeLogs()
		return nil, domain.WrapError(domain.ErrConfig, "init output store", err)
	}

	var engine ports.OCREngine
	if cfg.OCREnabled {
		inner, err := ocr.NewEngine(ocr.Config{
			Engine:        cfg.OCREngine,
			Binary:        cfg.OCRBinary,
			Language:      cfg.OCRLanguage,
			PageSegMode:   cfg.OCRPageSegMode,
			MinConfidence: cfg.OCRMinConfidence,
		})
		if err != nil {
			_ = closeLogs()
			return nil, domain.WrapError(domain.ErrOCRUnavailable, "init ocr engine", err)
		}
		engine = ocr.NewResilientEngine(inner, ocr.ResilientConfig{
			Timeout:       cfg.OCRTimeout,
			RatePerSecond: cfg.OCRRateLimit,
			Resilience:    resilience.DefaultConfig(),
			Observe:       m.ObserveOCR,
		})
	} else {
		logger.Warn("ocr disabled, scanned pages will land in review")
	}

	backend := pdf.NewBackend(cfg.OCRDPI)
	assembler := pdf.NewAssembler()
	scorer := fuzzywuzzy.NewScorer()

	extractor := usecase.NewExtractTextUseCase(engine, logger)
	matcher := usecase.NewMatchKeywordsUseCase(scorer, cfg.MatchThreshold)
	classifier := usecase.NewClassifyDocumentUseCase(backend, extractor, matcher, logger)
	materializer := usecase.NewMaterializeOutcomeUseCase(assembler, store, usecase.MaterializeOptions{
		UnresolvedPolicy: cfg.UnresolvedPolicy,
		Hospital:         domain.Hospital{NIT: cfg.HospitalNIT, Prefix: cfg.HospitalPrefix},
	}, logger)

	reportPath := cfg.ReportPath
	if reportPath == "" {
		reportPath = filepath.Join(cfg.OutputDir, defaultReportName)
	}
	reporter := excelize.NewReporter(reportPath)

	runner := usecase.NewRunBatchUseCase(catalog, classifier, materializer, reporter, m, cfg.Workers, logger)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Metrics:  m,
		Rulesets: catalog,
		Runner:   runner,
		closeFn: func() {
			if engine != nil {
				_ = engine.Close()
			}
			_ = closeLogs()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
