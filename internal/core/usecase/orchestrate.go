package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/epsflow/radicador/internal/core/domain"
	"github.com/epsflow/radicador/internal/core/ports"
)

// RunBatchUseCase drives one classification run: resolve the ruleset,
// list the input files sorted by name, classify and materialize each
// one. Per-file failures are recorded and logged, never escalated; only
// configuration errors and a fully unavailable OCR backend abort the
// run.
type RunBatchUseCase struct {
	rulesets     ports.RulesetProvider
	classifier   ports.FileClassifier
	materializer ports.OutcomeMaterializer
	report       ports.ReportSink
	recorder     ports.RunRecorder
	workers      int
	log          *slog.Logger
}

func NewRunBatchUseCase(
	rulesets ports.RulesetProvider,
	classifier ports.FileClassifier,
	materializer ports.OutcomeMaterializer,
	report ports.ReportSink,
	recorder ports.RunRecorder,
	workers int,
	log *slog.Logger,
) *RunBatchUseCase {
	if workers < 1 {
		workers = 1
	}
	return &RunBatchUseCase{
		rulesets:     rulesets,
		classifier:   classifier,
		materializer: materializer,
		report:       report,
		recorder:     recorder,
		workers:      workers,
		log:          log,
	}
}

func (uc *RunBatchUseCase) Run(ctx context.Context, organization, inputPath string) (*domain.RunSummary, error) {
	ruleset, err := uc.rulesets.ByOrganization(organization)
	if err != nil {
		return nil, err
	}

	files, err := listInputFiles(inputPath)
	if err != nil {
		return nil, domain.WrapError(domain.ErrConfig, "list input files", err)
	}

	summary := &domain.RunSummary{
		RunID:        uuid.NewString(),
		Organization: ruleset.Organization,
		InputPath:    inputPath,
		StartedAt:    time.Now().UTC(),
	}
	log := uc.log.With("run_id", summary.RunID, "organization", ruleset.Organization)
	log.Info("run started", "input", inputPath, "files", len(files), "workers", uc.workers)

	uc.materializer.BeginRun()

	var fatal error
	if uc.workers <= 1 || len(files) < 2 {
		summary.Outcomes, fatal = uc.runSequential(ctx, log, ruleset, files)
	} else {
		summary.Outcomes, fatal = uc.runParallel(ctx, log, ruleset, files)
	}
	summary.FinishedAt = time.Now().UTC()

	if uc.recorder != nil {
		uc.recorder.ObserveRun(*summary)
	}

	log.Info("run finished",
		"files_processed", summary.FilesByStatus(domain.OutcomeProcessed),
		"files_skipped", summary.FilesByStatus(domain.OutcomeSkipped),
		"files_failed", summary.FilesByStatus(domain.OutcomeFailed),
		"pages", summary.PagesTotal(),
		"unresolved_pages", summary.PagesUnresolved(),
	)

	if fatal != nil {
		return summary, fatal
	}

	if uc.report != nil {
		path, err := uc.report.WriteRunReport(ctx, *summary)
		if err != nil {
			log.Error("run report not written", "error", err)
		} else {
			log.Info("run report written", "path", path)
		}
	}
	return summary, nil
}

func (uc *RunBatchUseCase) runSequential(ctx context.Context, log *slog.Logger, ruleset domain.Ruleset, files []string) ([]domain.Outcome, error) {
	outcomes := make([]domain.Outcome, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		outcome, err := uc.processFile(ctx, log, ruleset, path)
		outcomes = append(outcomes, outcome)
		if err != nil {
			return outcomes, err
		}
	}
	return outcomes, nil
}

// runParallel processes files on a worker pool. Outcomes keep input
// order; append order inside shared category outputs follows completion
// order instead, which is the documented cost of workers > 1.
func (uc *RunBatchUseCase) runParallel(ctx context.Context, log *slog.Logger, ruleset domain.Ruleset, files []string) ([]domain.Outcome, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool, err := ants.NewPool(uc.workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	outcomes := make([]domain.Outcome, len(files))
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		fatal error
	)
	for i, path := range files {
		i, path := i, path
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if runCtx.Err() != nil {
				aborted := abortedOutcome(path, runCtx.Err())
				uc.observe(ruleset.Organization, aborted)
				outcomes[i] = aborted
				return
			}
			outcome, err := uc.processFile(runCtx, log, ruleset, path)
			outcomes[i] = outcome
			if err != nil {
				mu.Lock()
				if fatal == nil {
					fatal = err
				}
				mu.Unlock()
				cancel()
			}
		})
		if submitErr != nil {
			wg.Done()
			aborted := abortedOutcome(path, submitErr)
			uc.observe(ruleset.Organization, aborted)
			outcomes[i] = aborted
			mu.Lock()
			if fatal == nil {
				fatal = fmt.Errorf("submit file task: %w", submitErr)
			}
			mu.Unlock()
			cancel()
		}
	}
	wg.Wait()
	return outcomes, fatal
}

// processFile never returns an error for per-file problems; those are
// folded into the outcome status. The error return is reserved for
// conditions that must abort the batch.
func (uc *RunBatchUseCase) processFile(ctx context.Context, log *slog.Logger, ruleset domain.Ruleset, path string) (domain.Outcome, error) {
	base := filepath.Base(path)
	log.Info("processing file", "file", base)

	outcome, err := uc.classifier.Classify(ctx, path, ruleset)
	if err != nil {
		if domain.IsKind(err, domain.ErrOCRUnavailable) || errors.Is(err, context.Canceled) {
			aborted := abortedOutcome(path, err)
			uc.observe(ruleset.Organization, aborted)
			return aborted, err
		}
		log.Error("skipping unreadable file", "file", base, "error", err)
		skipped := abortedOutcome(path, err)
		uc.observe(ruleset.Organization, skipped)
		return skipped, nil
	}

	written, err := uc.materializer.Materialize(ctx, outcome, ruleset)
	outcome.Written = written
	if err != nil {
		log.Error("output write failed", "file", base, "error", err)
		outcome.Status = domain.OutcomeFailed
		outcome.Error = err.Error()
	} else {
		outcome.Status = domain.OutcomeProcessed
	}
	outcome.FinishedAt = time.Now().UTC()

	log.Info("file finished",
		"file", base,
		"status", outcome.Status,
		"pages", outcome.PageCount,
		"groups", len(outcome.Groups),
		"unresolved", len(outcome.Unresolved),
	)
	uc.observe(ruleset.Organization, *outcome)
	return *outcome, nil
}

func (uc *RunBatchUseCase) observe(organization string, outcome domain.Outcome) {
	if uc.recorder != nil {
		uc.recorder.ObserveFile(organization, outcome)
	}
}

func abortedOutcome(path string, err error) domain.Outcome {
	now := time.Now().UTC()
	return domain.Outcome{
		ID:         uuid.NewString(),
		SourcePath: path,
		Status:     domain.OutcomeSkipped,
		Error:      err.Error(),
		StartedAt:  now,
		FinishedAt: now,
	}
}

func listInputFiles(inputPath string) ([]string, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{inputPath}, nil
	}

	entries, err := os.ReadDir(inputPath)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		files = append(files, filepath.Join(inputPath, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}
