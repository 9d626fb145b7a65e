package usecase

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/epsflow/radicador/internal/core/domain"
)

type rulesetProviderFake struct {
	rs  domain.Ruleset
	err error
}

func (p *rulesetProviderFake) ByOrganization(string) (domain.Ruleset, error) {
	if p.err != nil {
		return domain.Ruleset{}, p.err
	}
	return p.rs, nil
}

type fileClassifierFake struct {
	errs map[string]error

	mu    sync.Mutex
	calls []string
}

func (f *fileClassifierFake) Classify(_ context.Context, path string, _ domain.Ruleset) (*domain.Outcome, error) {
	base := filepath.Base(path)
	f.mu.Lock()
	f.calls = append(f.calls, base)
	f.mu.Unlock()
	if err := f.errs[base]; err != nil {
		return nil, err
	}
	return &domain.Outcome{
		ID:         base,
		SourcePath: path,
		PageCount:  1,
		StartedAt:  time.Now().UTC(),
	}, nil
}

type materializerFake struct {
	failOn string

	mu    sync.Mutex
	begun int
	order []string
}

func (m *materializerFake) BeginRun() { m.begun++ }

func (m *materializerFake) Materialize(_ context.Context, outcome *domain.Outcome, _ domain.Ruleset) ([]string, error) {
	base := filepath.Base(outcome.SourcePath)
	m.mu.Lock()
	m.order = append(m.order, base)
	m.mu.Unlock()
	if m.failOn != "" && base == m.failOn {
		return nil, domain.WrapError(domain.ErrWrite, "write category output", errors.New("disk full"))
	}
	return []string{"/out/" + base}, nil
}

type reportFake struct {
	calls   int
	summary domain.RunSummary
}

func (r *reportFake) WriteRunReport(_ context.Context, s domain.RunSummary) (string, error) {
	r.calls++
	r.summary = s
	return "/out/report.xlsx", nil
}

type recorderFake struct {
	mu    sync.Mutex
	files []domain.Outcome
	runs  int
}

func (r *recorderFake) ObserveFile(_ string, o domain.Outcome) {
	r.mu.Lock()
	r.files = append(r.files, o)
	r.mu.Unlock()
}

func (r *recorderFake) ObserveRun(domain.RunSummary) { r.runs++ }

func writeInputDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o644); err != nil {
			t.Fatalf("write input file: %v", err)
		}
	}
	return dir
}

func newRunner(provider *rulesetProviderFake, classifier *fileClassifierFake, materializer *materializerFake, report *reportFake, recorder *recorderFake, workers int) *RunBatchUseCase {
	return NewRunBatchUseCase(provider, classifier, materializer, report, recorder, workers, discardLogger())
}

func TestRunProcessesDirectoryInNameOrder(t *testing.T) {
	dir := writeInputDir(t, "b.pdf", "a.pdf", "c.PDF", "notes.txt")
	classifier := &fileClassifierFake{}
	materializer := &materializerFake{}
	report := &reportFake{}
	recorder := &recorderFake{}
	uc := newRunner(&rulesetProviderFake{rs: matchRuleset()}, classifier, materializer, report, recorder, 1)

	summary, err := uc.Run(context.Background(), "NUEVA EPS", dir)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantOrder := []string{"a.pdf", "b.pdf", "c.PDF"}
	if len(classifier.calls) != len(wantOrder) {
		t.Fatalf("expected %d files classified, got %v", len(wantOrder), classifier.calls)
	}
	for i, want := range wantOrder {
		if classifier.calls[i] != want {
			t.Fatalf("expected file %d to be %s, got %v", i, want, classifier.calls)
		}
	}
	if summary.FilesByStatus(domain.OutcomeProcessed) != 3 {
		t.Fatalf("expected 3 processed files, got %+v", summary.Outcomes)
	}
	if materializer.begun != 1 {
		t.Fatalf("expected one BeginRun, got %d", materializer.begun)
	}
	if report.calls != 1 {
		t.Fatalf("expected one report, got %d", report.calls)
	}
	if recorder.runs != 1 || len(recorder.files) != 3 {
		t.Fatalf("expected run and file observations, got runs=%d files=%d", recorder.runs, len(recorder.files))
	}
}

func TestRunSingleFileInput(t *testing.T) {
	dir := writeInputDir(t, "only.pdf")
	classifier := &fileClassifierFake{}
	uc := newRunner(&rulesetProviderFake{rs: matchRuleset()}, classifier, &materializerFake{}, &reportFake{}, &recorderFake{}, 1)

	summary, err := uc.Run(context.Background(), "NUEVA EPS", filepath.Join(dir, "only.pdf"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(summary.Outcomes) != 1 || summary.Outcomes[0].Status != domain.OutcomeProcessed {
		t.Fatalf("expected one processed outcome, got %+v", summary.Outcomes)
	}
}

func TestRunUnknownOrganization(t *testing.T) {
	providerErr := domain.WrapError(domain.ErrConfig, "resolve organization ruleset", errors.New("unknown organization"))
	classifier := &fileClassifierFake{}
	materializer := &materializerFake{}
	uc := newRunner(&rulesetProviderFake{err: providerErr}, classifier, materializer, &reportFake{}, &recorderFake{}, 1)

	_, err := uc.Run(context.Background(), "DESCONOCIDA", writeInputDir(t, "a.pdf"))
	if err == nil || !domain.IsKind(err, domain.ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
	if len(classifier.calls) != 0 {
		t.Fatalf("no file may be touched on an unknown organization, got %v", classifier.calls)
	}
	if materializer.begun != 0 {
		t.Fatalf("no run may begin on an unknown organization")
	}
}

func TestRunMissingInputPath(t *testing.T) {
	uc := newRunner(&rulesetProviderFake{rs: matchRuleset()}, &fileClassifierFake{}, &materializerFake{}, &reportFake{}, &recorderFake{}, 1)

	_, err := uc.Run(context.Background(), "NUEVA EPS", filepath.Join(t.TempDir(), "nope"))
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected missing input error, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrConfig) {
		t.Fatalf("expected config kind on listing failure, got %v", err)
	}
}

func TestRunSkipsUnreadableFileAndContinues(t *testing.T) {
	dir := writeInputDir(t, "a.pdf", "b.pdf", "c.pdf")
	classifier := &fileClassifierFake{errs: map[string]error{
		"b.pdf": domain.WrapError(domain.ErrDocumentOpen, "open document", errors.New("encrypted")),
	}}
	report := &reportFake{}
	uc := newRunner(&rulesetProviderFake{rs: matchRuleset()}, classifier, &materializerFake{}, report, &recorderFake{}, 1)

	summary, err := uc.Run(context.Background(), "NUEVA EPS", dir)
	if err != nil {
		t.Fatalf("a skipped file must not abort the run, got %v", err)
	}
	if summary.FilesByStatus(domain.OutcomeProcessed) != 2 || summary.FilesByStatus(domain.OutcomeSkipped) != 1 {
		t.Fatalf("expected 2 processed and 1 skipped, got %+v", summary.Outcomes)
	}
	skipped := summary.Outcomes[1]
	if skipped.Status != domain.OutcomeSkipped || skipped.Error == "" {
		t.Fatalf("expected b.pdf skipped with error, got %+v", skipped)
	}
	if report.calls != 1 {
		t.Fatalf("report must still be written, got %d calls", report.calls)
	}
}

func TestRunRecordsWriteFailureAndContinues(t *testing.T) {
	dir := writeInputDir(t, "a.pdf", "b.pdf")
	materializer := &materializerFake{failOn: "a.pdf"}
	uc := newRunner(&rulesetProviderFake{rs: matchRuleset()}, &fileClassifierFake{}, materializer, &reportFake{}, &recorderFake{}, 1)

	summary, err := uc.Run(context.Background(), "NUEVA EPS", dir)
	if err != nil {
		t.Fatalf("a write failure must not abort the run, got %v", err)
	}
	if summary.Outcomes[0].Status != domain.OutcomeFailed || summary.Outcomes[0].Error == "" {
		t.Fatalf("expected a.pdf failed, got %+v", summary.Outcomes[0])
	}
	if summary.Outcomes[1].Status != domain.OutcomeProcessed {
		t.Fatalf("expected b.pdf processed, got %+v", summary.Outcomes[1])
	}
}

func TestRunAbortsWhenOCRBackendUnavailable(t *testing.T) {
	dir := writeInputDir(t, "a.pdf", "b.pdf")
	classifier := &fileClassifierFake{errs: map[string]error{
		"a.pdf": domain.WrapError(domain.ErrOCRUnavailable, "recognize page", errors.New("circuit open")),
	}}
	report := &reportFake{}
	uc := newRunner(&rulesetProviderFake{rs: matchRuleset()}, classifier, &materializerFake{}, report, &recorderFake{}, 1)

	summary, err := uc.Run(context.Background(), "NUEVA EPS", dir)
	if err == nil || !domain.IsKind(err, domain.ErrOCRUnavailable) {
		t.Fatalf("expected run abort, got %v", err)
	}
	if summary == nil || len(summary.Outcomes) != 1 {
		t.Fatalf("expected the aborted file recorded before stopping, got %+v", summary)
	}
	if len(classifier.calls) != 1 {
		t.Fatalf("no further file may be classified after the abort, got %v", classifier.calls)
	}
	if report.calls != 0 {
		t.Fatalf("no report on an aborted run, got %d calls", report.calls)
	}
}

func TestRunParallelAbortObservesEveryFile(t *testing.T) {
	dir := writeInputDir(t, "a.pdf", "b.pdf", "c.pdf", "d.pdf")
	classifier := &fileClassifierFake{errs: map[string]error{
		"a.pdf": domain.WrapError(domain.ErrOCRUnavailable, "recognize page", errors.New("circuit open")),
	}}
	recorder := &recorderFake{}
	uc := newRunner(&rulesetProviderFake{rs: matchRuleset()}, classifier, &materializerFake{}, &reportFake{}, recorder, 2)

	summary, err := uc.Run(context.Background(), "NUEVA EPS", dir)
	if err == nil || !domain.IsKind(err, domain.ErrOCRUnavailable) {
		t.Fatalf("expected run abort, got %v", err)
	}
	if len(summary.Outcomes) != 4 {
		t.Fatalf("expected a slot per input file, got %d", len(summary.Outcomes))
	}
	if len(recorder.files) != len(summary.Outcomes) {
		t.Fatalf("every outcome must be observed, got %d observations for %d outcomes", len(recorder.files), len(summary.Outcomes))
	}
	observed := make(map[string]bool, len(recorder.files))
	for _, o := range recorder.files {
		observed[o.ID] = true
	}
	for _, o := range summary.Outcomes {
		if !observed[o.ID] {
			t.Fatalf("outcome for %s missing from observations", o.SourcePath)
		}
	}
}

func TestRunParallelKeepsOutcomeOrder(t *testing.T) {
	dir := writeInputDir(t, "a.pdf", "b.pdf", "c.pdf", "d.pdf")
	classifier := &fileClassifierFake{}
	recorder := &recorderFake{}
	uc := newRunner(&rulesetProviderFake{rs: matchRuleset()}, classifier, &materializerFake{}, &reportFake{}, recorder, 3)

	summary, err := uc.Run(context.Background(), "NUEVA EPS", dir)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(summary.Outcomes) != 4 {
		t.Fatalf("expected 4 outcomes, got %d", len(summary.Outcomes))
	}
	for i, want := range []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf"} {
		if filepath.Base(summary.Outcomes[i].SourcePath) != want {
			t.Fatalf("outcome %d out of order: got %s, want %s", i, summary.Outcomes[i].SourcePath, want)
		}
		if summary.Outcomes[i].Status != domain.OutcomeProcessed {
			t.Fatalf("expected outcome %d processed, got %+v", i, summary.Outcomes[i])
		}
	}
	if len(recorder.files) != 4 {
		t.Fatalf("expected 4 file observations, got %d", len(recorder.files))
	}
}
