package ports

import (
	"context"

	"github.com/epsflow/radicador/internal/core/domain"
)

// DocumentBackend opens source PDF files for reading.
type DocumentBackend interface {
	Open(ctx context.Context, path string) (Document, error)
}

// Document is one open source PDF. Page indexes are 0-based.
type Document interface {
	PageCount() int
	PageText(ctx context.Context, pageIndex int) (string, error)
	RenderPage(ctx context.Context, pageIndex int) ([]byte, error)
	Close() error
}

// OCREngine recognizes text on a rendered page image.
type OCREngine interface {
	Name() string
	Recognize(ctx context.Context, image []byte) (string, error)
	Close() error
}

// SimilarityScorer rates how close a keyword is to a body of text on a
// 0..100 scale.
type SimilarityScorer interface {
	Score(text, keyword string) int
}

// Assembler writes an ordered page selection out as one PDF file.
type Assembler interface {
	WritePages(ctx context.Context, pages []domain.Page, destPath string, appendTo bool) error
}

// RulesetProvider resolves an organization name to its ruleset.
// Lookup is case-insensitive.
type RulesetProvider interface {
	ByOrganization(name string) (domain.Ruleset, error)
}

// OutputStore manages the run's output directory tree.
type OutputStore interface {
	Resolve(rel string) string
	EnsureDir(rel string) (string, error)
	CopyIn(ctx context.Context, srcPath, rel string) (string, error)
}

// FileClassifier classifies one source file into document groups.
type FileClassifier interface {
	Classify(ctx context.Context, path string, ruleset domain.Ruleset) (*domain.Outcome, error)
}

// OutcomeMaterializer writes one outcome's groups to the output tree.
// BeginRun resets the append bookkeeping between runs.
type OutcomeMaterializer interface {
	BeginRun()
	Materialize(ctx context.Context, outcome *domain.Outcome, ruleset domain.Ruleset) ([]string, error)
}

// ReportSink persists the end-of-run report.
type ReportSink interface {
	WriteRunReport(ctx context.Context, summary domain.RunSummary) (string, error)
}

// RunRecorder collects pipeline statistics as files finish.
type RunRecorder interface {
	ObserveFile(organization string, outcome domain.Outcome)
	ObserveRun(summary domain.RunSummary)
}
