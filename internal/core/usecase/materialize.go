package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/epsflow/radicador/internal/core/domain"
	"github.com/epsflow/radicador/internal/core/ports"
)

const (
	// PolicyCopy copies a source file whose pages are all unresolved
	// into the review directory next to the review PDF.
	PolicyCopy = "copy"
	// PolicyLeave keeps such sources untouched; only the review PDF
	// receives their pages.
	PolicyLeave = "leave"

	reviewDir    = "review"
	reviewSuffix = "REVISION"
)

// MaterializeOptions carries the write-side policy knobs.
type MaterializeOptions struct {
	UnresolvedPolicy string
	Hospital         domain.Hospital
}

// MaterializeOutcomeUseCase turns one outcome into output PDFs. The
// first write of a name in a run replaces whatever an earlier run left
// behind; later writes in the same run append. A mutex serializes
// writes so parallel file workers never append to the same output
// concurrently.
type MaterializeOutcomeUseCase struct {
	assembler ports.Assembler
	store     ports.OutputStore
	opts      MaterializeOptions
	log       *slog.Logger

	mu      sync.Mutex
	written map[string]bool
}

func NewMaterializeOutcomeUseCase(
	assembler ports.Assembler,
	store ports.OutputStore,
	opts MaterializeOptions,
	log *slog.Logger,
) *MaterializeOutcomeUseCase {
	if opts.UnresolvedPolicy != PolicyLeave {
		opts.UnresolvedPolicy = PolicyCopy
	}
	return &MaterializeOutcomeUseCase{
		assembler: assembler,
		store:     store,
		opts:      opts,
		log:       log,
		written:   make(map[string]bool),
	}
}

// BeginRun resets the append bookkeeping. Call once per run before the
// first Materialize.
func (uc *MaterializeOutcomeUseCase) BeginRun() {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.written = make(map[string]bool)
}

func (uc *MaterializeOutcomeUseCase) Materialize(ctx context.Context, outcome *domain.Outcome, ruleset domain.Ruleset) ([]string, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	var paths []string
	for _, group := range outcome.Groups {
		name := outputFilename(ruleset, group.Category, outcome, uc.opts.Hospital)
		dest := uc.store.Resolve(name)
		if err := uc.writePages(ctx, group.Pages, name, dest); err != nil {
			return paths, domain.WrapError(domain.ErrWrite, "write category output", err)
		}
		paths = append(paths, dest)
		uc.log.Info("group written",
			"category", group.Category,
			"pages", len(group.Pages),
			"output", name,
		)
	}

	if len(outcome.Unresolved) == 0 {
		return paths, nil
	}

	if _, err := uc.store.EnsureDir(reviewDir); err != nil {
		return paths, domain.WrapError(domain.ErrWrite, "create review dir", err)
	}

	name := filepath.Join(reviewDir, reviewFilename(ruleset))
	dest := uc.store.Resolve(name)
	pages := make([]domain.Page, 0, len(outcome.Unresolved))
	for _, u := range outcome.Unresolved {
		pages = append(pages, u.Page)
	}
	if err := uc.writePages(ctx, pages, name, dest); err != nil {
		return paths, domain.WrapError(domain.ErrWrite, "write review output", err)
	}
	paths = append(paths, dest)
	uc.log.Warn("unresolved pages sent to review",
		"file", filepath.Base(outcome.SourcePath),
		"pages", len(pages),
		"output", name,
	)

	if uc.opts.UnresolvedPolicy == PolicyCopy && len(outcome.Unresolved) == outcome.PageCount && outcome.PageCount > 0 {
		copied, err := uc.store.CopyIn(ctx, outcome.SourcePath, reviewDir)
		if err != nil {
			return paths, domain.WrapError(domain.ErrWrite, "copy unclassified source", err)
		}
		paths = append(paths, copied)
	}

	return paths, nil
}

func (uc *MaterializeOutcomeUseCase) writePages(ctx context.Context, pages []domain.Page, name, dest string) error {
	if err := uc.assembler.WritePages(ctx, pages, dest, uc.written[name]); err != nil {
		return err
	}
	uc.written[name] = true
	return nil
}

func outputFilename(ruleset domain.Ruleset, category string, outcome *domain.Outcome, hospital domain.Hospital) string {
	pattern := ruleset.FilenamePattern
	if pattern == "" {
		pattern = domain.DefaultFilenamePattern
	}
	name := strings.NewReplacer(
		"{org}", ruleset.Organization,
		"{category}", category,
		"{nit}", hospital.NIT,
		"{prefix}", hospital.Prefix,
		"{invoice}", outcome.Invoice,
	).Replace(pattern)
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		name += ".pdf"
	}
	return sanitizeFilename(name)
}

func reviewFilename(ruleset domain.Ruleset) string {
	return sanitizeFilename(fmt.Sprintf("%s_%s.pdf", ruleset.Organization, reviewSuffix))
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == ".pdf" {
		return "document.pdf"
	}
	return base
}
