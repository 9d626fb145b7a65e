package usecase

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/epsflow/radicador/internal/core/domain"
	"github.com/epsflow/radicador/internal/core/ports"
)

// ClassifyDocumentUseCase runs extraction and matching over every page
// of one source file and reconciles the results into document groups
// plus an unresolved list. Page failures shrink the classified output;
// only a file that cannot be opened is fatal for that file.
type ClassifyDocumentUseCase struct {
	backend   ports.DocumentBackend
	extractor *ExtractTextUseCase
	matcher   *MatchKeywordsUseCase
	log       *slog.Logger
}

func NewClassifyDocumentUseCase(
	backend ports.DocumentBackend,
	extractor *ExtractTextUseCase,
	matcher *MatchKeywordsUseCase,
	log *slog.Logger,
) *ClassifyDocumentUseCase {
	return &ClassifyDocumentUseCase{
		backend:   backend,
		extractor: extractor,
		matcher:   matcher,
		log:       log,
	}
}

func (uc *ClassifyDocumentUseCase) Classify(ctx context.Context, path string, ruleset domain.Ruleset) (*domain.Outcome, error) {
	outcome := &domain.Outcome{
		ID:         uuid.NewString(),
		SourcePath: path,
		Invoice:    domain.InvoiceFromPath(path),
		StartedAt:  time.Now().UTC(),
	}

	doc, err := uc.backend.Open(ctx, path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrDocumentOpen, "open document", err)
	}
	defer doc.Close()

	outcome.PageCount = doc.PageCount()

	groups := make(map[string]*domain.DocumentGroup)
	var order []string

	for i := 0; i < outcome.PageCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := uc.extractor.Extract(ctx, doc, path, i)
		switch {
		case err != nil && domain.IsKind(err, domain.ErrOCRUnavailable):
			return nil, err
		case err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil:
			return nil, err
		case err != nil:
			uc.log.Error("page extraction failed",
				"file", filepath.Base(path),
				"page", i+1,
				"error", err,
			)
			outcome.Unresolved = append(outcome.Unresolved, domain.UnresolvedPage{
				Page:   page,
				Reason: domain.ReasonExtractionFailed,
			})
			continue
		}

		if outcome.PatientID == "" {
			outcome.PatientID = domain.PatientIDFromText(page.Text)
		}

		if page.Text == "" {
			outcome.Unresolved = append(outcome.Unresolved, domain.UnresolvedPage{
				Page:   page,
				Reason: domain.ReasonNoText,
			})
			continue
		}

		result := uc.matcher.Match(page.Text, ruleset)
		if result.Kind == domain.MatchNone {
			uc.log.Warn("page below match threshold",
				"file", filepath.Base(path),
				"page", i+1,
				"best_score", result.Score,
			)
			outcome.Unresolved = append(outcome.Unresolved, domain.UnresolvedPage{
				Page:   page,
				Reason: domain.ReasonBelowThreshold,
				Score:  result.Score,
			})
			continue
		}

		if result.Kind == domain.MatchExact {
			outcome.ExactPages++
		} else {
			outcome.FuzzyPages++
		}

		group, ok := groups[result.Category]
		if !ok {
			group = &domain.DocumentGroup{
				Organization: ruleset.Organization,
				Category:     result.Category,
			}
			groups[result.Category] = group
			order = append(order, result.Category)
		}
		group.Pages = append(group.Pages, page)

		uc.log.Info("page classified",
			"file", filepath.Base(path),
			"page", i+1,
			"category", result.Category,
			"kind", result.Kind,
			"score", result.Score,
			"source", page.Source,
		)
	}

	outcome.Groups = make([]domain.DocumentGroup, 0, len(order))
	for _, category := range order {
		outcome.Groups = append(outcome.Groups, *groups[category])
	}
	return outcome, nil
}
