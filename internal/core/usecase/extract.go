package usecase

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/epsflow/radicador/internal/core/domain"
	"github.com/epsflow/radicador/internal/core/ports"
)

// ExtractTextUseCase recovers the text of one page: text layer first,
// OCR on the rendered page when the layer is empty or unreadable.
type ExtractTextUseCase struct {
	ocr ports.OCREngine
	log *slog.Logger
}

// NewExtractTextUseCase builds the extractor. A nil engine disables the
// OCR fallback; pages without a text layer then stay empty.
func NewExtractTextUseCase(ocr ports.OCREngine, log *slog.Logger) *ExtractTextUseCase {
	return &ExtractTextUseCase{ocr: ocr, log: log}
}

// Extract returns the page with its text filled in. An empty Text with
// a nil error means neither source produced anything; the caller decides
// what to do with such pages. Errors are page-scoped except when they
// carry domain.ErrOCRUnavailable.
func (uc *ExtractTextUseCase) Extract(ctx context.Context, doc ports.Document, sourcePath string, pageIndex int) (domain.Page, error) {
	page := domain.Page{
		SourcePath: sourcePath,
		Index:      pageIndex,
		Source:     domain.SourceNone,
	}

	text, err := doc.PageText(ctx, pageIndex)
	if err != nil {
		uc.log.Warn("text layer unreadable",
			"file", filepath.Base(sourcePath),
			"page", pageIndex+1,
			"error", err,
		)
	} else if trimmed := strings.TrimSpace(text); trimmed != "" {
		page.Text = trimmed
		page.Source = domain.SourceDirect
		return page, nil
	}

	if uc.ocr == nil {
		return page, nil
	}

	image, err := doc.RenderPage(ctx, pageIndex)
	if err != nil {
		return page, domain.WrapError(domain.ErrExtractionFailed, "render page for ocr", err)
	}

	recognized, err := uc.ocr.Recognize(ctx, image)
	if err != nil {
		if domain.IsKind(err, domain.ErrOCRUnavailable) {
			return page, err
		}
		return page, domain.WrapError(domain.ErrExtractionFailed, "recognize page", err)
	}

	trimmed := strings.TrimSpace(recognized)
	if trimmed == "" {
		return page, nil
	}

	uc.log.Info("page recovered via ocr",
		"file", filepath.Base(sourcePath),
		"page", pageIndex+1,
		"engine", uc.ocr.Name(),
		"chars", len(trimmed),
	)
	page.Text = trimmed
	page.Source = domain.SourceOCR
	return page, nil
}
