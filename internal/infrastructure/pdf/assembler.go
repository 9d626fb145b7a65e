package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/epsflow/radicador/internal/core/domain"
)

// Assembler materializes page selections as output PDFs with pdfcpu.
// Pages are first collected per source file into temporary parts, then
// merged into the destination; the temporaries never outlive the call.
type Assembler struct {
	conf *model.Configuration
}

func NewAssembler() *Assembler {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Assembler{conf: conf}
}

func (a *Assembler) WritePages(_ context.Context, pages []domain.Page, destPath string, appendTo bool) error {
	if len(pages) == 0 {
		return errors.New("no pages to write")
	}

	tmpDir, err := os.MkdirTemp("", "radicador-assemble-*")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	runs := pageRuns(pages)
	parts := make([]string, 0, len(runs))
	for i, run := range runs {
		part := filepath.Join(tmpDir, fmt.Sprintf("part_%03d.pdf", i))
		if err := api.CollectFile(run.source, part, run.selection(), a.conf); err != nil {
			return fmt.Errorf("collect pages from %s: %w", filepath.Base(run.source), err)
		}
		parts = append(parts, part)
	}

	if appendTo {
		if err := api.MergeAppendFile(parts, destPath, false, a.conf); err != nil {
			return fmt.Errorf("append to %s: %w", filepath.Base(destPath), err)
		}
		return nil
	}

	// First write of this name in the run replaces leftovers from
	// earlier runs.
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("replace %s: %w", filepath.Base(destPath), err)
	}
	if err := api.MergeCreateFile(parts, destPath, false, a.conf); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(destPath), err)
	}
	return nil
}

// pageRun is a maximal run of consecutive selected pages sharing one
// source file. Keeping runs intact preserves the recorded page order in
// the merged output.
type pageRun struct {
	source string
	pages  []int // 1-based
}

func (r pageRun) selection() []string {
	sel := make([]string, 0, len(r.pages))
	for _, p := range r.pages {
		sel = append(sel, strconv.Itoa(p))
	}
	return sel
}

func pageRuns(pages []domain.Page) []pageRun {
	var runs []pageRun
	for _, page := range pages {
		n := len(runs)
		if n > 0 && runs[n-1].source == page.SourcePath {
			runs[n-1].pages = append(runs[n-1].pages, page.Index+1)
			continue
		}
		runs = append(runs, pageRun{source: page.SourcePath, pages: []int{page.Index + 1}})
	}
	return runs
}
