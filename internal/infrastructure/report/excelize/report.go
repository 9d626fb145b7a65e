// Package excelize writes the end-of-run report as an xlsx workbook,
// one row per processed file.
package excelize

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/epsflow/radicador/internal/core/domain"
)

const (
	summarySheet = "Summary"
	filesSheet   = "Files"
)

type Reporter struct {
	path string
}

func NewReporter(path string) *Reporter {
	return &Reporter{path: path}
}

func (r *Reporter) WriteRunReport(_ context.Context, summary domain.RunSummary) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return "", fmt.Errorf("rename summary sheet: %w", err)
	}
	if err := r.writeSummary(f, summary); err != nil {
		return "", err
	}
	if err := r.writeFiles(f, summary); err != nil {
		return "", err
	}

	if err := f.SaveAs(r.path); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return r.path, nil
}

func (r *Reporter) writeSummary(f *excelize.File, summary domain.RunSummary) error {
	rows := [][]interface{}{
		{"Run ID", summary.RunID},
		{"Organization", summary.Organization},
		{"Input", summary.InputPath},
		{"Started", summary.StartedAt.Format("2006-01-02 15:04:05")},
		{"Finished", summary.FinishedAt.Format("2006-01-02 15:04:05")},
		{"Files processed", summary.FilesByStatus(domain.OutcomeProcessed)},
		{"Files skipped", summary.FilesByStatus(domain.OutcomeSkipped)},
		{"Files failed", summary.FilesByStatus(domain.OutcomeFailed)},
		{"Pages total", summary.PagesTotal()},
		{"Pages unresolved", summary.PagesUnresolved()},
		{"Outputs written", len(summary.WrittenPaths())},
	}
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}
	return f.SetColWidth(summarySheet, "A", "B", 36)
}

func (r *Reporter) writeFiles(f *excelize.File, summary domain.RunSummary) error {
	if _, err := f.NewSheet(filesSheet); err != nil {
		return fmt.Errorf("create files sheet: %w", err)
	}

	header := []interface{}{
		"File", "Status", "Pages", "Exact", "Fuzzy", "Unresolved",
		"Patient ID", "Invoice", "Outputs", "Error",
	}
	if err := f.SetSheetRow(filesSheet, "A1", &header); err != nil {
		return fmt.Errorf("write files header: %w", err)
	}

	for i, o := range summary.Outcomes {
		outputs := make([]string, 0, len(o.Written))
		for _, p := range o.Written {
			outputs = append(outputs, filepath.Base(p))
		}
		row := []interface{}{
			filepath.Base(o.SourcePath),
			string(o.Status),
			o.PageCount,
			o.ExactPages,
			o.FuzzyPages,
			len(o.Unresolved),
			o.PatientID,
			o.Invoice,
			strings.Join(outputs, ", "),
			o.Error,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(filesSheet, cell, &row); err != nil {
			return fmt.Errorf("write files row: %w", err)
		}
	}

	if err := f.SetColWidth(filesSheet, "A", "A", 40); err != nil {
		return err
	}
	return f.SetColWidth(filesSheet, "I", "J", 48)
}
