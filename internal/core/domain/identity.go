package domain

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	invoicePattern   = regexp.MustCompile(`\d+`)
	patientIDPattern = regexp.MustCompile(`(TI|CC|RC)-(\d{5,15})`)
)

// InvoiceFromPath returns the first digit run in the file's parent
// directory name. Batch folders are named after the invoice they bill.
func InvoiceFromPath(path string) string {
	folder := filepath.Base(filepath.Dir(path))
	return invoicePattern.FindString(folder)
}

// PatientIDFromText finds the first identifier of the form TI-12345,
// CC-12345 or RC-12345 in extracted text and returns its numeric part.
// OCR tends to scatter spaces inside identifiers, so whitespace is
// removed before scanning.
func PatientIDFromText(text string) string {
	compact := strings.Join(strings.Fields(text), "")
	m := patientIDPattern.FindStringSubmatch(compact)
	if m == nil {
		return ""
	}
	return m[2]
}
