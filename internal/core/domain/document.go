package domain

import "time"

type TextSource string

const (
	SourceDirect TextSource = "direct"
	SourceOCR    TextSource = "ocr"
	SourceNone   TextSource = "none"
)

type MatchKind string

const (
	MatchExact MatchKind = "exact"
	MatchFuzzy MatchKind = "fuzzy"
	MatchNone  MatchKind = "none"
)

// Page is one page of one source file together with the text recovered
// for it. Text is extracted once per run and reused.
type Page struct {
	SourcePath string     `json:"source_path"`
	Index      int        `json:"index"`
	Text       string     `json:"-"`
	Source     TextSource `json:"source"`
}

// MatchResult associates extracted text with at most one category.
// Kind MatchNone implies an empty Category; MatchExact implies score 100.
type MatchResult struct {
	Category string    `json:"category,omitempty"`
	Kind     MatchKind `json:"kind"`
	Score    int       `json:"score"`
}

type UnresolvedReason string

const (
	ReasonExtractionFailed UnresolvedReason = "extraction_failed"
	ReasonBelowThreshold   UnresolvedReason = "below_threshold"
	ReasonNoText           UnresolvedReason = "no_text"
)

// UnresolvedPage is a page no category could be assigned to. It is kept
// for the review output, never dropped.
type UnresolvedPage struct {
	Page   Page             `json:"page"`
	Reason UnresolvedReason `json:"reason"`
	Score  int              `json:"score"`
}

// DocumentGroup collects the pages classified into one category, in the
// order they were seen. One group becomes one output PDF per run.
type DocumentGroup struct {
	Organization string `json:"organization"`
	Category     string `json:"category"`
	Pages        []Page `json:"pages"`
}

type OutcomeStatus string

const (
	OutcomeProcessed OutcomeStatus = "processed"
	OutcomeSkipped   OutcomeStatus = "skipped"
	OutcomeFailed    OutcomeStatus = "failed"
)

// Outcome records the processing of one input file.
type Outcome struct {
	ID         string           `json:"id"`
	SourcePath string           `json:"source_path"`
	PageCount  int              `json:"page_count"`
	Groups     []DocumentGroup  `json:"groups,omitempty"`
	Unresolved []UnresolvedPage `json:"unresolved,omitempty"`
	ExactPages int              `json:"exact_pages"`
	FuzzyPages int              `json:"fuzzy_pages"`
	PatientID  string           `json:"patient_id,omitempty"`
	Invoice    string           `json:"invoice,omitempty"`
	Written    []string         `json:"written,omitempty"`
	Status     OutcomeStatus    `json:"status"`
	Error      string           `json:"error,omitempty"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
}

// RunSummary aggregates the outcomes of one batch invocation.
type RunSummary struct {
	RunID        string    `json:"run_id"`
	Organization string    `json:"organization"`
	InputPath    string    `json:"input_path"`
	Outcomes     []Outcome `json:"outcomes"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

func (s *RunSummary) FilesByStatus(status OutcomeStatus) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

func (s *RunSummary) PagesTotal() int {
	n := 0
	for _, o := range s.Outcomes {
		n += o.PageCount
	}
	return n
}

func (s *RunSummary) PagesUnresolved() int {
	n := 0
	for _, o := range s.Outcomes {
		n += len(o.Unresolved)
	}
	return n
}

// WrittenPaths returns every output file touched during the run,
// deduplicated, in first-written order.
func (s *RunSummary) WrittenPaths() []string {
	seen := make(map[string]bool)
	var paths []string
	for _, o := range s.Outcomes {
		for _, p := range o.Written {
			if seen[p] {
				continue
			}
			seen[p] = true
			paths = append(paths, p)
		}
	}
	return paths
}
