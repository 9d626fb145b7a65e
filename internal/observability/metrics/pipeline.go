package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/epsflow/radicador/internal/core/domain"
)

// PipelineMetrics collects batch counters on a private registry. The
// pipeline is a short-lived process, so instead of a scrape endpoint
// the registry is dumped to a textfile at the end of the run for the
// node exporter's textfile collector to pick up.
type PipelineMetrics struct {
	registry *prometheus.Registry

	pagesTotal      *prometheus.CounterVec
	matchesTotal    *prometheus.CounterVec
	unresolvedTotal *prometheus.CounterVec
	filesTotal      *prometheus.CounterVec
	outputsTotal    prometheus.Counter
	ocrTotal        *prometheus.CounterVec
	ocrDuration     prometheus.Histogram
	fileDuration    prometheus.Histogram
	runDuration     prometheus.Histogram
}

func NewPipelineMetrics() *PipelineMetrics {
	registry := prometheus.NewRegistry()

	pagesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "radicador",
			Subsystem: "pipeline",
			Name:      "pages_total",
			Help:      "Total pages seen by text source.",
		},
		[]string{"source"},
	)
	matchesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "radicador",
			Subsystem: "pipeline",
			Name:      "matches_total",
			Help:      "Total classified pages by match kind.",
		},
		[]string{"kind"},
	)
	unresolvedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "radicador",
			Subsystem: "pipeline",
			Name:      "unresolved_pages_total",
			Help:      "Total unresolved pages by reason.",
		},
		[]string{"reason"},
	)
	filesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "radicador",
			Subsystem: "pipeline",
			Name:      "files_total",
			Help:      "Total input files by organization and status.",
		},
		[]string{"organization", "status"},
	)
	outputsTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "radicador",
			Subsystem: "pipeline",
			Name:      "output_writes_total",
			Help:      "Total output PDF writes, appends included.",
		},
	)
	ocrTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "radicador",
			Subsystem: "pipeline",
			Name:      "ocr_requests_total",
			Help:      "Total OCR recognitions by status.",
		},
		[]string{"status"},
	)
	ocrDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "radicador",
			Subsystem: "pipeline",
			Name:      "ocr_duration_seconds",
			Help:      "Page recognition duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 40, 60, 120},
		},
	)
	fileDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "radicador",
			Subsystem: "pipeline",
			Name:      "file_duration_seconds",
			Help:      "Per-file processing duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	runDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "radicador",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Whole batch duration in seconds.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
	)

	registry.MustRegister(
		pagesTotal, matchesTotal, unresolvedTotal, filesTotal,
		outputsTotal, ocrTotal, ocrDuration, fileDuration, runDuration,
	)

	return &PipelineMetrics{
		registry:        registry,
		pagesTotal:      pagesTotal,
		matchesTotal:    matchesTotal,
		unresolvedTotal: unresolvedTotal,
		filesTotal:      filesTotal,
		outputsTotal:    outputsTotal,
		ocrTotal:        ocrTotal,
		ocrDuration:     ocrDuration,
		fileDuration:    fileDuration,
		runDuration:     runDuration,
	}
}

func (m *PipelineMetrics) ObserveFile(organization string, outcome domain.Outcome) {
	m.filesTotal.WithLabelValues(organization, string(outcome.Status)).Inc()
	if !outcome.FinishedAt.Before(outcome.StartedAt) {
		m.fileDuration.Observe(outcome.FinishedAt.Sub(outcome.StartedAt).Seconds())
	}

	for _, group := range outcome.Groups {
		for _, page := range group.Pages {
			m.pagesTotal.WithLabelValues(string(page.Source)).Inc()
		}
	}
	for _, u := range outcome.Unresolved {
		m.pagesTotal.WithLabelValues(string(u.Page.Source)).Inc()
		m.unresolvedTotal.WithLabelValues(string(u.Reason)).Inc()
	}

	m.matchesTotal.WithLabelValues(string(domain.MatchExact)).Add(float64(outcome.ExactPages))
	m.matchesTotal.WithLabelValues(string(domain.MatchFuzzy)).Add(float64(outcome.FuzzyPages))
	m.outputsTotal.Add(float64(len(outcome.Written)))
}

func (m *PipelineMetrics) ObserveRun(summary domain.RunSummary) {
	if !summary.FinishedAt.Before(summary.StartedAt) {
		m.runDuration.Observe(summary.FinishedAt.Sub(summary.StartedAt).Seconds())
	}
}

func (m *PipelineMetrics) ObserveOCR(duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.ocrTotal.WithLabelValues(status).Inc()
	m.ocrDuration.Observe(duration.Seconds())
}

// WriteTextfile dumps the registry in the exposition format to path.
func (m *PipelineMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
