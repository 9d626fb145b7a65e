package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/epsflow/radicador/internal/bootstrap"
	"github.com/epsflow/radicador/internal/config"
	"github.com/epsflow/radicador/internal/core/domain"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitConfig      = 2
	exitInput       = 3
	exitEnvironment = 4
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("radicador", flag.ContinueOnError)
	output := flags.String("output", "", "output directory (overrides OUTPUT_DIR)")
	rulesetsPath := flags.String("rulesets", "", "ruleset catalog file (overrides RULESETS_PATH)")
	workers := flags.Int("workers", 0, "parallel file workers (overrides WORKERS)")
	report := flags.String("report", "", "xlsx report path (overrides REPORT_PATH)")
	threshold := flags.Int("threshold", 0, "fuzzy match threshold 1..100 (overrides MATCH_THRESHOLD)")
	noOCR := flags.Bool("no-ocr", false, "disable the ocr fallback")
	flags.Usage = func() {
		out := flags.Output()
		fmt.Fprintln(out, "usage: radicador [flags] <organization> <input-path>")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "input-path is a PDF file or a directory of PDF files.")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "flags:")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return exitFailure
	}
	if flags.NArg() != 2 {
		flags.Usage()
		return exitFailure
	}
	organization := flags.Arg(0)
	inputPath := flags.Arg(1)

	cfg := config.Load()
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "output":
			cfg.OutputDir = *output
		case "rulesets":
			cfg.RulesetsPath = *rulesetsPath
		case "workers":
			cfg.Workers = *workers
		case "report":
			cfg.ReportPath = *report
		case "threshold":
			cfg.MatchThreshold = *threshold
		case "no-ocr":
			cfg.OCREnabled = !*noOCR
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "radicador: %v\n", err)
		return bootstrapExitCode(err)
	}
	defer app.Close()

	summary, err := app.Runner.Run(ctx, organization, inputPath)
	if err != nil {
		app.Logger.Error("run failed", "error", err)
		fmt.Fprintf(os.Stderr, "radicador: %v\n", err)
		return runExitCode(err)
	}

	printSummary(summary)

	if cfg.MetricsTextfile != "" {
		if err := app.Metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			app.Logger.Warn("metrics textfile not written", "error", err)
		}
	}

	// Per-file failures are recorded in the summary and the report but do
	// not fail the process. The batch is best effort.
	return exitOK
}

func bootstrapExitCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrConfig):
		return exitConfig
	case errors.Is(err, domain.ErrOCRUnavailable):
		return exitEnvironment
	default:
		return exitFailure
	}
}

func runExitCode(err error) int {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return exitInput
	case errors.Is(err, domain.ErrConfig):
		return exitConfig
	case errors.Is(err, domain.ErrOCRUnavailable):
		return exitEnvironment
	default:
		return exitFailure
	}
}

func printSummary(s *domain.RunSummary) {
	fmt.Printf("run %s: %d processed, %d skipped, %d failed, %d/%d pages unresolved\n",
		s.RunID,
		s.FilesByStatus(domain.OutcomeProcessed),
		s.FilesByStatus(domain.OutcomeSkipped),
		s.FilesByStatus(domain.OutcomeFailed),
		s.PagesUnresolved(),
		s.PagesTotal(),
	)
	for _, path := range s.WrittenPaths() {
		fmt.Println("  " + path)
	}
}
