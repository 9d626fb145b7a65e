package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	runLogName   = "radicador.log"
	errorLogName = "radicador_error.log"
)

// New builds the pipeline logger. Records always go to stdout; when dir
// is non-empty they are also appended to radicador.log, and records at
// warn or above to radicador_error.log. The returned close function
// flushes and closes the log files.
func New(service, level, dir string) (*slog.Logger, func() error, error) {
	handlers := []slog.Handler{
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(level)}),
	}

	var files []*os.File
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		runLog, err := openAppend(filepath.Join(dir, runLogName))
		if err != nil {
			return nil, nil, err
		}
		errorLog, err := openAppend(filepath.Join(dir, errorLogName))
		if err != nil {
			runLog.Close()
			return nil, nil, err
		}
		files = append(files, runLog, errorLog)
		handlers = append(handlers,
			slog.NewJSONHandler(runLog, &slog.HandlerOptions{Level: parseLevel(level)}),
			slog.NewJSONHandler(errorLog, &slog.HandlerOptions{Level: slog.LevelWarn}),
		)
	}

	closeFn := func() error {
		var firstErr error
		for _, f := range files {
			if err := f.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	logger := slog.New(&fanoutHandler{handlers: handlers}).With("service", service)
	return logger, closeFn, nil
}

func openAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// fanoutHandler delivers each record to every child handler that wants
// it. Records are cloned per child so one handler's mutations never
// leak into another's output.
type fanoutHandler struct {
	handlers []slog.Handler
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, child := range h.handlers {
		if child.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, child := range h.handlers {
		if !child.Enabled(ctx, record.Level) {
			continue
		}
		if err := child.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, child := range h.handlers {
		next[i] = child.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: next}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, child := range h.handlers {
		next[i] = child.WithGroup(name)
	}
	return &fanoutHandler{handlers: next}
}
