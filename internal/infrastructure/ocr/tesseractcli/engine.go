package tesseractcli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	Binary      string
	Language    string
	PageSegMode int
}

func (c Config) normalize() Config {
	out := c
	if strings.TrimSpace(out.Binary) == "" {
		out.Binary = "tesseract"
	}
	if strings.TrimSpace(out.Language) == "" {
		out.Language = "spa"
	}
	if out.PageSegMode < 0 || out.PageSegMode > 13 {
		out.PageSegMode = 3
	}
	return out
}

// Engine shells out to the tesseract binary. Every invocation stages
// the page image in its own temporary directory, which is removed on
// all exit paths before Recognize returns.
type Engine struct {
	cfg Config
}

func New(cfg Config) *Engine {
	return &Engine{cfg: cfg.normalize()}
}

func (e *Engine) Name() string { return "tesseract-cli" }

func (e *Engine) Recognize(ctx context.Context, image []byte) (string, error) {
	tmpDir, err := os.MkdirTemp("", "radicador-ocr-*")
	if err != nil {
		return "", fmt.Errorf("create ocr staging dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	imagePath := filepath.Join(tmpDir, "page.png")
	if err := os.WriteFile(imagePath, image, 0o644); err != nil {
		return "", fmt.Errorf("stage page image: %w", err)
	}

	outBase := filepath.Join(tmpDir, "page")
	cmd := exec.CommandContext(ctx, e.cfg.Binary,
		imagePath,
		outBase,
		"-l", e.cfg.Language,
		"--psm", strconv.Itoa(e.cfg.PageSegMode),
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("run %s: %s: %w", e.cfg.Binary, msg, err)
		}
		return "", fmt.Errorf("run %s: %w", e.cfg.Binary, err)
	}

	raw, err := os.ReadFile(outBase + ".txt")
	if err != nil {
		return "", fmt.Errorf("read ocr output: %w", err)
	}
	return string(raw), nil
}

func (e *Engine) Close() error { return nil }
