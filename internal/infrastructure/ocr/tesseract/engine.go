package tesseract

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

type Config struct {
	Language      string
	PageSegMode   int
	MinConfidence float64
}

func (c Config) normalize() Config {
	out := c
	if strings.TrimSpace(out.Language) == "" {
		out.Language = "spa"
	}
	if out.PageSegMode < 0 || out.PageSegMode > 13 {
		out.PageSegMode = 3
	}
	if out.MinConfidence < 0 || out.MinConfidence > 100 {
		out.MinConfidence = 0
	}
	return out
}

// Engine runs Tesseract in process through gosseract. Clients are
// pooled; one recognition owns one client at a time.
type Engine struct {
	cfg  Config
	pool *sync.Pool
}

func New(cfg Config) (*Engine, error) {
	cfg = cfg.normalize()

	probe := gosseract.NewClient()
	if err := probe.SetLanguage(cfg.Language); err != nil {
		probe.Close()
		return nil, fmt.Errorf("set ocr language %q: %w", cfg.Language, err)
	}
	if err := probe.SetPageSegMode(gosseract.PageSegMode(cfg.PageSegMode)); err != nil {
		probe.Close()
		return nil, fmt.Errorf("set page segmentation mode %d: %w", cfg.PageSegMode, err)
	}
	probe.Close()

	pool := &sync.Pool{
		New: func() any {
			client := gosseract.NewClient()
			_ = client.SetLanguage(cfg.Language)
			_ = client.SetPageSegMode(gosseract.PageSegMode(cfg.PageSegMode))
			return client
		},
	}
	return &Engine{cfg: cfg, pool: pool}, nil
}

func (e *Engine) Name() string { return "gosseract" }

func (e *Engine) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := e.pool.Get().(*gosseract.Client)

	type result struct {
		text string
		err  error
	}
	// Buffered so an abandoned recognition cannot leak its goroutine.
	// The client goes back to the pool only once the goroutine is done
	// with it, even when the caller has already given up.
	resultCh := make(chan result, 1)
	go func() {
		text, err := e.recognize(client, image)
		e.pool.Put(client)
		resultCh <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-resultCh:
		return res.text, res.err
	}
}

func (e *Engine) recognize(client *gosseract.Client, image []byte) (string, error) {
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	text = strings.TrimSpace(text)

	if e.cfg.MinConfidence <= 0 || text == "" {
		return text, nil
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return "", fmt.Errorf("read confidence: %w", err)
	}
	if len(boxes) == 0 {
		return "", nil
	}
	var total float64
	for _, box := range boxes {
		total += box.Confidence
	}
	if avg := total / float64(len(boxes)); avg < e.cfg.MinConfidence {
		return "", fmt.Errorf("ocr confidence %.1f below %.1f", avg, e.cfg.MinConfidence)
	}
	return text, nil
}

// Close exists for the engine contract. Pooled clients are reclaimed by
// the runtime once the engine is unreferenced.
func (e *Engine) Close() error { return nil }
