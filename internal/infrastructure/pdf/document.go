package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"

	"github.com/epsflow/radicador/internal/core/ports"
)

const defaultRenderDPI = 300

// Backend opens source PDFs. Text comes from the embedded text layer;
// rendering goes through MuPDF so scanned pages can be rasterized for
// the OCR engine.
type Backend struct {
	dpi float64
}

func NewBackend(dpi int) *Backend {
	if dpi <= 0 {
		dpi = defaultRenderDPI
	}
	return &Backend{dpi: float64(dpi)}
}

func (b *Backend) Open(_ context.Context, path string) (ports.Document, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}

	fz, err := fitz.New(path)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("open pdf for rendering %s: %w", path, err)
	}

	return &Document{file: file, reader: reader, fz: fz, dpi: b.dpi}, nil
}

// Document is one open source PDF, readable through both libraries for
// the life of the value. Page indexes are 0-based; the text-layer
// library counts from 1.
type Document struct {
	file   *os.File
	reader *pdf.Reader
	fz     *fitz.Document
	dpi    float64
}

func (d *Document) PageCount() int {
	return d.reader.NumPage()
}

func (d *Document) PageText(_ context.Context, pageIndex int) (string, error) {
	page := d.reader.Page(pageIndex + 1)
	if page.V.IsNull() {
		return "", nil
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("text layer of page %d: %w", pageIndex+1, err)
	}
	return text, nil
}

func (d *Document) RenderPage(_ context.Context, pageIndex int) ([]byte, error) {
	img, err := d.fz.ImageDPI(pageIndex, d.dpi)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", pageIndex+1, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode page %d: %w", pageIndex+1, err)
	}
	return buf.Bytes(), nil
}

func (d *Document) Close() error {
	fzErr := d.fz.Close()
	if err := d.file.Close(); err != nil {
		return err
	}
	return fzErr
}
