// Package extract pulls plain text out of uploaded documents.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/semaphore"
)

// ErrExtraction wraps any failure to parse a document's bytes.
var ErrExtraction = errors.New("text extraction failed")

// Extractor converts raw document bytes to plain text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// PDFExtractor extracts text from PDF bytes. Parsing is CPU-bound, so a
// weighted semaphore caps how many extractions run at once; callers block in
// Acquire (which respects ctx) rather than stacking up parser goroutines.
type PDFExtractor struct {
	sem *semaphore.Weighted
}

// NewPDFExtractor creates a PDFExtractor running at most maxConcurrent
// extractions in parallel.
func NewPDFExtractor(maxConcurrent int) *PDFExtractor {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &PDFExtractor{sem: semaphore.NewWeighted(int64(maxConcurrent))}
}

func (e *PDFExtractor) Extract(ctx context.Context, data []byte) (text string, err error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer e.sem.Release(1)

	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %v", ErrExtraction, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	var sb strings.Builder
	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		p := reader.Page(pageIndex)
		if p.V.IsNull() {
			continue
		}
		pageText, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", ErrExtraction, pageIndex, err)
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

var _ Extractor = (*PDFExtractor)(nil)
