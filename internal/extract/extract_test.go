package extract

import (
	"context"
	"errors"
	"testing"
)

func TestExtract_RejectsGarbageBytes(t *testing.T) {
	e := NewPDFExtractor(1)

	_, err := e.Extract(context.Background(), []byte("this is not a pdf"))
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestExtract_RejectsEmptyInput(t *testing.T) {
	e := NewPDFExtractor(1)

	_, err := e.Extract(context.Background(), nil)
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestExtract_RecoversFromParserPanic(t *testing.T) {
	e := NewPDFExtractor(1)

	// Truncated header: enough to get past initial checks into the parser.
	data := []byte("%PDF-1.4\n1 0 obj\n<<")
	_, err := e.Extract(context.Background(), data)
	if err == nil {
		t.Fatal("expected an error for a truncated document")
	}
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestExtract_HonorsContextCancellation(t *testing.T) {
	e := NewPDFExtractor(1)

	// Hold the only permit so the next call blocks in Acquire.
	if err := e.sem.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("seeding permit: %v", err)
	}
	defer e.sem.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Extract(ctx, []byte("%PDF-1.4"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewPDFExtractor_DefaultsToOne(t *testing.T) {
	e := NewPDFExtractor(0)
	if e == nil {
		t.Fatal("expected extractor")
	}
	// The zero-value cap must still leave one permit usable.
	if err := e.sem.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("expected one permit available: %v", err)
	}
	e.sem.Release(1)
}
