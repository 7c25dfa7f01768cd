package mock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nmoreno/careerhub/internal/ai"
)

func TestNewMockProvider_ReturnsValidFeatures(t *testing.T) {
	p := NewMockProvider()

	raw, err := p.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	features, err := ai.ParseFeatures([]byte(raw))
	if err != nil {
		t.Fatalf("default response must parse: %v", err)
	}
	if len(features.ResumeKeywords) == 0 {
		t.Error("default response must carry keywords")
	}
}

func TestNewFailingProvider(t *testing.T) {
	p := NewFailingProvider(ai.ErrProviderUnavailable)

	_, err := p.Generate(context.Background(), "prompt")
	if !errors.Is(err, ai.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestNewTimeoutProvider_BlocksUntilCancelled(t *testing.T) {
	p := NewTimeoutProvider()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.Generate(ctx, "prompt")
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if time.Since(start) < 15*time.Millisecond {
		t.Error("provider must block until the context expires")
	}
}
