package ai

import (
	"context"
	"fmt"

	"github.com/nmoreno/careerhub/internal/ai/gemini"
	"github.com/nmoreno/careerhub/internal/ai/ollama"
	"github.com/nmoreno/careerhub/internal/config"
	"github.com/nmoreno/careerhub/pkg/models"
)

// NewProvider constructs the appropriate AI provider based on config.
// Called once at server startup.
func NewProvider(ctx context.Context, cfg config.AIConfig) (models.AIProvider, error) {
	switch cfg.Provider {
	case "gemini":
		return gemini.NewProvider(ctx, cfg.Gemini)
	case "ollama":
		return ollama.NewProvider(cfg.Ollama), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of gemini, ollama", cfg.Provider)
	}
}
