package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bundlescope/bundlescope/internal/config"
	"github.com/bundlescope/bundlescope/internal/models"
)

type Client interface {
	// Analyze runs the initial analysis over the bundle digest.
	Analyze(ctx context.Context, digest string, overview models.BundleOverview) (*models.AnalysisResult, error)

	// Ask answers a follow-up question about the loaded bundle.
	Ask(ctx context.Context, digest, question string, history []models.ChatMessage) (string, error)

	// Health reports whether the provider is reachable.
	Health(ctx context.Context) error
}

// Streamer is implemented by providers that can stream raw completions chunk
// by chunk. Callers type-assert for it.
type Streamer interface {
	Stream(ctx context.Context, query, systemPrompt string, onChunk func(content string)) error
}

func NewClient(cfg *config.Config, logger *zap.Logger) (Client, error) {
	switch cfg.LLM.Provider {
	case "agent", "":
		return NewAgentClient(cfg, logger), nil
	case "anthropic":
		return NewAnthropicClient(cfg)
	case "openai":
		return NewOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.LLM.Provider)
	}
}
