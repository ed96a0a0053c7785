package ai

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rtg123uk/storyai/internal/config"
)

// NewTextGenerator builds the generator selected by cfg.Provider.
func NewTextGenerator(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (TextGenerator, error) {
	tokens, err := NewTiktokenCounter(cfg.Model)
	if err != nil {
		logger.Warn("Token counter unavailable, using character estimate", zap.Error(err))
		tokens = ApproxCounter{}
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("openai provider requires OPENAI_API_KEY")
		}
		client := NewOpenAIClient(cfg.OpenAIKey, cfg.BaseURL, cfg.Timeout)
		return NewOpenAIGenerator(client, cfg.Model, tokens, logger), nil
	case ProviderOllama:
		return NewOllamaGenerator(cfg.BaseURL, cfg.Model, cfg.Timeout, tokens, logger)
	case ProviderGemini:
		if cfg.GeminiKey == "" {
			return nil, fmt.Errorf("gemini provider requires GEMINI_API_KEY")
		}
		return NewGeminiGenerator(ctx, cfg.GeminiKey, cfg.BaseURL, cfg.Model, cfg.Timeout, tokens, logger)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %q", cfg.Provider)
	}
}
