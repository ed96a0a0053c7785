package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/rtg123uk/storyai/internal/domain"
)

// geminiModels is the part of genai.Models the generator uses.
type geminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator implements TextGenerator over the Gemini API.
type GeminiGenerator struct {
	models geminiModels
	model  string
	tokens TokenCounter
	logger *zap.Logger
}

// NewGeminiGenerator creates a Gemini API client. baseURL is optional.
func NewGeminiGenerator(ctx context.Context, apiKey, baseURL, model string, timeout time.Duration, tokens TokenCounter, logger *zap.Logger) (*GeminiGenerator, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return newGeminiGenerator(client.Models, model, tokens, logger), nil
}

func newGeminiGenerator(models geminiModels, model string, tokens TokenCounter, logger *zap.Logger) *GeminiGenerator {
	return &GeminiGenerator{
		models: models,
		model:  model,
		tokens: tokens,
		logger: logger.Named("GeminiGenerator"),
	}
}

func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if req.System == "" && req.User == "" {
		return "", ErrEmptyPrompt
	}
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	user := req.User
	if user == "" {
		// Gemini requires at least one content entry
		user = req.System
		cfg.SystemInstruction = nil
	}

	promptTokens := estimatePrompt(g.tokens, req)
	log := g.logger.With(zap.String("model", g.model), zap.Int("estimatedPromptTokens", promptTokens))

	started := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model, []*genai.Content{genai.NewContentFromText(user, genai.RoleUser)}, cfg)
	if err != nil {
		err = classifyGeminiError(err)
		observeRequest(ProviderGemini, g.model, statusOf(err), started)
		log.Warn("Gemini request failed", zap.Error(err), zap.Duration("duration", time.Since(started)))
		return "", err
	}

	if resp == nil {
		observeRequest(ProviderGemini, g.model, "error_empty_response", started)
		return "", fmt.Errorf("%w: gemini returned no response", domain.ErrMalformedResponse)
	}
	text := resp.Text()
	observeRequest(ProviderGemini, g.model, "success", started)
	observeTokens(ProviderGemini, g.model, promptTokens, 0)
	log.Info("Gemini response received", zap.Duration("duration", time.Since(started)), zap.Int("responseLength", len(text)))
	return text, nil
}
