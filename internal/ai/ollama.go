package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// OllamaGenerator implements TextGenerator over the native Ollama chat API.
type OllamaGenerator struct {
	client *api.Client
	model  string
	tokens TokenCounter
	logger *zap.Logger
}

// NewOllamaGenerator accepts base URLs with or without a trailing /v1.
func NewOllamaGenerator(baseURL, model string, timeout time.Duration, tokens TokenCounter, logger *zap.Logger) (*OllamaGenerator, error) {
	base := strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/v1")
	if base == "" {
		base = "http://localhost:11434"
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse ollama base url %q: %w", base, err)
	}
	return &OllamaGenerator{
		client: api.NewClient(parsed, &http.Client{Timeout: timeout}),
		model:  model,
		tokens: tokens,
		logger: logger.Named("OllamaGenerator"),
	}, nil
}

func (g *OllamaGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if req.System == "" && req.User == "" {
		return "", ErrEmptyPrompt
	}
	var messages []api.Message
	if req.System != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.System})
	}
	if req.User != "" {
		messages = append(messages, api.Message{Role: "user", Content: req.User})
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model:    g.model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]interface{}{
			"temperature": req.Temperature,
			"num_predict": req.MaxTokens,
		},
	}

	promptTokens := estimatePrompt(g.tokens, req)
	log := g.logger.With(zap.String("model", g.model), zap.Int("estimatedPromptTokens", promptTokens))

	started := time.Now()
	var resp api.ChatResponse
	err := g.client.Chat(ctx, chatReq, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	if err != nil {
		err = classifyOllamaError(err)
		observeRequest(ProviderOllama, g.model, statusOf(err), started)
		log.Warn("Ollama chat failed", zap.Error(err), zap.Duration("duration", time.Since(started)))
		return "", err
	}

	observeRequest(ProviderOllama, g.model, "success", started)
	observeTokens(ProviderOllama, g.model, promptTokens, resp.EvalCount)
	log.Info("Ollama chat completed",
		zap.Duration("duration", time.Since(started)),
		zap.Int("responseLength", len(resp.Message.Content)),
		zap.Int("evalCount", resp.EvalCount),
	)
	return resp.Message.Content, nil
}
