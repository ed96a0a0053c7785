package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/rtg123uk/storyai/internal/domain"
)

// OpenAIGenerator implements TextGenerator over the chat completions API.
type OpenAIGenerator struct {
	client *openaigo.Client
	model  string
	tokens TokenCounter
	logger *zap.Logger
}

// NewOpenAIClient builds a go-openai client. An empty baseURL keeps the
// library default.
func NewOpenAIClient(apiKey, baseURL string, timeout time.Duration) *openaigo.Client {
	cfg := openaigo.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return openaigo.NewClientWithConfig(cfg)
}

// NewOpenAIGenerator wraps client. tokens may be nil.
func NewOpenAIGenerator(client *openaigo.Client, model string, tokens TokenCounter, logger *zap.Logger) *OpenAIGenerator {
	return &OpenAIGenerator{
		client: client,
		model:  model,
		tokens: tokens,
		logger: logger.Named("OpenAIGenerator"),
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	messages, err := chatMessages(req)
	if err != nil {
		return "", err
	}

	promptTokens := estimatePrompt(g.tokens, req)
	log := g.logger.With(zap.String("model", g.model), zap.Int("estimatedPromptTokens", promptTokens))
	log.Debug("Sending chat completion request", zap.Int("maxTokens", req.MaxTokens))

	started := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		err = ClassifyOpenAIError(err)
		observeRequest(ProviderOpenAI, g.model, statusOf(err), started)
		log.Warn("Chat completion failed", zap.Error(err), zap.Duration("duration", time.Since(started)))
		return "", err
	}

	if len(resp.Choices) == 0 {
		observeRequest(ProviderOpenAI, g.model, "error_empty_response", started)
		return "", fmt.Errorf("%w: openai returned no choices", domain.ErrMalformedResponse)
	}

	observeRequest(ProviderOpenAI, g.model, "success", started)
	observeTokens(ProviderOpenAI, g.model, promptTokens, resp.Usage.CompletionTokens)
	text := resp.Choices[0].Message.Content
	log.Info("Chat completion received",
		zap.Duration("duration", time.Since(started)),
		zap.Int("responseLength", len(text)),
		zap.Int("promptTokens", resp.Usage.PromptTokens),
		zap.Int("completionTokens", resp.Usage.CompletionTokens),
	)
	return text, nil
}

func chatMessages(req Request) ([]openaigo.ChatCompletionMessage, error) {
	if req.System == "" && req.User == "" {
		return nil, ErrEmptyPrompt
	}
	var messages []openaigo.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{Role: openaigo.ChatMessageRoleSystem, Content: req.System})
	}
	if req.User != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{Role: openaigo.ChatMessageRoleUser, Content: req.User})
	}
	return messages, nil
}
