// Package ai wraps the text generation backends behind one interface.
package ai

import (
	"context"
	"errors"
)

// Provider names, used in errors and metric labels.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

// ErrEmptyPrompt is returned when both prompts are blank.
var ErrEmptyPrompt = errors.New("empty prompt")

// Request is a single chat completion request.
type Request struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

// TextGenerator produces a completion for a system/user prompt pair.
// HTTP 429 surfaces as domain.ErrRateLimited; any other failure as a
// *domain.UpstreamError wrapping domain.ErrUpstream. No retries.
type TextGenerator interface {
	Generate(ctx context.Context, req Request) (string, error)
}
