package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ollama/ollama/api"
	openaigo "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/rtg123uk/storyai/internal/domain"
)

func isRateLimited(err error) bool {
	return errors.Is(err, domain.ErrRateLimited)
}

// wrapTransportError covers failures without an HTTP status. Context
// errors stay visible to errors.Is.
func wrapTransportError(provider string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", domain.ErrUpstream, provider, err)
	}
	return domain.NewUpstreamError(provider, 0, err.Error())
}

// ClassifyOpenAIError maps go-openai errors onto the domain taxonomy.
func ClassifyOpenAIError(err error) error {
	var apiErr *openaigo.APIError
	if errors.As(err, &apiErr) {
		return domain.NewUpstreamError(ProviderOpenAI, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openaigo.RequestError
	if errors.As(err, &reqErr) {
		msg := http.StatusText(reqErr.HTTPStatusCode)
		if len(reqErr.Body) > 0 {
			msg = string(reqErr.Body)
		}
		return domain.NewUpstreamError(ProviderOpenAI, reqErr.HTTPStatusCode, msg)
	}
	return wrapTransportError(ProviderOpenAI, err)
}

func classifyOllamaError(err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		msg := statusErr.ErrorMessage
		if msg == "" {
			msg = statusErr.Status
		}
		return domain.NewUpstreamError(ProviderOllama, statusErr.StatusCode, msg)
	}
	return wrapTransportError(ProviderOllama, err)
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return domain.NewUpstreamError(ProviderGemini, apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return domain.NewUpstreamError(ProviderGemini, apiErrPtr.Code, apiErrPtr.Message)
	}
	return wrapTransportError(ProviderGemini, err)
}
