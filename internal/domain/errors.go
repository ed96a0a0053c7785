package domain

import (
	"errors"
	"fmt"
)

// Application-wide standard errors
var (
	// Generation errors
	ErrRateLimited       = errors.New("text generation rate limited")
	ErrUpstream          = errors.New("upstream generation service failed")
	ErrMalformedResponse = errors.New("malformed generation response")

	// Degraded: title history is advisory
	ErrHistoryUnavailable = errors.New("title history unavailable")

	// Story flow
	ErrStoryComplete     = errors.New("story is already complete")
	ErrInvalidChoice     = errors.New("invalid choice index")
	ErrInvalidParameters = errors.New("invalid story parameters")

	// Access
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("resource not found")
)

// UpstreamError carries the provider's readable failure message.
// It unwraps to ErrUpstream, or ErrRateLimited for HTTP 429.
type UpstreamError struct {
	Provider string
	Status   int
	Message  string
}

func (e *UpstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	if e.Status == 429 {
		return ErrRateLimited
	}
	return ErrUpstream
}

// NewUpstreamError builds an UpstreamError; status 0 means the failure
// happened before an HTTP response was received.
func NewUpstreamError(provider string, status int, message string) error {
	if message == "" {
		message = "request failed"
	}
	return &UpstreamError{Provider: provider, Status: status, Message: message}
}
