package ai

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter estimates prompt sizes for logs and metrics.
type TokenCounter interface {
	Count(text string) int
}

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter returns a counter for model, falling back to the
// cl100k_base encoding for models tiktoken does not know.
func NewTiktokenCounter(model string) (TokenCounter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("load tiktoken encoding: %w", err)
		}
	}
	return &tiktokenCounter{enc: enc}, nil
}

func (c *tiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// ApproxCounter assumes four characters per token.
type ApproxCounter struct{}

func (ApproxCounter) Count(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}

// estimatePrompt counts both prompt parts with c, which may be nil.
func estimatePrompt(c TokenCounter, req Request) int {
	if c == nil {
		c = ApproxCounter{}
	}
	return c.Count(req.System) + c.Count(req.User)
}
