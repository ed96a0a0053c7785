package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxTokensFor(t *testing.T) {
	assert.Equal(t, 4000, MaxTokensFor(5))
	assert.Equal(t, 8000, MaxTokensFor(10))
	assert.Equal(t, 12000, MaxTokensFor(15))
	assert.Equal(t, DefaultMaxTokens, MaxTokensFor(7))
}

func TestApproxCounter(t *testing.T) {
	assert.Equal(t, 0, ApproxCounter{}.Count(""))
	assert.Equal(t, 1, ApproxCounter{}.Count("abc"))
	assert.Equal(t, 2, ApproxCounter{}.Count("abcdefgh"))
	assert.Equal(t, 2, estimatePrompt(nil, Request{System: "abcd", User: "efgh"}))
}
