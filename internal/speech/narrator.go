package speech

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rtg123uk/storyai/internal/domain"
)

// Synthesizer is the part of Client the Narrator needs.
type Synthesizer interface {
	Available() bool
	Synthesize(ctx context.Context, voiceID, text string, settings VoiceSettings) ([]byte, error)
}

// Narrator reads story pages aloud.
type Narrator struct {
	client  Synthesizer
	presets *Presets
	logger  *zap.Logger
}

// NewNarrator creates a Narrator. A nil presets uses the built-in table.
func NewNarrator(client Synthesizer, presets *Presets, logger *zap.Logger) *Narrator {
	if presets == nil {
		presets = NewPresets()
	}
	return &Narrator{client: client, presets: presets, logger: logger.Named("Narrator")}
}

// Narrate returns MPEG audio for a page, or nil when synthesis is not
// configured, the page is empty, a sample voice was picked or the request
// fails.
func (n *Narrator) Narrate(ctx context.Context, req domain.NarrationRequest) []byte {
	if req.Content == "" || n.client == nil || !n.client.Available() {
		return nil
	}
	pr := n.presets.Lookup(req.Style)
	voiceID := pr.VoiceID
	if req.UseVoice && req.SelectedVoiceID != "" {
		voiceID = req.SelectedVoiceID
	}
	if IsSampleVoice(voiceID) {
		n.logger.Debug("Sample voice selected, skipping narration", zap.String("voiceID", voiceID))
		return nil
	}

	audio, err := n.client.Synthesize(ctx, voiceID, SSML(NarrationText(req)), pr.Settings)
	if err != nil {
		var upErr *domain.UpstreamError
		switch {
		case errors.As(err, &upErr) && upErr.Status == 401:
			n.logger.Warn("Invalid or missing speech API key")
		case errors.Is(err, domain.ErrRateLimited):
			n.logger.Warn("Rate limit reached for audio generation")
		default:
			n.logger.Warn("Audio narration generation failed", zap.Error(err))
		}
		return nil
	}
	return audio
}

// NarrationText is the spoken text of a page: title, content and the
// choices with their descriptions.
func NarrationText(req domain.NarrationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s. %s", req.Title, req.Content)
	if len(req.Choices) > 0 {
		parts := make([]string, len(req.Choices))
		for i, c := range req.Choices {
			parts[i] = c.Text + ": " + c.Description
		}
		b.WriteString(". Your choices are: ")
		b.WriteString(strings.Join(parts, ". "))
	}
	return b.String()
}

// SSML wraps escaped text in the speak/prosody envelope sent to the API.
func SSML(text string) string {
	var b strings.Builder
	b.WriteString(`<speak><prosody rate="medium" pitch="medium">`)
	_ = xml.EscapeText(&b, []byte(text))
	b.WriteString(`</prosody></speak>`)
	return b.String()
}
