// Package speech narrates story pages with the ElevenLabs text-to-speech
// API.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rtg123uk/storyai/internal/domain"
)

const (
	DefaultBaseURL = "https://api.elevenlabs.io/v1"
	DefaultModel   = "eleven_monolingual_v1"

	providerName      = "elevenlabs"
	sampleVoicePrefix = "sample-voice"
)

// ErrUnavailable is returned when no API key is configured.
var ErrUnavailable = errors.New("speech synthesis is not configured")

// Voice is one entry of the voice catalog.
type Voice struct {
	VoiceID string            `json:"voice_id"`
	Name    string            `json:"name"`
	Labels  map[string]string `json:"labels,omitempty"`
}

// SampleVoices stand in for the catalog when it cannot be fetched.
func SampleVoices() []Voice {
	return []Voice{
		{VoiceID: "sample-voice-1", Name: "Sarah", Labels: map[string]string{"accent": "Friendly"}},
		{VoiceID: "sample-voice-2", Name: "Michael", Labels: map[string]string{"accent": "Storyteller"}},
	}
}

// IsSampleVoice reports whether id belongs to SampleVoices.
func IsSampleVoice(id string) bool {
	return strings.HasPrefix(id, sampleVoicePrefix)
}

// Client calls the ElevenLabs REST API.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client. An empty apiKey leaves it unavailable.
func NewClient(baseURL, apiKey, model string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(apiKey),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("SpeechClient"),
	}
}

// Available reports whether an API key is configured.
func (c *Client) Available() bool {
	return c != nil && c.apiKey != ""
}

type synthesizeRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

// Synthesize converts text to MPEG audio with the given voice.
func (c *Client) Synthesize(ctx context.Context, voiceID, text string, settings VoiceSettings) ([]byte, error) {
	if !c.Available() {
		return nil, ErrUnavailable
	}
	body, err := json.Marshal(synthesizeRequest{Text: text, ModelID: c.model, VoiceSettings: settings})
	if err != nil {
		return nil, fmt.Errorf("marshal synthesis request: %w", err)
	}

	endpoint := c.baseURL + "/text-to-speech/" + url.PathEscape(voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	log := c.logger.With(zap.String("voiceID", voiceID), zap.Int("textLength", len(text)))
	log.Debug("Sending text-to-speech request")
	audio, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio", domain.ErrMalformedResponse)
	}
	log.Debug("Audio received", zap.Int("sizeBytes", len(audio)))
	return audio, nil
}

// Voices returns the account's voice catalog, or SampleVoices when the
// client is unavailable or the request fails.
func (c *Client) Voices(ctx context.Context) []Voice {
	if !c.Available() {
		return SampleVoices()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/voices", nil)
	if err != nil {
		c.logger.Error("Failed to create voices request", zap.Error(err))
		return SampleVoices()
	}
	req.Header.Set("Accept", "application/json")

	data, err := c.do(req)
	if err != nil {
		c.logger.Warn("Voice catalog unavailable, using sample voices", zap.Error(err))
		return SampleVoices()
	}
	var resp struct {
		Voices []Voice `json:"voices"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		c.logger.Warn("Voice catalog response could not be decoded", zap.Error(err))
		return SampleVoices()
	}
	c.logger.Debug("Fetched voices", zap.Int("count", len(resp.Voices)))
	return resp.Voices
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrUpstream, providerName, err)
		}
		return nil, domain.NewUpstreamError(providerName, 0, err.Error())
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, domain.NewUpstreamError(providerName, resp.StatusCode, msg)
	}
	if readErr != nil {
		return nil, fmt.Errorf("read %s response: %w", providerName, readErr)
	}
	return data, nil
}
