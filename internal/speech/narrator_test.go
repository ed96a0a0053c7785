package speech_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rtg123uk/storyai/internal/domain"
	"github.com/rtg123uk/storyai/internal/speech"
)

type synthCall struct {
	voiceID  string
	text     string
	settings speech.VoiceSettings
}

type fakeSynth struct {
	available bool
	err       error
	calls     []synthCall
}

func (f *fakeSynth) Available() bool { return f.available }

func (f *fakeSynth) Synthesize(_ context.Context, voiceID, text string, settings speech.VoiceSettings) ([]byte, error) {
	f.calls = append(f.calls, synthCall{voiceID, text, settings})
	if f.err != nil {
		return nil, f.err
	}
	return []byte("mp3"), nil
}

func pageRequest() domain.NarrationRequest {
	return domain.NarrationRequest{
		Title:   "The Cave",
		Content: "It was dark inside",
		Choices: []domain.Choice{
			{Text: "Light a torch", Description: "See the walls"},
			{Text: "Call out", Description: "Maybe someone answers"},
		},
		Style: domain.StyleCalm,
	}
}

func TestNarrationText(t *testing.T) {
	assert.Equal(t,
		"The Cave. It was dark inside. Your choices are: Light a torch: See the walls. Call out: Maybe someone answers",
		speech.NarrationText(pageRequest()))

	req := pageRequest()
	req.Choices = nil
	assert.Equal(t, "The Cave. It was dark inside", speech.NarrationText(req))
}

func TestSSML(t *testing.T) {
	assert.Equal(t,
		`<speak><prosody rate="medium" pitch="medium">Tom &amp; Jerry &lt; b</prosody></speak>`,
		speech.SSML("Tom & Jerry < b"))
	assert.Equal(t,
		`<speak><prosody rate="medium" pitch="medium">&lt;/prosody&gt;&lt;break/&gt;</prosody></speak>`,
		speech.SSML("</prosody><break/>"))
}

func TestNarrator_Narrate(t *testing.T) {
	synth := &fakeSynth{available: true}
	n := speech.NewNarrator(synth, nil, zap.NewNop())

	audio := n.Narrate(context.Background(), pageRequest())
	assert.Equal(t, []byte("mp3"), audio)

	require.Len(t, synth.calls, 1)
	call := synth.calls[0]
	calm := speech.DefaultPresets()[domain.StyleCalm]
	assert.Equal(t, calm.VoiceID, call.voiceID)
	assert.Equal(t, calm.Settings, call.settings)
	assert.Equal(t, speech.SSML(speech.NarrationText(pageRequest())), call.text)
	assert.Contains(t, call.text, `<speak><prosody rate="medium" pitch="medium">The Cave.`)
}

func TestNarrator_VoiceSelection(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*domain.NarrationRequest)
		wantVoice string
	}{
		{
			name:      "unknown style falls back to warm",
			mutate:    func(r *domain.NarrationRequest) { r.Style = "grumpy" },
			wantVoice: speech.DefaultPresets()[domain.StyleWarm].VoiceID,
		},
		{
			name: "selected voice overrides style",
			mutate: func(r *domain.NarrationRequest) {
				r.UseVoice = true
				r.SelectedVoiceID = "custom-voice"
			},
			wantVoice: "custom-voice",
		},
		{
			name:      "selected voice ignored without UseVoice",
			mutate:    func(r *domain.NarrationRequest) { r.SelectedVoiceID = "custom-voice" },
			wantVoice: speech.DefaultPresets()[domain.StyleCalm].VoiceID,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synth := &fakeSynth{available: true}
			req := pageRequest()
			tt.mutate(&req)

			require.NotNil(t, speech.NewNarrator(synth, nil, zap.NewNop()).Narrate(context.Background(), req))
			require.Len(t, synth.calls, 1)
			assert.Equal(t, tt.wantVoice, synth.calls[0].voiceID)
		})
	}
}

func TestNarrator_DegradesToNil(t *testing.T) {
	ctx := context.Background()

	t.Run("unavailable", func(t *testing.T) {
		synth := &fakeSynth{}
		assert.Nil(t, speech.NewNarrator(synth, nil, zap.NewNop()).Narrate(ctx, pageRequest()))
		assert.Empty(t, synth.calls)
	})

	t.Run("empty content", func(t *testing.T) {
		synth := &fakeSynth{available: true}
		req := pageRequest()
		req.Content = ""
		assert.Nil(t, speech.NewNarrator(synth, nil, zap.NewNop()).Narrate(ctx, req))
		assert.Empty(t, synth.calls)
	})

	t.Run("sample voice", func(t *testing.T) {
		synth := &fakeSynth{available: true}
		req := pageRequest()
		req.UseVoice = true
		req.SelectedVoiceID = "sample-voice-2"
		assert.Nil(t, speech.NewNarrator(synth, nil, zap.NewNop()).Narrate(ctx, req))
		assert.Empty(t, synth.calls)
	})

	for name, err := range map[string]error{
		"unauthorized": domain.NewUpstreamError("elevenlabs", 401, "invalid key"),
		"rate limited": domain.NewUpstreamError("elevenlabs", 429, "slow down"),
		"other":        errors.New("boom"),
	} {
		t.Run(name, func(t *testing.T) {
			synth := &fakeSynth{available: true, err: err}
			assert.Nil(t, speech.NewNarrator(synth, nil, zap.NewNop()).Narrate(ctx, pageRequest()))
			assert.Len(t, synth.calls, 1)
		})
	}
}
