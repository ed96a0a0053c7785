package speech_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rtg123uk/storyai/internal/domain"
	"github.com/rtg123uk/storyai/internal/speech"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestPresets_Defaults(t *testing.T) {
	p := speech.NewPresets()

	warm := p.Lookup(domain.StyleWarm)
	assert.Equal(t, "pNInz6obpgDQGcFmaJgB", warm.VoiceID)
	assert.Equal(t, speech.VoiceSettings{Stability: 0.75, SimilarityBoost: 0.75, SpeakingRate: 0.9}, warm.Settings)

	funny := p.Lookup(domain.StyleFunny)
	assert.Equal(t, 1.2, funny.Settings.Pitch)

	assert.Equal(t, warm, p.Lookup("unknown"))
}

func TestPresets_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voices.yaml")
	writeFile(t, path, "calm:\n  voice_id: my-calm-voice\n  speaking_rate: 0.7\nbedtime:\n  voice_id: sleepy\n  stability: 0.9\n")

	p := speech.NewPresets()
	require.NoError(t, p.LoadFile(path))

	calm := p.Lookup(domain.StyleCalm)
	assert.Equal(t, "my-calm-voice", calm.VoiceID)
	assert.Equal(t, 0.7, calm.Settings.SpeakingRate)
	assert.Equal(t, 0.9, calm.Settings.Pitch)
	assert.Equal(t, 0.75, calm.Settings.Stability)

	assert.Equal(t, "sleepy", p.Lookup("bedtime").VoiceID)
	assert.Equal(t, speech.DefaultPresets()[domain.StyleWise], p.Lookup(domain.StyleWise))
}

func TestPresets_LoadFileErrors(t *testing.T) {
	dir := t.TempDir()
	p := speech.NewPresets()

	assert.Error(t, p.LoadFile(filepath.Join(dir, "missing.yaml")))

	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, bad, "calm: [not, a, map")
	assert.Error(t, p.LoadFile(bad))

	novoice := filepath.Join(dir, "novoice.yaml")
	writeFile(t, novoice, "lullaby:\n  pitch: 0.8\n")
	assert.ErrorContains(t, p.LoadFile(novoice), "lullaby")

	// failed loads keep the previous table
	assert.Equal(t, speech.DefaultPresets()[domain.StyleCalm], p.Lookup(domain.StyleCalm))
}

func TestWatchPresets_Reloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voices.yaml")
	writeFile(t, path, "warm:\n  voice_id: first\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := speech.NewPresets()
	w, err := speech.WatchPresets(ctx, p, path, zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	assert.Equal(t, "first", p.Lookup(domain.StyleWarm).VoiceID)

	writeFile(t, path, "warm:\n  voice_id: second\n")
	require.Eventually(t, func() bool {
		return p.Lookup(domain.StyleWarm).VoiceID == "second"
	}, 5*time.Second, 20*time.Millisecond)
}
