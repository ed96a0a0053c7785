package speech

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rtg123uk/storyai/internal/domain"
)

// VoiceSettings is the voice_settings object of a synthesis request.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	SpeakingRate    float64 `json:"speaking_rate,omitempty"`
	Pitch           float64 `json:"pitch,omitempty"`
}

// Preset is the voice and settings used for one narration style.
type Preset struct {
	VoiceID  string
	Settings VoiceSettings
}

func preset(voiceID string, rate, pitch float64) Preset {
	return Preset{VoiceID: voiceID, Settings: VoiceSettings{Stability: 0.75, SimilarityBoost: 0.75, SpeakingRate: rate, Pitch: pitch}}
}

// DefaultPresets returns the built-in style table.
func DefaultPresets() map[string]Preset {
	return map[string]Preset{
		domain.StyleWarm:     preset("pNInz6obpgDQGcFmaJgB", 0.9, 0),
		domain.StyleExciting: preset("yoZ06aMxZJJ28mfd3POQ", 1.1, 1.1),
		domain.StyleCalm:     preset("EXAVITQu4vr4xnSDxMaL", 0.8, 0.9),
		domain.StyleFunny:    preset("VR6AewLTigWG4xSOukaG", 1.2, 1.2),
		domain.StyleMagical:  preset("jsCqWAovK2LkecY7zXl4", 0.95, 1.1),
		domain.StyleWise:     preset("ThT5KcBeYPX3keUQqHPh", 0.85, 0.9),
	}
}

// Presets is the style table. It can be overlaid from a YAML file and
// reloaded while in use.
type Presets struct {
	mu     sync.RWMutex
	styles map[string]Preset
}

func NewPresets() *Presets {
	return &Presets{styles: DefaultPresets()}
}

// Lookup returns the preset for style, falling back to warm.
func (p *Presets) Lookup(style string) Preset {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if pr, ok := p.styles[style]; ok {
		return pr
	}
	return p.styles[domain.StyleWarm]
}

// LoadFile rebuilds the table from the defaults overlaid with the styles in
// path. Fields missing from the file keep their default values.
//
//	calm:
//	  voice_id: abc123
//	  speaking_rate: 0.7
func (p *Presets) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read voice presets: %w", err)
	}
	var overlay map[string]presetOverride
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse voice presets %s: %w", path, err)
	}
	styles := DefaultPresets()
	for name, o := range overlay {
		pr := o.apply(styles[name])
		if pr.VoiceID == "" {
			return fmt.Errorf("voice preset %q has no voice_id", name)
		}
		styles[name] = pr
	}

	p.mu.Lock()
	p.styles = styles
	p.mu.Unlock()
	return nil
}

type presetOverride struct {
	VoiceID         *string  `yaml:"voice_id"`
	Stability       *float64 `yaml:"stability"`
	SimilarityBoost *float64 `yaml:"similarity_boost"`
	SpeakingRate    *float64 `yaml:"speaking_rate"`
	Pitch           *float64 `yaml:"pitch"`
}

func (o presetOverride) apply(pr Preset) Preset {
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	if o.VoiceID != nil {
		pr.VoiceID = *o.VoiceID
	}
	set(&pr.Settings.Stability, o.Stability)
	set(&pr.Settings.SimilarityBoost, o.SimilarityBoost)
	set(&pr.Settings.SpeakingRate, o.SpeakingRate)
	set(&pr.Settings.Pitch, o.Pitch)
	return pr
}

// PresetWatcher reloads Presets when its file changes.
type PresetWatcher struct {
	presets *Presets
	path    string
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	done    chan struct{}
}

// WatchPresets loads path into presets and keeps reloading it until ctx is
// cancelled or Close is called. The parent directory is watched so editors
// that replace the file are picked up.
func WatchPresets(ctx context.Context, presets *Presets, path string, logger *zap.Logger) (*PresetWatcher, error) {
	if err := presets.LoadFile(path); err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create presets watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	pw := &PresetWatcher{
		presets: presets,
		path:    filepath.Clean(path),
		watcher: w,
		logger:  logger.Named("PresetWatcher"),
		done:    make(chan struct{}),
	}
	go pw.run(ctx)
	return pw, nil
}

func (pw *PresetWatcher) run(ctx context.Context) {
	defer close(pw.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-pw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != pw.path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := pw.presets.LoadFile(pw.path); err != nil {
				pw.logger.Warn("Keeping previous voice presets", zap.Error(err))
				continue
			}
			pw.logger.Info("Voice presets reloaded", zap.String("path", pw.path))
		case err, ok := <-pw.watcher.Errors:
			if !ok {
				return
			}
			pw.logger.Error("Presets watcher error", zap.Error(err))
		}
	}
}

// Close stops watching and waits for the reload loop to exit.
func (pw *PresetWatcher) Close() error {
	err := pw.watcher.Close()
	<-pw.done
	return err
}
