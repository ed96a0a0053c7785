// Package image turns story scenes and character descriptions into
// illustrations through the OpenAI images API.
package image

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/rtg123uk/storyai/internal/ai"
	"github.com/rtg123uk/storyai/internal/domain"
)

const (
	DefaultModel = openai.CreateImageModelDallE3
	DefaultSize  = openai.CreateImageSize1024x1024

	scenePrompt = "Create a child-friendly illustration for a storybook page of the following scene: %s. " +
		"Style: Warm, engaging digital art with bright colors and soft edges."
	portraitStyleGuide = "Create a child-friendly character illustration in a warm, engaging digital art style " +
		"with bright colors and soft edges. The character should be expressive and appealing to children."
)

// ErrEmptyDescription is returned by Portrait when there is nothing to draw.
var ErrEmptyDescription = errors.New("character description is empty")

// Client is the part of the go-openai client used here.
type Client interface {
	CreateImage(ctx context.Context, req openai.ImageRequest) (openai.ImageResponse, error)
}

// Generator creates one image per call.
type Generator struct {
	client Client
	model  string
	size   string
	logger *zap.Logger
}

// NewGenerator returns a Generator. Empty model and size use DALL-E 3 at
// 1024x1024.
func NewGenerator(client Client, model, size string, logger *zap.Logger) *Generator {
	if model == "" {
		model = DefaultModel
	}
	if size == "" {
		size = DefaultSize
	}
	return &Generator{
		client: client,
		model:  model,
		size:   size,
		logger: logger.Named("ImageGenerator"),
	}
}

// Illustrate returns the URL of a storybook illustration of scene, or nil
// when the prompt is empty or generation fails.
func (g *Generator) Illustrate(ctx context.Context, scene string) *string {
	scene = strings.TrimSpace(scene)
	if scene == "" {
		g.logger.Warn("No illustration prompt provided")
		return nil
	}
	url, err := g.create(ctx, fmt.Sprintf(scenePrompt, scene))
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			g.logger.Warn("Rate limit reached for image generation")
		} else {
			g.logger.Warn("Failed to generate illustration", zap.Error(err))
		}
		return nil
	}
	return &url
}

// Character describes a portrait subject. Type is one of human, animal,
// magical or robot; other types get no extra guidance.
type Character struct {
	Type        string `json:"type"`
	Description string `json:"description" binding:"required"`
	Traits      string `json:"traits"`
}

// Portrait draws a character and returns the image URL. Unlike Illustrate
// it reports failures.
func (g *Generator) Portrait(ctx context.Context, c Character) (string, error) {
	if strings.TrimSpace(c.Description) == "" {
		return "", ErrEmptyDescription
	}
	url, err := g.create(ctx, PortraitPrompt(c))
	if err != nil {
		g.logger.Error("Failed to generate character image", zap.String("type", c.Type), zap.Error(err))
		return "", fmt.Errorf("generate character image: %w", err)
	}
	return url, nil
}

// PortraitPrompt builds the image prompt for c.
func PortraitPrompt(c Character) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s The character is a %s: %s.", portraitStyleGuide, c.Type, strings.TrimSpace(c.Description))
	if t := strings.TrimSpace(c.Traits); t != "" {
		fmt.Fprintf(&b, " The character's personality traits (%s) should be reflected in their expression and pose.", t)
	}
	switch c.Type {
	case "human":
		b.WriteString(" Ensure the character has a friendly, welcoming expression and child-appropriate clothing.")
	case "animal":
		b.WriteString(" The animal should be anthropomorphized with friendly features and expressive eyes.")
	case "magical":
		b.WriteString(" Include magical elements like sparkles or glowing effects while maintaining a friendly appearance.")
	case "robot":
		b.WriteString(" The robot should have rounded edges and friendly features, avoiding any scary or industrial elements.")
	}
	return b.String()
}

func (g *Generator) create(ctx context.Context, prompt string) (string, error) {
	g.logger.Debug("Requesting image", zap.String("model", g.model), zap.Int("promptLength", len(prompt)))
	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          g.model,
		N:              1,
		Size:           g.size,
		Style:          openai.CreateImageStyleVivid,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", ai.ClassifyOpenAIError(err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", fmt.Errorf("%w: image response has no url", domain.ErrMalformedResponse)
	}
	return resp.Data[0].URL, nil
}
