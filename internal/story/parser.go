package story

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rtg123uk/storyai/internal/domain"
)

// Parser defaults.
const (
	DefaultPageTitle   = "The Adventure Continues"
	DefaultPageContent = "Continue on your journey..."
	FillerChoiceText   = "Continue the adventure"
	FillerChoiceDesc   = "See what happens next"
	choicesPerPage     = 3
)

// DefaultChoices replace a missing or empty choice list.
var DefaultChoices = []domain.Choice{
	{Text: "Continue exploring", Description: "Move forward in your adventure", NextPage: domain.UnresolvedPage},
	{Text: "Take a different path", Description: "Try a new direction", NextPage: domain.UnresolvedPage},
	{Text: "Investigate further", Description: "Look more closely at your surroundings", NextPage: domain.UnresolvedPage},
}

var (
	fencedBlockRe  = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	fenceMarkerRe  = regexp.MustCompile("```json\\s*|\\s*```")
	fallbackMarker = regexp.MustCompile("```json|```")
)

// PageContent is a parsed page before it is placed in a story.
type PageContent struct {
	Title   string          `json:"title"`
	Content string          `json:"content"`
	Choices []domain.Choice `json:"choices"`
}

// ParsePageContent turns a raw completion into a page. It never fails:
// unreadable input yields the fallback page. The result always has a
// title, content and exactly three choices.
func ParsePageContent(raw string) PageContent {
	jsonText := raw
	if m := fencedBlockRe.FindStringSubmatch(raw); m != nil {
		jsonText = m[1]
	}
	jsonText = fenceMarkerRe.ReplaceAllString(jsonText, "")
	jsonText = strings.ReplaceAll(jsonText, `\n`, " ")
	jsonText = collapseNewlines(jsonText)
	jsonText = strings.TrimSpace(jsonText)

	var doc map[string]any
	var parsed any
	if err := json.Unmarshal([]byte(jsonText), &parsed); err == nil {
		doc, _ = parsed.(map[string]any)
	}
	if doc == nil {
		doc = map[string]any{
			"title":   DefaultPageTitle,
			"content": strings.ReplaceAll(fallbackMarker.ReplaceAllString(raw, ""), `\n`, " "),
			"choices": []any{},
		}
	}

	return PageContent{
		Title:   stringOr(doc["title"], DefaultPageTitle),
		Content: stringOr(doc["content"], DefaultPageContent),
		Choices: padChoices(choicesFrom(doc["choices"])),
	}
}

// choicesFrom maps a decoded JSON value to at most three choices. Entries
// that are not objects become filler choices. A missing or empty list
// yields the default set.
func choicesFrom(v any) []domain.Choice {
	items, _ := v.([]any)
	if len(items) == 0 {
		return append([]domain.Choice(nil), DefaultChoices...)
	}
	if len(items) > choicesPerPage {
		items = items[:choicesPerPage]
	}
	out := make([]domain.Choice, 0, choicesPerPage)
	for _, item := range items {
		entry, _ := item.(map[string]any)
		out = append(out, domain.Choice{
			Text:        stringOr(entry["text"], FillerChoiceText),
			Description: stringOr(entry["description"], FillerChoiceDesc),
			NextPage:    domain.UnresolvedPage,
		})
	}
	return out
}

// padChoices fills the list up to three entries with the filler choice.
func padChoices(choices []domain.Choice) []domain.Choice {
	for len(choices) < choicesPerPage {
		choices = append(choices, domain.Choice{Text: FillerChoiceText, Description: FillerChoiceDesc, NextPage: domain.UnresolvedPage})
	}
	return choices
}

// stringOr returns v as a normalized string, or def when v is not a
// string or is blank.
func stringOr(v any, def string) string {
	s, ok := v.(string)
	if !ok {
		return def
	}
	s = strings.TrimSpace(collapseNewlines(strings.ToValidUTF8(s, "")))
	if s == "" {
		return def
	}
	return s
}

func collapseNewlines(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}
