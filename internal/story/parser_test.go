package story_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtg123uk/storyai/internal/domain"
	"github.com/rtg123uk/storyai/internal/story"
)

func assertWellFormed(t *testing.T, p story.PageContent) {
	t.Helper()
	assert.NotEmpty(t, p.Title)
	assert.NotEmpty(t, p.Content)
	require.Len(t, p.Choices, 3)
	for _, c := range p.Choices {
		assert.NotEmpty(t, c.Text)
		assert.NotEmpty(t, c.Description)
		assert.Equal(t, domain.UnresolvedPage, c.NextPage)
	}
}

func TestParsePageContent_ValidJSON(t *testing.T) {
	raw := `{"title":" The Cave ","content":"Mia found a cave.","choices":[{"text":"Go in","description":"Brave"},{"text":"Wait","description":"Patient"},{"text":"Call","description":"Loud"},{"text":"Extra","description":"dropped"}]}`

	p := story.ParsePageContent(raw)

	assertWellFormed(t, p)
	assert.Equal(t, "The Cave", p.Title)
	assert.Equal(t, "Mia found a cave.", p.Content)
	assert.Equal(t, "Go in", p.Choices[0].Text)
	assert.Equal(t, "Call", p.Choices[2].Text)
}

func TestParsePageContent_FencedWithNewlines(t *testing.T) {
	raw := "Here is your page:\n```json\n{\n  \"title\": \"River\",\n  \"content\": \"Line one.\\nLine two.\",\n  \"choices\": [{\"text\": \"Swim\", \"description\": \"Splash\"}]\n}\n```\nEnjoy!"

	p := story.ParsePageContent(raw)

	assertWellFormed(t, p)
	assert.Equal(t, "River", p.Title)
	assert.Equal(t, "Line one. Line two.", p.Content)
	assert.Equal(t, "Swim", p.Choices[0].Text)
	assert.Equal(t, story.FillerChoiceText, p.Choices[1].Text)
	assert.Equal(t, story.FillerChoiceDesc, p.Choices[2].Description)
}

func TestParsePageContent_MissingFields(t *testing.T) {
	p := story.ParsePageContent(`{"content": 42, "choices": []}`)

	assertWellFormed(t, p)
	assert.Equal(t, story.DefaultPageTitle, p.Title)
	assert.Equal(t, story.DefaultPageContent, p.Content)
	assert.Equal(t, story.DefaultChoices, p.Choices)
}

func TestParsePageContent_ChoiceEntriesNormalized(t *testing.T) {
	p := story.ParsePageContent(`{"title":"T","content":"C","choices":[{"text":"  "}, "oops", {"text":"Jump","description":7}]}`)

	assertWellFormed(t, p)
	assert.Equal(t, story.FillerChoiceText, p.Choices[0].Text)
	assert.Equal(t, story.FillerChoiceText, p.Choices[1].Text)
	assert.Equal(t, "Jump", p.Choices[2].Text)
	assert.Equal(t, story.FillerChoiceDesc, p.Choices[2].Description)
}

func TestParsePageContent_Fallback(t *testing.T) {
	p := story.ParsePageContent("```json\nOnce upon a time {not json\n```")

	assertWellFormed(t, p)
	assert.Equal(t, story.DefaultPageTitle, p.Title)
	assert.Equal(t, "Once upon a time {not json", p.Content)
	assert.Equal(t, story.DefaultChoices, p.Choices)
}

func TestParsePageContent_Total(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"```",
		"``````",
		"null",
		"[]",
		`"just a string"`,
		"42",
		"{",
		`{"title": null, "content": null, "choices": null}`,
		`{"choices": {"text": "not an array"}}`,
		"\xff\xfe invalid utf8",
		`{"title":"\u0000","content":"\t"}`,
		"```json\n```",
		`\n\n\n`,
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			assertWellFormed(t, story.ParsePageContent(in))
		})
	}
}

func TestParsePageContent_Idempotent(t *testing.T) {
	inputs := []string{
		`{"title":"A","content":"B","choices":[{"text":"x","description":"y"}]}`,
		"```json\n{\"title\": \"Fenced\", \"content\": \"multi\\nline\"}\n```",
		"not json at all\nwith two lines",
		"C:\\new folder says hello",
		"",
		`{"title":"<b>&</b>","content":"quotes \" inside"}`,
	}
	for _, in := range inputs {
		first := story.ParsePageContent(in)
		data, err := json.Marshal(first)
		require.NoError(t, err)
		second := story.ParsePageContent(string(data))
		assert.Equal(t, first, second, "input %q", in)
	}
}
