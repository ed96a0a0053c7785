package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/rtg123uk/storyai/internal/domain"
	"github.com/rtg123uk/storyai/internal/story"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F780FF")).Bold(true)
	progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4")).Italic(true)
	choiceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BE9FD"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555")).Bold(true)
)

// pageMarkdown renders one page, with its choices as a numbered list.
func pageMarkdown(p domain.Page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %d. %s\n\n", p.PageNumber, p.Title)
	b.WriteString(strings.TrimSpace(p.Content))
	b.WriteString("\n")
	if p.Illustration != nil {
		fmt.Fprintf(&b, "\n![illustration](%s)\n", *p.Illustration)
	}
	if len(p.Choices) > 0 {
		b.WriteString("\n**What would you like to do?**\n\n")
		for i, c := range p.Choices {
			if c.Description != "" {
				fmt.Fprintf(&b, "%d. **%s**: %s\n", i+1, c.Text, c.Description)
			} else {
				fmt.Fprintf(&b, "%d. **%s**\n", i+1, c.Text)
			}
		}
	}
	return b.String()
}

// storyMarkdown renders the title and every page separated by rules.
func storyMarkdown(st *domain.Story) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", st.Title)
	for i, p := range st.Pages {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		b.WriteString(pageMarkdown(p))
	}
	return b.String()
}

// renderMarkdown styles md for the terminal, or returns it unchanged when
// no renderer is available.
func renderMarkdown(md string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func progressLine(p story.Progress) string {
	switch p.Stage {
	case story.StageTextStarted:
		if p.Page > 0 {
			return progressStyle.Render(fmt.Sprintf("→ Writing page %d of %d...", p.Page, p.Total))
		}
		return progressStyle.Render(fmt.Sprintf("→ Writing a %d page story...", p.Total))
	case story.StageTextDone:
		return progressStyle.Render("→ Text ready")
	case story.StagePageAssets:
		return progressStyle.Render(fmt.Sprintf("→ Page %d illustrated and narrated", p.Page))
	case story.StageStoryComplete:
		return successStyle.Render("✓ Story complete")
	default:
		return progressStyle.Render(string(p.Stage))
	}
}
