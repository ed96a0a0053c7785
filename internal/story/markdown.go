package story

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rtg123uk/storyai/internal/domain"
)

var (
	pageSeparatorRe = regexp.MustCompile(`(?m)^[ \t]*-{3,}[ \t]*$`)
	choiceMarkerRe  = regexp.MustCompile(`(?i)\*\*What would you like to do\?\*\*:?`)
	choiceLineRe    = regexp.MustCompile(`^\s*(?:[-*]\s+|\d+[.)]\s+)?\*\*(.+?)\*\*:?\s*(.*)$`)
)

// MarkdownPage is one page extracted from an eager story response.
type MarkdownPage struct {
	Title              string
	Content            string
	Choices            []domain.Choice
	IllustrationPrompt string
}

// SplitStoryMarkdown splits an eager response into pages on lines made of
// dashes. Every block must start with a title line. Pages without a
// "What would you like to do?" section get an empty choice list.
func SplitStoryMarkdown(raw string) ([]MarkdownPage, error) {
	var blocks []string
	for _, b := range pageSeparatorRe.Split(raw, -1) {
		if b = strings.TrimSpace(b); b != "" {
			blocks = append(blocks, b)
		}
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: story response contains no pages", domain.ErrMalformedResponse)
	}

	pages := make([]MarkdownPage, 0, len(blocks))
	for i, block := range blocks {
		page, err := parseMarkdownBlock(block)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

func parseMarkdownBlock(block string) (MarkdownPage, error) {
	lines := strings.Split(strings.ReplaceAll(block, "\r\n", "\n"), "\n")

	// block is trimmed, so the first line is the title line
	title := strings.TrimSpace(strings.TrimLeft(lines[0], "# "))
	title = strings.TrimSpace(strings.Trim(title, "*"))
	if title == "" {
		return MarkdownPage{}, fmt.Errorf("%w: missing title line", domain.ErrMalformedResponse)
	}
	body := lines[1:]

	choices := []domain.Choice{}
	start, end := choiceSection(body)
	if start >= 0 {
		section := body[start:end]
		// text after the marker on its own line may already be a choice
		section[0] = choiceMarkerRe.ReplaceAllString(section[0], "")
		for _, line := range section {
			if c, ok := parseChoiceLine(line); ok {
				choices = append(choices, c)
			}
		}
		body = append(append([]string{}, body[:start]...), body[end:]...)
	}

	content := strings.TrimSpace(strings.Join(body, "\n"))
	return MarkdownPage{
		Title:              title,
		Content:            content,
		Choices:            choices,
		IllustrationPrompt: strings.TrimSpace(fmt.Sprintf("A child-friendly illustration of: %s. %s", title, firstLine(content))),
	}, nil
}

// choiceSection locates the marker line and the choice lines after it,
// skipping blank lines directly after the marker and stopping at the next
// blank line. start is -1 when there is no marker.
func choiceSection(lines []string) (start, end int) {
	start = -1
	for i, l := range lines {
		if choiceMarkerRe.MatchString(l) {
			start = i
			break
		}
	}
	if start < 0 {
		return -1, -1
	}
	end = start + 1
	for end < len(lines) && strings.TrimSpace(lines[end]) == "" {
		end++
	}
	for end < len(lines) && strings.TrimSpace(lines[end]) != "" {
		end++
	}
	return start, end
}

func parseChoiceLine(line string) (domain.Choice, bool) {
	m := choiceLineRe.FindStringSubmatch(line)
	if m == nil {
		return domain.Choice{}, false
	}
	text := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(m[1]), ":"))
	if text == "" {
		return domain.Choice{}, false
	}
	return domain.Choice{
		Text:        text,
		Description: strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(m[2]), ":")),
		NextPage:    domain.UnresolvedPage,
	}, true
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
