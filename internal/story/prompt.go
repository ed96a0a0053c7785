package story

import (
	"fmt"
	"strings"

	"github.com/rtg123uk/storyai/internal/domain"
)

// PageSystemPrompt is the system message for single page requests.
const PageSystemPrompt = "You are a specialized AI children's story generator. Create engaging, age-appropriate content in JSON format with title, content, and choices."

// continuityExcerptRunes bounds the previous-page summary.
const continuityExcerptRunes = 200

const pageJSONShape = `Format the response as a JSON object with:
{
  "title": "An engaging page title",
  "content": "The story content for this page",
  "choices": [
    {
      "text": "First choice option",
      "description": "Brief description of what this choice means"
    },
    {
      "text": "Second choice option",
      "description": "Brief description of what this choice means"
    },
    {
      "text": "Third choice option",
      "description": "Brief description of what this choice means"
    }
  ]
}`

// PagePromptInput is everything the page prompt depends on.
type PagePromptInput struct {
	ChildName     string
	AgeGroup      string
	Theme         string
	ChoiceMade    *domain.Choice
	CurrentPage   int
	TotalPages    int
	PreviousPages []domain.Page
	UseCustomName bool
	// Friends is empty unless friends should appear in the story.
	Friends string
}

// PageInputFromParams fills the parameter-derived fields of a prompt input.
func PageInputFromParams(p domain.StoryParameters) PagePromptInput {
	return PagePromptInput{
		ChildName:     p.ChildName,
		AgeGroup:      p.AgeGroup,
		Theme:         p.Theme,
		UseCustomName: p.UseCustomName,
		Friends:       p.FriendList(),
	}
}

// BuildPagePrompt renders the user prompt for one page. The template is
// chosen by ClassifyPhase(in.CurrentPage, in.TotalPages).
func BuildPagePrompt(in PagePromptInput) string {
	var b strings.Builder
	b.WriteString(phaseInstructions(ClassifyPhase(in.CurrentPage, in.TotalPages), in))

	if n := len(in.PreviousPages); n > 0 {
		last := in.PreviousPages[n-1]
		fmt.Fprintf(&b, "\nPrevious page title: %q\nPrevious page summary: \"%s...\"", last.Title, truncateRunes(last.Content, continuityExcerptRunes))
	}

	b.WriteString("\n\n")
	b.WriteString(pageJSONShape)
	b.WriteString("\n\nFor the last page, make the choices reflect the ending of the story.")
	fmt.Fprintf(&b, "\nAge-appropriate language for %s years old.", in.AgeGroup)
	fmt.Fprintf(&b, "\nTheme: %s", in.Theme)
	if in.UseCustomName {
		fmt.Fprintf(&b, "\nRemember to use their real name %q consistently throughout the story.", in.ChildName)
	}
	if in.Friends != "" {
		fmt.Fprintf(&b, "\nInclude their friends (%s) as important characters in the story.", in.Friends)
	}
	return b.String()
}

func phaseInstructions(phase Phase, in PagePromptInput) string {
	lines := make([]string, 0, 4)
	add := func(cond bool, format string, args ...any) {
		if cond {
			lines = append(lines, fmt.Sprintf(format, args...))
		}
	}
	friends := in.Friends != ""

	switch phase {
	case PhaseIntroduction:
		add(true, "Create the opening page of a children's story for %s (age %s) about %s.", in.ChildName, in.AgeGroup, in.Theme)
		add(true, "Set up the main character and the story world. Make it engaging and fun.")
		add(in.UseCustomName, "Use their real name %q as the main character.", in.ChildName)
		add(friends, "Include their friends: %s.", in.Friends)
	case PhaseRisingAction:
		add(true, "Continue the story as tension builds. Introduce challenges or obstacles for the character to face.")
		add(friends, "Remember to include their friends: %s.", in.Friends)
		add(true, "Previous choice: %q", choiceText(in.ChoiceMade, "Starting the adventure"))
	case PhaseClimax:
		add(true, "This is the peak of the story! Create an exciting and dramatic moment where the main conflict comes to a head.")
		add(friends, "Make sure their friends (%s) play important roles in the climax.", in.Friends)
		add(true, "Make this the most thrilling part of the adventure. Previous choice: %q", choiceText(in.ChoiceMade, "Approaching the climax"))
	case PhaseFallingAction:
		add(true, "Begin wrapping up the main conflict while maintaining excitement. Show the consequences of the climax.")
		add(friends, "Include how their friends (%s) helped resolve the situation.", in.Friends)
		add(true, "Previous choice: %q", choiceText(in.ChoiceMade, "After the big moment"))
	default:
		add(true, "Create a satisfying conclusion that wraps up the story and reinforces the theme.")
		add(friends, "Celebrate the friendship between %s and their friends (%s).", in.ChildName, in.Friends)
		add(true, "Make sure it's meaningful for %s and ties everything together.", in.ChildName)
		add(true, "This is the final page: the choices must bring the story to a close.")
	}
	return strings.Join(lines, "\n")
}

func choiceText(c *domain.Choice, fallback string) string {
	if c == nil || strings.TrimSpace(c.Text) == "" {
		return fallback
	}
	return c.Text
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

const storySystemTemplate = `You are a specialized AI children's story generator designed to create engaging, interactive stories for %[1]s year olds.

Story Configuration:
- Opening Style: %[2]s
- Narrative Perspective: %[3]s
- Story Structure: %[4]s
- Theme: %[5]s
- Age Group: %[1]s

Create a story with exactly %[6]d pages where:
1. Each page has substantial content (at least 200 words)
2. Each page offers 2-3 meaningful choices
3. Choices lead to different adventures or activities
4. Content is age-appropriate and educational
5. Language is engaging and descriptive
6. The story must conclude within exactly %[6]d pages
7. The final page should provide a satisfying conclusion without choices
8. Generate a UNIQUE and CREATIVE title that hasn't been used before

Requirements:
1. Start with a fresh, unique opening that matches the selected opening style
2. Maintain the chosen narrative perspective throughout
3. Follow the selected story structure while incorporating the theme
4. Ensure age-appropriate language and concepts
5. Create vivid scenes with sensory details
6. Include meaningful character development
7. Maintain internal consistency and logic
8. Blend educational elements naturally into the narrative

Format each page's content in markdown like this:
# Unique Story Title That Hasn't Been Used Before
Story content goes here (minimum 200 words per page)...

**What would you like to do?**:
**First option**: what happens if you pick it
**Second option**: what happens if you pick it

Separate pages with a line containing only ---
Leave out the "What would you like to do?" section on the final page.`

const storyUserTemplate = `Create a %[1]s interactive story for %[2]s with these requirements:
1. Theme: %[3]s
2. Style: %[4]s
3. Age Group: %[5]s (adjust vocabulary accordingly)
4. Interactive Elements:
   - Include meaningful choices on each page (except the last)
   - Each choice leads to a new adventure
   - Keep choices clear and straightforward
   - Make each path fun and engaging
5. Learning Integration:
   - Include age-appropriate educational content
   - Use vocabulary suitable for %[5]s age group
   - Make learning natural and fun
6. Story Structure:
   - Exactly %[6]d pages
   - Rich content on each page (minimum 200 words)
   - Satisfying conclusion on the final page`

// BuildStoryPrompt renders the system and user prompts for eager
// generation of a whole story.
func BuildStoryPrompt(p domain.StoryParameters, v Variety) (system, user string) {
	pages := int(p.StoryLength)
	system = fmt.Sprintf(storySystemTemplate, p.AgeGroup, v.OpeningStyle, v.Perspective, v.Structure, p.Theme, pages)
	user = fmt.Sprintf(storyUserTemplate, p.StoryLength.String(), p.ChildName, p.Theme, p.NarrationStyle, p.AgeGroup, pages)

	var extra []string
	if p.UseCustomName {
		extra = append(extra, fmt.Sprintf("Use their real name %q as the main character.", p.ChildName))
	}
	if friends := p.FriendList(); friends != "" {
		extra = append(extra, fmt.Sprintf("Include their friends (%s) as important characters in the story.", friends))
	}
	if len(extra) > 0 {
		user += "\n" + strings.Join(extra, "\n")
	}
	return system, user
}
