package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Narration styles.
const (
	StyleWarm     = "warm"
	StyleExciting = "exciting"
	StyleCalm     = "calm"
	StyleFunny    = "funny"
	StyleMagical  = "magical"
	StyleWise     = "wise"
)

// DefaultStoryLength is used when the requested length cannot be read.
const DefaultStoryLength StoryLength = 5

var voiceIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

var supportedAgeGroups = map[string]bool{"4-6": true, "7-9": true, "10-12": true}

var supportedStyles = map[string]bool{
	StyleWarm: true, StyleExciting: true, StyleCalm: true,
	StyleFunny: true, StyleMagical: true, StyleWise: true,
}

// StoryLength is a page count. In JSON it accepts either 10 or "10 pages".
type StoryLength int

func (l *StoryLength) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*l = StoryLength(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: storyLength must be a number or \"N pages\"", ErrInvalidParameters)
	}
	*l = ParseStoryLength(s)
	return nil
}

// ParseStoryLength reads the leading integer of values like "10 pages".
// Anything unreadable yields DefaultStoryLength.
func ParseStoryLength(s string) StoryLength {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return DefaultStoryLength
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 1 {
		return DefaultStoryLength
	}
	return StoryLength(n)
}

func (l StoryLength) String() string {
	return fmt.Sprintf("%d pages", int(l))
}

// StoryParameters are the user's choices for a story. Treat as immutable.
type StoryParameters struct {
	ChildName       string      `json:"childName" bson:"child_name"`
	AgeGroup        string      `json:"ageGroup" bson:"age_group"`
	Theme           string      `json:"theme" bson:"theme"`
	StoryLength     StoryLength `json:"storyLength" bson:"story_length"`
	NarrationStyle  string      `json:"narrationStyle" bson:"narration_style"`
	IsInteractive   bool        `json:"isInteractive" bson:"is_interactive"`
	UseVoice        bool        `json:"useVoice" bson:"use_voice"`
	SelectedVoiceID string      `json:"selectedVoiceId,omitempty" bson:"selected_voice_id,omitempty"`
	UseCustomName   bool        `json:"useCustomName,omitempty" bson:"use_custom_name,omitempty"`
	IncludeFriends  bool        `json:"includeFriends,omitempty" bson:"include_friends,omitempty"`
	FriendNames     []string    `json:"friendNames,omitempty" bson:"friend_names,omitempty"`
}

// Validate checks the parameters and fills in defaults for optional fields.
func (p StoryParameters) Validate() (StoryParameters, error) {
	p.ChildName = strings.TrimSpace(p.ChildName)
	p.Theme = strings.TrimSpace(p.Theme)
	if p.ChildName == "" {
		return p, fmt.Errorf("%w: childName is required", ErrInvalidParameters)
	}
	if p.Theme == "" {
		return p, fmt.Errorf("%w: theme is required", ErrInvalidParameters)
	}
	if !supportedAgeGroups[p.AgeGroup] {
		return p, fmt.Errorf("%w: unsupported ageGroup %q", ErrInvalidParameters, p.AgeGroup)
	}
	if p.StoryLength == 0 {
		p.StoryLength = DefaultStoryLength
	}
	switch p.StoryLength {
	case 5, 10, 15:
	default:
		return p, fmt.Errorf("%w: storyLength must be 5, 10 or 15 pages", ErrInvalidParameters)
	}
	if p.NarrationStyle == "" {
		p.NarrationStyle = StyleWarm
	}
	if !supportedStyles[p.NarrationStyle] {
		return p, fmt.Errorf("%w: unsupported narrationStyle %q", ErrInvalidParameters, p.NarrationStyle)
	}
	p.SelectedVoiceID = strings.TrimSpace(p.SelectedVoiceID)
	if p.SelectedVoiceID != "" && !voiceIDRe.MatchString(p.SelectedVoiceID) {
		return p, fmt.Errorf("%w: malformed selectedVoiceId", ErrInvalidParameters)
	}
	return p, nil
}

// FriendList joins friend names for prompts. Empty when friends are off.
func (p StoryParameters) FriendList() string {
	if !p.IncludeFriends {
		return ""
	}
	names := make([]string, 0, len(p.FriendNames))
	for _, n := range p.FriendNames {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return strings.Join(names, ", ")
}
