package domain

// NarrationRequest describes the page text to be read aloud.
type NarrationRequest struct {
	Title           string
	Content         string
	Choices         []Choice
	Style           string
	UseVoice        bool
	SelectedVoiceID string
}
