package domain

import (
	"time"
)

// UnresolvedPage marks a choice whose destination page does not exist yet.
const UnresolvedPage = -1

type Choice struct {
	Text        string `json:"text" bson:"text"`
	Description string `json:"description" bson:"description"`
	NextPage    int    `json:"nextPage" bson:"next_page"`
}

// Page is one page of a story. Audio is serialized as base64 by encoding/json.
type Page struct {
	PageNumber         int      `json:"pageNumber" bson:"page_number"`
	Title              string   `json:"title" bson:"title"`
	Content            string   `json:"content" bson:"content"`
	Choices            []Choice `json:"choices" bson:"choices"`
	Illustration       *string  `json:"illustration" bson:"illustration,omitempty"`
	IllustrationPrompt string   `json:"illustrationPrompt,omitempty" bson:"illustration_prompt,omitempty"`
	Audio              []byte   `json:"audio" bson:"audio,omitempty"`
	PreviousChoice     *Choice  `json:"previousChoice" bson:"previous_choice,omitempty"`
}

// StoryMetadata holds the generation parameters and progress of a story.
type StoryMetadata struct {
	StoryParameters `bson:",inline"`
	TotalPages      int       `json:"totalPages" bson:"total_pages"`
	CreatedAt       time.Time `json:"createdAt" bson:"created_at"`
	CurrentPage     int       `json:"currentPage" bson:"current_page"`
	StoryPath       []int     `json:"storyPath" bson:"story_path"`
}

// Story owns its pages. Pages[i] has PageNumber i+1; choices refer to
// other pages by number, never by pointer.
type Story struct {
	ID       string        `json:"id" bson:"_id"`
	Title    string        `json:"title" bson:"title"`
	Pages    []Page        `json:"pages" bson:"pages"`
	Metadata StoryMetadata `json:"metadata" bson:"metadata"`
}

// AppendPage adds p as the next page and returns its assigned number.
func (s *Story) AppendPage(p Page) int {
	p.PageNumber = len(s.Pages) + 1
	if p.Choices == nil {
		p.Choices = []Choice{}
	}
	s.Pages = append(s.Pages, p)
	return p.PageNumber
}

// Page returns the page with the given 1-based number.
func (s *Story) Page(number int) (*Page, bool) {
	if number < 1 || number > len(s.Pages) {
		return nil, false
	}
	return &s.Pages[number-1], true
}

// LastPage returns the most recently appended page.
func (s *Story) LastPage() (*Page, bool) {
	return s.Page(len(s.Pages))
}

// Complete reports whether every planned page exists.
func (s *Story) Complete() bool {
	return s.Metadata.TotalPages > 0 && len(s.Pages) >= s.Metadata.TotalPages
}

// StorySummary is the list view of a stored story.
type StorySummary struct {
	ID         string    `json:"id" db:"id"`
	Title      string    `json:"title" db:"title"`
	Theme      string    `json:"theme" db:"theme"`
	TotalPages int       `json:"totalPages" db:"total_pages"`
	PageCount  int       `json:"pageCount" db:"page_count"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// TitleRecord is one entry of the recent-titles history.
type TitleRecord struct {
	Title     string    `json:"title" db:"title"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
