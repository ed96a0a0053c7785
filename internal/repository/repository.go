// Package repository holds the title history and story storage backends.
package repository

import (
	"context"
	"strconv"

	"github.com/rtg123uk/storyai/internal/domain"
	"github.com/rtg123uk/storyai/internal/story"
)

// StoryStore persists stories per user. Save replaces any stored version
// of the same story.
type StoryStore interface {
	Save(ctx context.Context, userID string, s *domain.Story) error
	ListByUser(ctx context.Context, userID string) ([]domain.StorySummary, error)
	Get(ctx context.Context, userID, storyID string) (*domain.Story, error)
}

// Compile-time checks
var (
	_ story.TitleHistory = (*MemoryTitleHistory)(nil)
	_ story.TitleHistory = (*PgTitleHistory)(nil)
	_ story.TitleHistory = (*RedisTitleHistory)(nil)
	_ story.TitleHistory = (*SQLiteTitleHistory)(nil)

	_ StoryStore = (*MemoryStoryStore)(nil)
	_ StoryStore = (*PgStoryStore)(nil)
	_ StoryStore = (*MongoStoryStore)(nil)
)

// summarize builds the list view of a story.
func summarize(s *domain.Story) domain.StorySummary {
	return domain.StorySummary{
		ID:         s.ID,
		Title:      s.Title,
		Theme:      s.Metadata.Theme,
		TotalPages: s.Metadata.TotalPages,
		PageCount:  len(s.Pages),
		CreatedAt:  s.Metadata.CreatedAt,
	}
}

// pageTitle falls back to "Page N" for untitled pages.
func pageTitle(p domain.Page) string {
	if p.Title != "" {
		return p.Title
	}
	return "Page " + strconv.Itoa(p.PageNumber)
}
