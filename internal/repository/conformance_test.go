package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtg123uk/storyai/internal/domain"
	"github.com/rtg123uk/storyai/internal/repository"
	"github.com/rtg123uk/storyai/internal/story"
)

var epoch = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

// testTitleHistory runs the behaviour every TitleHistory backend shares.
// h must be empty.
func testTitleHistory(t *testing.T, h story.TitleHistory) {
	t.Helper()
	ctx := context.Background()

	recent, err := h.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, recent)

	for i, title := range []string{"Oldest", "Middle", "Newest"} {
		require.NoError(t, h.Insert(ctx, domain.TitleRecord{Title: title, CreatedAt: epoch.Add(time.Duration(i) * time.Second)}))
	}

	recent, err = h.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "Newest", recent[0].Title)
	assert.Equal(t, "Middle", recent[1].Title)
	assert.WithinDuration(t, epoch.Add(2*time.Second), recent[0].CreatedAt, time.Millisecond)

	require.NoError(t, h.DeleteOldest(ctx))
	recent, err = h.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "Middle", recent[1].Title)

	// the same title may appear more than once
	require.NoError(t, h.Insert(ctx, domain.TitleRecord{Title: "Newest", CreatedAt: epoch.Add(3 * time.Second)}))
	recent, err = h.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "Newest", recent[0].Title)
	assert.Equal(t, "Newest", recent[1].Title)
}

func sampleStory(createdAt time.Time) *domain.Story {
	url := "https://img.example/page1.png"
	s := &domain.Story{
		ID:    uuid.NewString(),
		Title: "The Moon Garden",
		Metadata: domain.StoryMetadata{
			StoryParameters: domain.StoryParameters{
				ChildName:      "Leo",
				AgeGroup:       "7-9",
				Theme:          "moon gardens",
				StoryLength:    5,
				NarrationStyle: domain.StyleMagical,
				IsInteractive:  true,
			},
			TotalPages:  5,
			CreatedAt:   createdAt,
			CurrentPage: 1,
			StoryPath:   []int{0, 1},
		},
	}
	s.AppendPage(domain.Page{
		Title:        "Seeds of Light",
		Content:      "Leo found a glowing seed.",
		Choices:      []domain.Choice{{Text: "Plant it", Description: "In the moon soil", NextPage: 2}, {Text: "Keep it", Description: "In a pocket", NextPage: domain.UnresolvedPage}},
		Illustration: &url,
	})
	choice := s.Pages[0].Choices[0]
	s.AppendPage(domain.Page{
		Content:        "A silver sprout appeared.",
		Choices:        []domain.Choice{},
		Audio:          []byte{0x49, 0x44, 0x33},
		PreviousChoice: &choice,
	})
	return s
}

// testStoryStore runs the behaviour every StoryStore backend shares.
// store must be empty.
func testStoryStore(t *testing.T, store repository.StoryStore) {
	t.Helper()
	ctx := context.Background()

	first := sampleStory(epoch)
	require.NoError(t, store.Save(ctx, "user-1", first))

	got, err := store.Get(ctx, "user-1", first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Title, got.Title)
	assert.Equal(t, first.Metadata.StoryParameters, got.Metadata.StoryParameters)
	assert.Equal(t, []int{0, 1}, got.Metadata.StoryPath)
	assert.Equal(t, 5, got.Metadata.TotalPages)
	assert.WithinDuration(t, epoch, got.Metadata.CreatedAt, time.Millisecond)

	require.Len(t, got.Pages, 2)
	assert.Equal(t, 1, got.Pages[0].PageNumber)
	if diff := cmp.Diff(first.Pages[0].Choices, got.Pages[0].Choices); diff != "" {
		t.Errorf("page 1 choices mismatch (-want +got):\n%s", diff)
	}
	require.NotNil(t, got.Pages[0].Illustration)
	assert.Equal(t, *first.Pages[0].Illustration, *got.Pages[0].Illustration)
	assert.Nil(t, got.Pages[0].PreviousChoice)
	assert.Equal(t, 2, got.Pages[1].PageNumber)
	assert.Equal(t, []byte{0x49, 0x44, 0x33}, got.Pages[1].Audio)
	require.NotNil(t, got.Pages[1].PreviousChoice)
	assert.Equal(t, "Plant it", got.Pages[1].PreviousChoice.Text)
	assert.NotNil(t, got.Pages[1].Choices)
	assert.Empty(t, got.Pages[1].Choices)

	_, err = store.Get(ctx, "user-2", first.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.Get(ctx, "user-1", uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, store.Save(ctx, "user-2", first), domain.ErrNotFound)

	// saving again replaces the stored version
	first.AppendPage(domain.Page{Title: "Harvest", Content: "The garden bloomed.", PreviousChoice: &domain.Choice{Text: "Water it"}})
	require.NoError(t, store.Save(ctx, "user-1", first))
	got, err = store.Get(ctx, "user-1", first.ID)
	require.NoError(t, err)
	require.Len(t, got.Pages, 3)
	assert.Equal(t, "Harvest", got.Pages[2].Title)

	second := sampleStory(epoch.Add(time.Hour))
	second.Title = "The Second Garden"
	require.NoError(t, store.Save(ctx, "user-1", second))

	list, err := store.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, "The Second Garden", list[0].Title)
	assert.Equal(t, first.ID, list[1].ID)
	assert.Equal(t, 3, list[1].PageCount)
	assert.Equal(t, 5, list[1].TotalPages)
	assert.Equal(t, "moon gardens", list[1].Theme)

	others, err := store.ListByUser(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, others)
}
