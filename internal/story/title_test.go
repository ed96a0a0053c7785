package story_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rtg123uk/storyai/internal/domain"
	"github.com/rtg123uk/storyai/internal/mocks"
	"github.com/rtg123uk/storyai/internal/repository"
	"github.com/rtg123uk/storyai/internal/story"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTitleDeduplicator_PassThrough(t *testing.T) {
	history := repository.NewMemoryTitleHistory()
	d := story.NewTitleDeduplicator(history, 10, nil, zap.NewNop())

	assert.Equal(t, "The Brave Little Star", d.Ensure(context.Background(), "The Brave Little Star"))
	assert.Equal(t, 1, history.Len())
}

func TestTitleDeduplicator_Collision(t *testing.T) {
	ctx := context.Background()
	history := repository.NewMemoryTitleHistory()
	now := time.UnixMilli(1_700_000_012_345)
	d := story.NewTitleDeduplicator(history, 10, fixedClock(now), zap.NewNop())

	require.Equal(t, "Dragon's Quest", d.Ensure(ctx, "Dragon's Quest"))

	got := d.Ensure(ctx, "dragon's quest")
	assert.Regexp(t, `^dragon's quest - A New Adventure \d{4}$`, got)
	assert.Equal(t, "dragon's quest - A New Adventure 2345", got)

	recent, err := history.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	titles := []string{recent[0].Title, recent[1].Title}
	assert.ElementsMatch(t, []string{"Dragon's Quest", "dragon's quest - A New Adventure 2345"}, titles)
}

func TestTitleDeduplicator_EvictsAtLimit(t *testing.T) {
	ctx := context.Background()
	history := repository.NewMemoryTitleHistory()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	d := story.NewTitleDeduplicator(history, 3, clock, zap.NewNop())

	for _, title := range []string{"One", "Two", "Three", "Four", "Five"} {
		d.Ensure(ctx, title)
		assert.LessOrEqual(t, history.Len(), 3)
	}

	recent, err := history.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "Five", recent[0].Title)
	assert.Equal(t, "Three", recent[2].Title)

	// evicted titles no longer collide
	assert.Equal(t, "One", d.Ensure(ctx, "One"))
}

func TestTitleDeduplicator_HistoryErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")

	t.Run("list fails", func(t *testing.T) {
		history := mocks.NewMockTitleHistory(t)
		history.On("ListRecent", mock.Anything, 5).Return(nil, boom).Once()

		d := story.NewTitleDeduplicator(history, 5, nil, zap.NewNop())
		assert.Equal(t, "Moon Rabbit", d.Ensure(ctx, "Moon Rabbit"))
	})

	t.Run("insert fails after collision", func(t *testing.T) {
		history := mocks.NewMockTitleHistory(t)
		history.On("ListRecent", mock.Anything, 5).
			Return([]domain.TitleRecord{{Title: "Moon Rabbit"}}, nil).Once()
		history.On("Insert", mock.Anything, mock.AnythingOfType("domain.TitleRecord")).Return(boom).Once()

		d := story.NewTitleDeduplicator(history, 5, nil, zap.NewNop())
		assert.Equal(t, "Moon Rabbit", d.Ensure(ctx, "Moon Rabbit"))
	})

	t.Run("eviction fails", func(t *testing.T) {
		history := mocks.NewMockTitleHistory(t)
		history.On("ListRecent", mock.Anything, 1).
			Return([]domain.TitleRecord{{Title: "Old Tale"}}, nil).Once()
		history.On("Insert", mock.Anything, mock.MatchedBy(func(rec domain.TitleRecord) bool {
			return rec.Title == "Moon Rabbit"
		})).Return(nil).Once()
		history.On("DeleteOldest", mock.Anything).Return(boom).Once()

		d := story.NewTitleDeduplicator(history, 1, nil, zap.NewNop())
		assert.Equal(t, "Moon Rabbit", d.Ensure(ctx, "Moon Rabbit"))
	})
}

func TestTitleDeduplicator_NilIsPassThrough(t *testing.T) {
	var d *story.TitleDeduplicator
	assert.Equal(t, "Anything", d.Ensure(context.Background(), "Anything"))
}
