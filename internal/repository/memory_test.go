package repository_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtg123uk/storyai/internal/domain"
	"github.com/rtg123uk/storyai/internal/repository"
)

func TestMemoryTitleHistory(t *testing.T) {
	testTitleHistory(t, repository.NewMemoryTitleHistory())
}

func TestMemoryStoryStore(t *testing.T) {
	testStoryStore(t, repository.NewMemoryStoryStore())
}

func TestMemoryStoryStore_SnapshotsAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStoryStore()
	s := sampleStory(epoch)
	require.NoError(t, store.Save(ctx, "user-1", s))

	s.Title = "Changed after save"
	got, err := store.Get(ctx, "user-1", s.ID)
	require.NoError(t, err)
	assert.Equal(t, "The Moon Garden", got.Title)

	got.Pages[0].Title = "Changed after get"
	again, err := store.Get(ctx, "user-1", s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Seeds of Light", again.Pages[0].Title)
}

func TestMemoryTitleHistory_Concurrent(t *testing.T) {
	ctx := context.Background()
	h := repository.NewMemoryTitleHistory()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Insert(ctx, domain.TitleRecord{Title: "t", CreatedAt: epoch})
			_, _ = h.ListRecent(ctx, 5)
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, h.Len())
}
