package repository_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rtg123uk/storyai/internal/domain"
	"github.com/rtg123uk/storyai/internal/repository"
)

func TestSQLiteTitleHistory(t *testing.T) {
	h, err := repository.OpenSQLiteTitleHistory(context.Background(), filepath.Join(t.TempDir(), "titles.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	testTitleHistory(t, h)
}

func TestSQLiteTitleHistory_Persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "titles.db")

	h, err := repository.OpenSQLiteTitleHistory(ctx, path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, h.Insert(ctx, domain.TitleRecord{Title: "Kept", CreatedAt: epoch}))
	require.NoError(t, h.Close())

	h, err = repository.OpenSQLiteTitleHistory(ctx, path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	recent, err := h.ListRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "Kept", recent[0].Title)
	assert.True(t, epoch.Equal(recent[0].CreatedAt))
}
