package story

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rtg123uk/storyai/internal/domain"
)

// DefaultTitleHistoryLimit bounds the titles checked for collisions.
const DefaultTitleHistoryLimit = 100

// TitleHistory stores recently used story titles.
type TitleHistory interface {
	// ListRecent returns up to limit records, newest first.
	ListRecent(ctx context.Context, limit int) ([]domain.TitleRecord, error)
	Insert(ctx context.Context, rec domain.TitleRecord) error
	DeleteOldest(ctx context.Context) error
}

// TitleDeduplicator keeps story titles unique among the most recent ones.
type TitleDeduplicator struct {
	history TitleHistory
	limit   int
	now     func() time.Time
	logger  *zap.Logger
}

// NewTitleDeduplicator creates a deduplicator. A nil now uses time.Now.
func NewTitleDeduplicator(history TitleHistory, limit int, now func() time.Time, logger *zap.Logger) *TitleDeduplicator {
	if limit < 1 {
		limit = DefaultTitleHistoryLimit
	}
	if now == nil {
		now = time.Now
	}
	return &TitleDeduplicator{
		history: history,
		limit:   limit,
		now:     now,
		logger:  logger.Named("TitleDeduplicator"),
	}
}

// Ensure returns candidate, or candidate with a " - A New Adventure NNNN"
// suffix when a recent title matches it case-insensitively. The returned
// title is recorded. History failures are logged and the candidate is
// returned unchanged.
func (d *TitleDeduplicator) Ensure(ctx context.Context, candidate string) string {
	if d == nil || d.history == nil {
		return candidate
	}
	log := d.logger.With(zap.String("candidate", candidate))

	recent, err := d.history.ListRecent(ctx, d.limit)
	if err != nil {
		log.Warn("Failed to read title history", zap.Error(err))
		return candidate
	}

	now := d.now()
	title := candidate
	for _, rec := range recent {
		if strings.EqualFold(rec.Title, candidate) {
			title = fmt.Sprintf("%s - A New Adventure %04d", candidate, now.UnixMilli()%10000)
			log.Info("Title collision, using variant", zap.String("title", title))
			break
		}
	}

	if err := d.history.Insert(ctx, domain.TitleRecord{Title: title, CreatedAt: now}); err != nil {
		log.Warn("Failed to record title", zap.Error(err))
		return candidate
	}
	if len(recent)+1 > d.limit {
		if err := d.history.DeleteOldest(ctx); err != nil {
			log.Warn("Failed to evict oldest title", zap.Error(err))
			return candidate
		}
	}
	return title
}
