package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rtg123uk/storyai/internal/domain"
)

// RedisTitleHistory keeps titles in a sorted set scored by creation time.
// Members are "<unix nanos>:<title>" so repeated titles stay distinct.
type RedisTitleHistory struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

func NewRedisTitleHistory(client *redis.Client, key string, logger *zap.Logger) *RedisTitleHistory {
	return &RedisTitleHistory{client: client, key: key, logger: logger.Named("RedisTitleHistory")}
}

func (h *RedisTitleHistory) ListRecent(ctx context.Context, limit int) ([]domain.TitleRecord, error) {
	stop := int64(limit) - 1
	if limit <= 0 {
		stop = -1
	}
	members, err := h.client.ZRevRange(ctx, h.key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: list titles: %w", domain.ErrHistoryUnavailable, err)
	}
	recs := make([]domain.TitleRecord, 0, len(members))
	for _, m := range members {
		rec, ok := decodeTitleMember(m)
		if !ok {
			h.logger.Warn("Skipping malformed title member", zap.String("member", m))
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (h *RedisTitleHistory) Insert(ctx context.Context, rec domain.TitleRecord) error {
	err := h.client.ZAdd(ctx, h.key, redis.Z{
		Score:  float64(rec.CreatedAt.UnixMilli()),
		Member: encodeTitleMember(rec),
	}).Err()
	if err != nil {
		return fmt.Errorf("%w: insert title: %w", domain.ErrHistoryUnavailable, err)
	}
	return nil
}

func (h *RedisTitleHistory) DeleteOldest(ctx context.Context) error {
	if err := h.client.ZPopMin(ctx, h.key, 1).Err(); err != nil {
		return fmt.Errorf("%w: delete oldest title: %w", domain.ErrHistoryUnavailable, err)
	}
	return nil
}

func encodeTitleMember(rec domain.TitleRecord) string {
	return strconv.FormatInt(rec.CreatedAt.UnixNano(), 10) + ":" + rec.Title
}

func decodeTitleMember(m string) (domain.TitleRecord, bool) {
	ts, title, ok := strings.Cut(m, ":")
	if !ok {
		return domain.TitleRecord{}, false
	}
	nanos, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return domain.TitleRecord{}, false
	}
	return domain.TitleRecord{Title: title, CreatedAt: time.Unix(0, nanos).UTC()}, true
}
