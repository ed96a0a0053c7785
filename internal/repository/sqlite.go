package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/rtg123uk/storyai/internal/domain"
)

const sqliteTitlesSchema = `
CREATE TABLE IF NOT EXISTS story_titles (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    title      TEXT    NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_story_titles_created_at ON story_titles (created_at);
`

// SQLiteTitleHistory keeps titles in a local SQLite file for the CLI.
type SQLiteTitleHistory struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenSQLiteTitleHistory opens or creates the database at path.
func OpenSQLiteTitleHistory(ctx context.Context, path string, logger *zap.Logger) (*SQLiteTitleHistory, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA journal_mode=WAL", sqliteTitlesSchema} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("prepare sqlite %s: %w", path, err)
		}
	}
	return &SQLiteTitleHistory{db: db, logger: logger.Named("SQLiteTitleHistory")}, nil
}

func (h *SQLiteTitleHistory) ListRecent(ctx context.Context, limit int) ([]domain.TitleRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT title, created_at FROM story_titles ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list titles: %w", domain.ErrHistoryUnavailable, err)
	}
	defer rows.Close()

	var recs []domain.TitleRecord
	for rows.Next() {
		var (
			title string
			nanos int64
		)
		if err := rows.Scan(&title, &nanos); err != nil {
			return nil, fmt.Errorf("%w: scan title: %w", domain.ErrHistoryUnavailable, err)
		}
		recs = append(recs, domain.TitleRecord{Title: title, CreatedAt: time.Unix(0, nanos).UTC()})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list titles: %w", domain.ErrHistoryUnavailable, err)
	}
	return recs, nil
}

func (h *SQLiteTitleHistory) Insert(ctx context.Context, rec domain.TitleRecord) error {
	_, err := h.db.ExecContext(ctx, `INSERT INTO story_titles (title, created_at) VALUES (?, ?)`,
		rec.Title, rec.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("%w: insert title: %w", domain.ErrHistoryUnavailable, err)
	}
	return nil
}

func (h *SQLiteTitleHistory) DeleteOldest(ctx context.Context) error {
	_, err := h.db.ExecContext(ctx,
		`DELETE FROM story_titles WHERE id = (SELECT id FROM story_titles ORDER BY created_at ASC, id ASC LIMIT 1)`)
	if err != nil {
		return fmt.Errorf("%w: delete oldest title: %w", domain.ErrHistoryUnavailable, err)
	}
	return nil
}

func (h *SQLiteTitleHistory) Close() error {
	return h.db.Close()
}
