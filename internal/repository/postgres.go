package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/rtg123uk/storyai/internal/database"
	"github.com/rtg123uk/storyai/internal/domain"
)

const (
	listRecentTitlesQuery = `SELECT title, created_at FROM story_titles ORDER BY created_at DESC, id DESC LIMIT $1`
	insertTitleQuery      = `INSERT INTO story_titles (title, created_at) VALUES ($1, $2)`
	deleteOldestTitle     = `
        DELETE FROM story_titles
        WHERE id = (SELECT id FROM story_titles ORDER BY created_at ASC, id ASC LIMIT 1)
    `

	upsertStoryQuery = `
        INSERT INTO stories (id, user_id, title, theme, total_pages, metadata, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (id) DO UPDATE SET
            title = EXCLUDED.title,
            metadata = EXCLUDED.metadata,
            updated_at = now()
        WHERE stories.user_id = EXCLUDED.user_id
    `
	deletePagesQuery = `DELETE FROM story_pages WHERE story_id = $1`
	insertPageQuery  = `
        INSERT INTO story_pages (story_id, page_number, title, content, choices, previous_choice,
                                 illustration_url, illustration_prompt, audio)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	listStoriesByUserQuery = `
        SELECT s.id, s.title, s.theme, s.total_pages, s.created_at,
               (SELECT count(*) FROM story_pages p WHERE p.story_id = s.id) AS page_count
        FROM stories s
        WHERE s.user_id = $1
        ORDER BY s.created_at DESC
    `
	getStoryQuery = `SELECT id, title, metadata FROM stories WHERE id = $1 AND user_id = $2`
	getPagesQuery = `
        SELECT page_number, title, content, choices, previous_choice, illustration_url, illustration_prompt, audio
        FROM story_pages
        WHERE story_id = $1
        ORDER BY page_number
    `
)

// PgTitleHistory stores recent titles in the story_titles table.
type PgTitleHistory struct {
	db     database.DBTX
	logger *zap.Logger
}

func NewPgTitleHistory(db database.DBTX, logger *zap.Logger) *PgTitleHistory {
	return &PgTitleHistory{db: db, logger: logger.Named("PgTitleHistory")}
}

func (h *PgTitleHistory) ListRecent(ctx context.Context, limit int) ([]domain.TitleRecord, error) {
	var recs []domain.TitleRecord
	if err := pgxscan.Select(ctx, h.db, &recs, listRecentTitlesQuery, limit); err != nil {
		return nil, fmt.Errorf("%w: list titles: %w", domain.ErrHistoryUnavailable, err)
	}
	return recs, nil
}

func (h *PgTitleHistory) Insert(ctx context.Context, rec domain.TitleRecord) error {
	if _, err := h.db.Exec(ctx, insertTitleQuery, rec.Title, rec.CreatedAt); err != nil {
		return fmt.Errorf("%w: insert title: %w", domain.ErrHistoryUnavailable, err)
	}
	return nil
}

func (h *PgTitleHistory) DeleteOldest(ctx context.Context) error {
	if _, err := h.db.Exec(ctx, deleteOldestTitle); err != nil {
		return fmt.Errorf("%w: delete oldest title: %w", domain.ErrHistoryUnavailable, err)
	}
	return nil
}

// PgStoryStore keeps stories in the stories and story_pages tables.
type PgStoryStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPgStoryStore(pool *pgxpool.Pool, logger *zap.Logger) *PgStoryStore {
	return &PgStoryStore{pool: pool, logger: logger.Named("PgStoryStore")}
}

// Save writes the story row and replaces its pages in one transaction.
// A story owned by another user is reported as ErrNotFound.
func (r *PgStoryStore) Save(ctx context.Context, userID string, s *domain.Story) error {
	log := r.logger.With(zap.String("storyID", s.ID), zap.String("userID", userID))

	metadata, err := json.Marshal(s.Metadata)
	if err != nil {
		return fmt.Errorf("marshal story metadata: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save story tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, upsertStoryQuery, s.ID, userID, s.Title, s.Metadata.Theme, s.Metadata.TotalPages, metadata, s.Metadata.CreatedAt)
	if err != nil {
		log.Error("Failed to upsert story", zap.Error(err))
		return fmt.Errorf("upsert story %s: %w", s.ID, err)
	}
	if tag.RowsAffected() == 0 {
		log.Warn("Story belongs to another user")
		return domain.ErrNotFound
	}
	if _, err := tx.Exec(ctx, deletePagesQuery, s.ID); err != nil {
		return fmt.Errorf("clear pages of story %s: %w", s.ID, err)
	}

	batch := &pgx.Batch{}
	for _, p := range s.Pages {
		choices, err := json.Marshal(p.Choices)
		if err != nil {
			return fmt.Errorf("marshal choices of page %d: %w", p.PageNumber, err)
		}
		var previous []byte
		if p.PreviousChoice != nil {
			if previous, err = json.Marshal(p.PreviousChoice); err != nil {
				return fmt.Errorf("marshal previous choice of page %d: %w", p.PageNumber, err)
			}
		}
		batch.Queue(insertPageQuery, s.ID, p.PageNumber, pageTitle(p), p.Content, choices, previous,
			p.Illustration, p.IllustrationPrompt, p.Audio)
	}
	br := tx.SendBatch(ctx, batch)
	for range s.Pages {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			log.Error("Failed to insert story page", zap.Error(err))
			return fmt.Errorf("insert pages of story %s: %w", s.ID, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close page batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save story tx: %w", err)
	}
	log.Debug("Story saved", zap.Int("pages", len(s.Pages)))
	return nil
}

func (r *PgStoryStore) ListByUser(ctx context.Context, userID string) ([]domain.StorySummary, error) {
	summaries := []domain.StorySummary{}
	if err := pgxscan.Select(ctx, r.pool, &summaries, listStoriesByUserQuery, userID); err != nil {
		return nil, fmt.Errorf("list stories of user %s: %w", userID, err)
	}
	return summaries, nil
}

type storyRow struct {
	ID       string `db:"id"`
	Title    string `db:"title"`
	Metadata []byte `db:"metadata"`
}

type pageRow struct {
	PageNumber         int     `db:"page_number"`
	Title              string  `db:"title"`
	Content            string  `db:"content"`
	Choices            []byte  `db:"choices"`
	PreviousChoice     []byte  `db:"previous_choice"`
	IllustrationURL    *string `db:"illustration_url"`
	IllustrationPrompt string  `db:"illustration_prompt"`
	Audio              []byte  `db:"audio"`
}

func (r *PgStoryStore) Get(ctx context.Context, userID, storyID string) (*domain.Story, error) {
	var row storyRow
	if err := pgxscan.Get(ctx, r.pool, &row, getStoryQuery, storyID, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get story %s: %w", storyID, err)
	}

	s := &domain.Story{ID: row.ID, Title: row.Title}
	if err := json.Unmarshal(row.Metadata, &s.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata of story %s: %w", storyID, err)
	}

	var rows []pageRow
	if err := pgxscan.Select(ctx, r.pool, &rows, getPagesQuery, storyID); err != nil {
		return nil, fmt.Errorf("get pages of story %s: %w", storyID, err)
	}
	for _, pr := range rows {
		p := domain.Page{
			Title:              pr.Title,
			Content:            pr.Content,
			Illustration:       pr.IllustrationURL,
			IllustrationPrompt: pr.IllustrationPrompt,
			Audio:              pr.Audio,
		}
		if err := json.Unmarshal(pr.Choices, &p.Choices); err != nil {
			return nil, fmt.Errorf("decode choices of page %d: %w", pr.PageNumber, err)
		}
		if len(pr.PreviousChoice) > 0 {
			p.PreviousChoice = &domain.Choice{}
			if err := json.Unmarshal(pr.PreviousChoice, p.PreviousChoice); err != nil {
				return nil, fmt.Errorf("decode previous choice of page %d: %w", pr.PageNumber, err)
			}
		}
		s.AppendPage(p)
	}
	return s, nil
}
