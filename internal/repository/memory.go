package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/rtg123uk/storyai/internal/domain"
)

// MemoryTitleHistory keeps titles in process memory.
type MemoryTitleHistory struct {
	mu      sync.Mutex
	records []domain.TitleRecord // insertion order
}

func NewMemoryTitleHistory() *MemoryTitleHistory {
	return &MemoryTitleHistory{}
}

func (h *MemoryTitleHistory) ListRecent(_ context.Context, limit int) ([]domain.TitleRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]domain.TitleRecord, 0, len(h.records))
	for i := len(h.records) - 1; i >= 0; i-- {
		out = append(out, h.records[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (h *MemoryTitleHistory) Insert(_ context.Context, rec domain.TitleRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, rec)
	return nil
}

func (h *MemoryTitleHistory) DeleteOldest(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.records) == 0 {
		return nil
	}
	oldest := 0
	for i, r := range h.records {
		if r.CreatedAt.Before(h.records[oldest].CreatedAt) {
			oldest = i
		}
	}
	h.records = append(h.records[:oldest], h.records[oldest+1:]...)
	return nil
}

// Len returns the number of stored titles.
func (h *MemoryTitleHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

type memoryEntry struct {
	userID string
	data   []byte
}

// MemoryStoryStore keeps JSON snapshots of stories in process memory.
type MemoryStoryStore struct {
	mu      sync.RWMutex
	stories map[string]memoryEntry
}

func NewMemoryStoryStore() *MemoryStoryStore {
	return &MemoryStoryStore{stories: make(map[string]memoryEntry)}
}

func (m *MemoryStoryStore) Save(_ context.Context, userID string, s *domain.Story) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode story %s: %w", s.ID, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.stories[s.ID]; ok && prev.userID != userID {
		return fmt.Errorf("story %s: %w", s.ID, domain.ErrNotFound)
	}
	m.stories[s.ID] = memoryEntry{userID: userID, data: data}
	return nil
}

func (m *MemoryStoryStore) ListByUser(_ context.Context, userID string) ([]domain.StorySummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []domain.StorySummary{}
	for _, e := range m.stories {
		if e.userID != userID {
			continue
		}
		var s domain.Story
		if err := json.Unmarshal(e.data, &s); err != nil {
			return nil, err
		}
		out = append(out, summarize(&s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStoryStore) Get(_ context.Context, userID, storyID string) (*domain.Story, error) {
	m.mu.RLock()
	e, ok := m.stories[storyID]
	m.mu.RUnlock()
	if !ok || e.userID != userID {
		return nil, domain.ErrNotFound
	}
	var s domain.Story
	if err := json.Unmarshal(e.data, &s); err != nil {
		return nil, fmt.Errorf("decode story %s: %w", storyID, err)
	}
	return &s, nil
}
