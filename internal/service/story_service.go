// Package service runs story operations on behalf of a signed-in user:
// generation through the orchestrator, persistence and event publishing.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rtg123uk/storyai/internal/domain"
	"github.com/rtg123uk/storyai/internal/image"
	"github.com/rtg123uk/storyai/internal/messaging"
	"github.com/rtg123uk/storyai/internal/repository"
	"github.com/rtg123uk/storyai/internal/session"
	"github.com/rtg123uk/storyai/internal/speech"
	"github.com/rtg123uk/storyai/internal/story"
)

// PortraitMaker draws character portraits.
type PortraitMaker interface {
	Portrait(ctx context.Context, c image.Character) (string, error)
}

// VoiceCatalog lists narration voices.
type VoiceCatalog interface {
	Voices(ctx context.Context) []speech.Voice
}

// Deps are the StoryService collaborators. Portraits and Voices may be nil.
type Deps struct {
	Orchestrator *story.Orchestrator
	Store        repository.StoryStore
	Events       messaging.EventPublisher
	Portraits    PortraitMaker
	Voices       VoiceCatalog
	Clock        func() time.Time
	Logger       *zap.Logger
}

// StoryService is safe for concurrent use. Choices on the same story are
// applied one at a time.
type StoryService struct {
	deps   Deps
	locks  *keyedMutex
	logger *zap.Logger
}

func NewStoryService(deps Deps) *StoryService {
	if deps.Events == nil {
		deps.Events = messaging.NopPublisher{}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &StoryService{deps: deps, locks: newKeyedMutex(), logger: deps.Logger.Named("StoryService")}
}

// Generate creates a complete story in one pass and stores it. progress may
// be nil.
func (s *StoryService) Generate(ctx context.Context, sess *session.Session, params domain.StoryParameters, progress story.ProgressFunc) (*domain.Story, error) {
	user, err := sess.RequireUser()
	if err != nil {
		return nil, err
	}
	orch := s.deps.Orchestrator
	if progress != nil {
		orch = orch.WithProgress(progress)
	}

	st, err := orch.GenerateStory(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, user, st); err != nil {
		return nil, err
	}
	s.publish(ctx, messaging.EventStoryCompleted, user, st)
	return st, nil
}

// Initialize starts an interactive story with its first page.
func (s *StoryService) Initialize(ctx context.Context, sess *session.Session, params domain.StoryParameters) (*domain.Story, error) {
	user, err := sess.RequireUser()
	if err != nil {
		return nil, err
	}
	st, err := s.deps.Orchestrator.InitializeStory(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, user, st); err != nil {
		return nil, err
	}
	s.publish(ctx, messaging.EventStoryCreated, user, st)
	return st, nil
}

// Continue applies the choice at choiceIndex on the story's last page.
func (s *StoryService) Continue(ctx context.Context, sess *session.Session, storyID string, choiceIndex int) (*domain.Story, error) {
	user, err := sess.RequireUser()
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(storyID)
	defer unlock()

	st, err := s.deps.Store.Get(ctx, user.ID, storyID)
	if err != nil {
		return nil, err
	}
	st, err = s.deps.Orchestrator.ContinueStory(ctx, st, choiceIndex)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, user, st); err != nil {
		return nil, err
	}
	ev := messaging.EventStoryPageAdded
	if st.Complete() {
		ev = messaging.EventStoryCompleted
	}
	s.publish(ctx, ev, user, st)
	return st, nil
}

// List returns the user's stories, newest first.
func (s *StoryService) List(ctx context.Context, sess *session.Session) ([]domain.StorySummary, error) {
	user, err := sess.RequireUser()
	if err != nil {
		return nil, err
	}
	return s.deps.Store.ListByUser(ctx, user.ID)
}

func (s *StoryService) Get(ctx context.Context, sess *session.Session, storyID string) (*domain.Story, error) {
	user, err := sess.RequireUser()
	if err != nil {
		return nil, err
	}
	return s.deps.Store.Get(ctx, user.ID, storyID)
}

// Portrait draws a character for the signed-in user.
func (s *StoryService) Portrait(ctx context.Context, sess *session.Session, c image.Character) (string, error) {
	if _, err := sess.RequireUser(); err != nil {
		return "", err
	}
	if s.deps.Portraits == nil {
		return "", fmt.Errorf("%w: portraits are not configured", domain.ErrUpstream)
	}
	return s.deps.Portraits.Portrait(ctx, c)
}

// Voices lists narration voices; without a catalog it returns the samples.
func (s *StoryService) Voices(ctx context.Context) []speech.Voice {
	if s.deps.Voices == nil {
		return speech.SampleVoices()
	}
	return s.deps.Voices.Voices(ctx)
}

func (s *StoryService) save(ctx context.Context, user session.User, st *domain.Story) error {
	if err := s.deps.Store.Save(ctx, user.ID, st); err != nil {
		s.logger.Error("Failed to save story", zap.String("storyID", st.ID), zap.String("userID", user.ID), zap.Error(err))
		return fmt.Errorf("save story: %w", err)
	}
	return nil
}

// publish is best effort; the story is already stored.
func (s *StoryService) publish(ctx context.Context, typ messaging.EventType, user session.User, st *domain.Story) {
	ev := messaging.NewStoryEvent(typ, user.ID, st, s.deps.Clock())
	if err := s.deps.Events.PublishStoryEvent(ctx, ev); err != nil {
		s.logger.Warn("Failed to publish story event", zap.String("type", string(typ)), zap.String("storyID", st.ID), zap.Error(err))
	}
}

// keyedMutex serializes work per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
