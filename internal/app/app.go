// Package app wires configuration into the story components shared by the
// server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rtg123uk/storyai/internal/ai"
	"github.com/rtg123uk/storyai/internal/config"
	"github.com/rtg123uk/storyai/internal/database"
	"github.com/rtg123uk/storyai/internal/image"
	"github.com/rtg123uk/storyai/internal/messaging"
	"github.com/rtg123uk/storyai/internal/repository"
	"github.com/rtg123uk/storyai/internal/service"
	"github.com/rtg123uk/storyai/internal/speech"
	"github.com/rtg123uk/storyai/internal/story"
)

// App holds the wired components. Close releases them in reverse order.
type App struct {
	Config       *config.Config
	Orchestrator *story.Orchestrator
	Service      *service.StoryService
	Speech       *speech.Client
	Images       *image.Generator // nil without an OpenAI key

	closers []func() error
	logger  *zap.Logger
}

// Options adjust wiring for the caller.
type Options struct {
	// WithEvents connects to RabbitMQ when RABBITMQ_URL is set.
	WithEvents bool
	// WatchPresets reloads the voice presets file on change.
	WatchPresets bool
}

// New wires every component selected by cfg. On error everything opened so
// far is closed.
func New(ctx context.Context, cfg *config.Config, opts Options, logger *zap.Logger) (_ *App, err error) {
	a := &App{Config: cfg, logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	text, err := ai.NewTextGenerator(ctx, cfg.AI, logger)
	if err != nil {
		return nil, fmt.Errorf("text generator: %w", err)
	}

	var pool *pgxpool.Pool
	if cfg.NeedsPostgres() {
		pool, err = database.Connect(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		a.onClose(func() error { pool.Close(); return nil })
		if err := database.Migrate(cfg.Database.DSN(), logger); err != nil {
			return nil, err
		}
	}

	titles, err := a.titleHistory(ctx, pool)
	if err != nil {
		return nil, err
	}
	store, err := a.storyStore(ctx, pool)
	if err != nil {
		return nil, err
	}

	presets := speech.NewPresets()
	if path := cfg.Speech.PresetsFile; path != "" {
		if err := presets.LoadFile(path); err != nil {
			return nil, fmt.Errorf("load voice presets: %w", err)
		}
		if opts.WatchPresets {
			watcher, err := speech.WatchPresets(ctx, presets, path, logger)
			if err != nil {
				return nil, err
			}
			a.onClose(watcher.Close)
		}
	}
	a.Speech = speech.NewClient(cfg.Speech.BaseURL, cfg.Speech.APIKey, cfg.Speech.Model, cfg.Speech.Timeout, logger)

	policy, err := story.ParseChoicePolicy(cfg.Story.ChoicePolicy)
	if err != nil {
		return nil, err
	}
	deps := story.Deps{
		Text:     text,
		Narrator: speech.NewNarrator(a.Speech, presets, logger),
		Titles:   story.NewTitleDeduplicator(titles, cfg.Story.TitleHistoryLimit, nil, logger),
		Logger:   logger,
	}
	if cfg.AI.OpenAIKey != "" {
		client := ai.NewOpenAIClient(cfg.AI.OpenAIKey, "", cfg.AI.Timeout)
		a.Images = image.NewGenerator(client, cfg.Image.Model, cfg.Image.Size, logger)
		deps.Images = a.Images
	} else {
		logger.Warn("OPENAI_API_KEY not set, illustrations and portraits are disabled")
	}
	a.Orchestrator = story.NewOrchestrator(deps, story.Options{
		AssetConcurrency: cfg.Story.AssetConcurrency,
		ChoicePolicy:     policy,
	})

	events := messaging.EventPublisher(messaging.NopPublisher{})
	if opts.WithEvents && cfg.RabbitMQ.URL != "" {
		events, err = a.eventPublisher(ctx)
		if err != nil {
			return nil, err
		}
	}

	svcDeps := service.Deps{
		Orchestrator: a.Orchestrator,
		Store:        store,
		Events:       events,
		Voices:       a.Speech,
		Logger:       logger,
	}
	if a.Images != nil {
		svcDeps.Portraits = a.Images
	}
	a.Service = service.NewStoryService(svcDeps)
	return a, nil
}

func (a *App) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) titleHistory(ctx context.Context, pool *pgxpool.Pool) (story.TitleHistory, error) {
	cfg := a.Config
	switch cfg.Story.TitleHistoryBackend {
	case "postgres":
		return repository.NewPgTitleHistory(pool, a.logger), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.onClose(client.Close)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		return repository.NewRedisTitleHistory(client, cfg.Redis.Key, a.logger), nil
	case "sqlite":
		h, err := repository.OpenSQLiteTitleHistory(ctx, cfg.SQLite.Path, a.logger)
		if err != nil {
			return nil, err
		}
		a.onClose(h.Close)
		return h, nil
	default:
		return repository.NewMemoryTitleHistory(), nil
	}
}

func (a *App) storyStore(ctx context.Context, pool *pgxpool.Pool) (repository.StoryStore, error) {
	cfg := a.Config
	switch cfg.Story.Store {
	case "postgres":
		return repository.NewPgStoryStore(pool, a.logger), nil
	case "mongo":
		client, err := repository.ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		a.onClose(func() error {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Disconnect(disconnectCtx)
		})
		store := repository.NewMongoStoryStore(client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection), a.logger)
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return repository.NewMemoryStoryStore(), nil
	}
}

func (a *App) eventPublisher(ctx context.Context) (messaging.EventPublisher, error) {
	cfg := a.Config.RabbitMQ
	conn, err := messaging.Dial(ctx, cfg.URL, 10, 3*time.Second, a.logger)
	if err != nil {
		return nil, err
	}
	a.onClose(conn.Close)
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	pub, err := messaging.NewStoryEventPublisher(ch, cfg.Exchange, a.logger)
	if err != nil {
		return nil, err
	}
	a.onClose(pub.Close)
	return pub, nil
}
