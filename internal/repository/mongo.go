package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/rtg123uk/storyai/internal/config"
	"github.com/rtg123uk/storyai/internal/domain"
)

// ConnectMongo connects and pings the server.
func ConnectMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

type mongoStory struct {
	domain.Story `bson:",inline"`
	UserID       string `bson:"user_id"`
}

// MongoStoryStore keeps each story, pages included, as one document.
type MongoStoryStore struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

func NewMongoStoryStore(coll *mongo.Collection, logger *zap.Logger) *MongoStoryStore {
	return &MongoStoryStore{coll: coll, logger: logger.Named("MongoStoryStore")}
}

// EnsureIndexes creates the per-user listing index.
func (r *MongoStoryStore) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "metadata.created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create stories index: %w", err)
	}
	return nil
}

func (r *MongoStoryStore) Save(ctx context.Context, userID string, s *domain.Story) error {
	filter := bson.M{"_id": s.ID, "user_id": userID}
	_, err := r.coll.ReplaceOne(ctx, filter, mongoStory{Story: *s, UserID: userID}, options.Replace().SetUpsert(true))
	if err != nil {
		// the upsert collides on _id when another user owns the story
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrNotFound
		}
		r.logger.Error("Failed to save story", zap.String("storyID", s.ID), zap.Error(err))
		return fmt.Errorf("save story %s: %w", s.ID, err)
	}
	return nil
}

func (r *MongoStoryStore) ListByUser(ctx context.Context, userID string) ([]domain.StorySummary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "metadata.created_at", Value: -1}}).
		SetProjection(bson.M{"pages.audio": 0, "pages.content": 0})
	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list stories of user %s: %w", userID, err)
	}
	var docs []mongoStory
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode stories of user %s: %w", userID, err)
	}

	summaries := make([]domain.StorySummary, 0, len(docs))
	for i := range docs {
		summaries = append(summaries, summarize(&docs[i].Story))
	}
	return summaries, nil
}

func (r *MongoStoryStore) Get(ctx context.Context, userID, storyID string) (*domain.Story, error) {
	var doc mongoStory
	err := r.coll.FindOne(ctx, bson.M{"_id": storyID, "user_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get story %s: %w", storyID, err)
	}
	for i := range doc.Pages {
		if doc.Pages[i].Choices == nil {
			doc.Pages[i].Choices = []domain.Choice{}
		}
	}
	return &doc.Story, nil
}
