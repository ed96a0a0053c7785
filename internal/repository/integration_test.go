//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/rtg123uk/storyai/internal/config"
	"github.com/rtg123uk/storyai/internal/database"
	"github.com/rtg123uk/storyai/internal/repository"
)

// StoreIntegrationSuite runs the backend conformance tests against real
// servers started in containers.
type StoreIntegrationSuite struct {
	suite.Suite
	ctx    context.Context
	logger *zap.Logger

	pgContainer    *postgres.PostgresContainer
	redisContainer *tcredis.RedisContainer
	mongoContainer testcontainers.Container

	pool        *pgxpool.Pool
	redisClient *redis.Client
	mongoClient *mongo.Client
}

func (s *StoreIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = zap.NewNop()
	var err error

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("storyai_test"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2*time.Minute),
		),
	)
	require.NoError(s.T(), err, "start postgres container")

	dsn, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)
	require.NoError(s.T(), database.Migrate(dsn, s.logger), "apply migrations")
	s.pool, err = pgxpool.New(s.ctx, dsn)
	require.NoError(s.T(), err)

	s.redisContainer, err = tcredis.Run(s.ctx, "docker.io/redis:7-alpine")
	require.NoError(s.T(), err, "start redis container")
	redisURI, err := s.redisContainer.ConnectionString(s.ctx)
	require.NoError(s.T(), err)
	opts, err := redis.ParseURL(redisURI)
	require.NoError(s.T(), err)
	s.redisClient = redis.NewClient(opts)
	require.NoError(s.T(), s.redisClient.Ping(s.ctx).Err())

	s.mongoContainer, err = testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	require.NoError(s.T(), err, "start mongo container")
	host, err := s.mongoContainer.Host(s.ctx)
	require.NoError(s.T(), err)
	port, err := s.mongoContainer.MappedPort(s.ctx, "27017/tcp")
	require.NoError(s.T(), err)
	s.mongoClient, err = repository.ConnectMongo(s.ctx, config.MongoConfig{URI: fmt.Sprintf("mongodb://%s:%s", host, port.Port())})
	require.NoError(s.T(), err)
}

func (s *StoreIntegrationSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
	if s.mongoClient != nil {
		_ = s.mongoClient.Disconnect(s.ctx)
	}
	if s.pgContainer != nil {
		_ = s.pgContainer.Terminate(s.ctx)
	}
	if s.redisContainer != nil {
		_ = s.redisContainer.Terminate(s.ctx)
	}
	if s.mongoContainer != nil {
		_ = s.mongoContainer.Terminate(s.ctx)
	}
}

func (s *StoreIntegrationSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, `TRUNCATE story_titles, story_pages, stories`)
	s.Require().NoError(err)
	s.Require().NoError(s.redisClient.FlushDB(s.ctx).Err())
	s.Require().NoError(s.mongoClient.Database("storyai_test").Drop(s.ctx))
}

func (s *StoreIntegrationSuite) TestPgTitleHistory() {
	testTitleHistory(s.T(), repository.NewPgTitleHistory(s.pool, s.logger))
}

func (s *StoreIntegrationSuite) TestPgStoryStore() {
	testStoryStore(s.T(), repository.NewPgStoryStore(s.pool, s.logger))
}

func (s *StoreIntegrationSuite) TestRedisTitleHistory() {
	testTitleHistory(s.T(), repository.NewRedisTitleHistory(s.redisClient, "storyai:titles:test", s.logger))
}

func (s *StoreIntegrationSuite) TestMongoStoryStore() {
	store := repository.NewMongoStoryStore(s.mongoClient.Database("storyai_test").Collection("stories"), s.logger)
	s.Require().NoError(store.EnsureIndexes(s.ctx))
	testStoryStore(s.T(), store)
}

func (s *StoreIntegrationSuite) TestMigrateIsIdempotent() {
	dsn, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)
	s.Require().NoError(database.Migrate(dsn, s.logger))
}

func TestStoreIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(StoreIntegrationSuite))
}
