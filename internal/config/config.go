package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/rtg123uk/storyai/internal/logger"
)

// Config holds the whole application configuration.
type Config struct {
	AppEnv   string `env:"APP_ENV" env-default:"development"`
	HTTPPort int    `env:"HTTP_PORT" env-default:"8080"`
	Logger   logger.Config
	AI       AIConfig
	Image    ImageConfig
	Speech   SpeechConfig
	Story    StoryConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Mongo    MongoConfig
	SQLite   SQLiteConfig
	RabbitMQ RabbitMQConfig
	Auth     AuthConfig
	CORS     CORSConfig

	PushGatewayURL string `env:"PUSHGATEWAY_URL"`
}

// AIConfig selects and configures the text generation backend.
type AIConfig struct {
	Provider  string        `env:"AI_PROVIDER" env-default:"openai"` // openai, ollama, gemini
	BaseURL   string        `env:"AI_BASE_URL"`
	Model     string        `env:"AI_MODEL" env-default:"gpt-4o-mini"`
	Timeout   time.Duration `env:"AI_TIMEOUT" env-default:"120s"`
	OpenAIKey string        `env:"OPENAI_API_KEY"`
	GeminiKey string        `env:"GEMINI_API_KEY"`
}

type ImageConfig struct {
	Model string `env:"IMAGE_MODEL" env-default:"dall-e-3"`
	Size  string `env:"IMAGE_SIZE" env-default:"1024x1024"`
}

type SpeechConfig struct {
	BaseURL     string        `env:"ELEVENLABS_BASE_URL" env-default:"https://api.elevenlabs.io/v1"`
	Model       string        `env:"ELEVENLABS_MODEL" env-default:"eleven_monolingual_v1"`
	Timeout     time.Duration `env:"ELEVENLABS_TIMEOUT" env-default:"60s"`
	APIKey      string        `env:"ELEVENLABS_API_KEY"`
	PresetsFile string        `env:"VOICE_PRESETS_FILE"`
}

// StoryConfig tunes the orchestrator and chooses its storage backends.
type StoryConfig struct {
	TitleHistoryBackend string `env:"TITLE_HISTORY_BACKEND" env-default:"memory"` // postgres, redis, sqlite, memory
	TitleHistoryLimit   int    `env:"TITLE_HISTORY_LIMIT" env-default:"100"`
	Store               string `env:"STORY_STORE" env-default:"memory"` // postgres, mongo, memory
	AssetConcurrency    int    `env:"ASSET_CONCURRENCY" env-default:"4"`
	ChoicePolicy        string `env:"EAGER_CHOICE_POLICY" env-default:"preserve"` // preserve, pad
}

type DatabaseConfig struct {
	Host            string        `env:"DB_HOST" env-default:"localhost"`
	Port            int           `env:"DB_PORT" env-default:"5432"`
	User            string        `env:"DB_USER" env-default:"postgres"`
	Password        string        `env:"DB_PASSWORD"`
	Name            string        `env:"DB_NAME" env-default:"storyai"`
	SSLMode         string        `env:"DB_SSL_MODE" env-default:"disable"`
	MaxConns        int           `env:"DB_MAX_CONNECTIONS" env-default:"10"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" env-default:"5m"`
}

// DSN returns the postgres connection URL.
func (c DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
	Key      string `env:"REDIS_TITLE_KEY" env-default:"storyai:titles"`
}

type MongoConfig struct {
	URI        string `env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	Database   string `env:"MONGO_DATABASE" env-default:"storyai"`
	Collection string `env:"MONGO_COLLECTION" env-default:"stories"`
}

type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH" env-default:"storyai.db"`
}

// RabbitMQConfig is optional; an empty URL disables story events.
type RabbitMQConfig struct {
	URL      string `env:"RABBITMQ_URL"`
	Exchange string `env:"STORY_EVENTS_EXCHANGE" env-default:"story_events"`
}

type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
}

// Load reads .env (if present), the environment and Docker secrets.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	overlaySecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown backend names and nonsensical limits.
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case "openai", "ollama", "gemini":
	default:
		return fmt.Errorf("unsupported AI_PROVIDER %q", c.AI.Provider)
	}
	switch c.Story.TitleHistoryBackend {
	case "postgres", "redis", "sqlite", "memory":
	default:
		return fmt.Errorf("unsupported TITLE_HISTORY_BACKEND %q", c.Story.TitleHistoryBackend)
	}
	switch c.Story.Store {
	case "postgres", "mongo", "memory":
	default:
		return fmt.Errorf("unsupported STORY_STORE %q", c.Story.Store)
	}
	switch c.Story.ChoicePolicy {
	case "preserve", "pad":
	default:
		return fmt.Errorf("unsupported EAGER_CHOICE_POLICY %q", c.Story.ChoicePolicy)
	}
	if c.Story.TitleHistoryLimit < 1 {
		return fmt.Errorf("TITLE_HISTORY_LIMIT must be positive, got %d", c.Story.TitleHistoryLimit)
	}
	if c.Story.AssetConcurrency < 1 {
		return fmt.Errorf("ASSET_CONCURRENCY must be positive, got %d", c.Story.AssetConcurrency)
	}
	return nil
}

// NeedsPostgres reports whether any backend uses postgres.
func (c *Config) NeedsPostgres() bool {
	return c.Story.TitleHistoryBackend == "postgres" || c.Story.Store == "postgres"
}
