package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// EventPublisher sends story events.
type EventPublisher interface {
	PublishStoryEvent(ctx context.Context, event StoryEvent) error
	Close() error
}

// Channel is the part of *amqp.Channel used for publishing.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// StoryEventPublisher publishes to a durable topic exchange, routed by
// event type.
type StoryEventPublisher struct {
	ch       Channel
	exchange string
	logger   *zap.Logger
}

// NewStoryEventPublisher declares exchange on ch and returns a publisher
// that owns ch.
func NewStoryEventPublisher(ch Channel, exchange string, logger *zap.Logger) (*StoryEventPublisher, error) {
	err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", exchange, err)
	}
	logger = logger.Named("StoryEventPublisher")
	logger.Info("Story events exchange declared", zap.String("exchange", exchange))
	return &StoryEventPublisher{ch: ch, exchange: exchange, logger: logger}, nil
}

func (p *StoryEventPublisher) PublishStoryEvent(ctx context.Context, event StoryEvent) error {
	log := p.logger.With(zap.String("type", string(event.Type)), zap.String("storyID", event.StoryID))

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal story event: %w", err)
	}
	err = p.ch.PublishWithContext(ctx,
		p.exchange,         // exchange
		string(event.Type), // routing key
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Type:         string(event.Type),
			Body:         body,
		},
	)
	if err != nil {
		log.Error("Failed to publish story event", zap.Error(err))
		return fmt.Errorf("publish story event: %w", err)
	}
	log.Debug("Story event published")
	return nil
}

func (p *StoryEventPublisher) Close() error {
	return p.ch.Close()
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishStoryEvent(context.Context, StoryEvent) error { return nil }
func (NopPublisher) Close() error                                         { return nil }

var (
	_ EventPublisher = (*StoryEventPublisher)(nil)
	_ EventPublisher = NopPublisher{}
	_ Channel        = (*amqp.Channel)(nil)
)

// Dial connects to the broker, retrying while it starts up.
func Dial(ctx context.Context, url string, attempts int, delay time.Duration, logger *zap.Logger) (*amqp.Connection, error) {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		conn, err := amqp.Dial(url)
		if err == nil {
			logger.Info("Connected to RabbitMQ", zap.Int("attempt", attempt))
			return conn, nil
		}
		lastErr = err
		logger.Warn("RabbitMQ not ready, retrying", zap.Int("attempt", attempt), zap.Int("maxAttempts", attempts), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("connect to rabbitmq after %d attempts: %w", attempts, lastErr)
}
